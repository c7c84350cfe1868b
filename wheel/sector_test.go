package wheel

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPrizeKind(t *testing.T) {
	for _, k := range []PrizeKind{PrizeCurrency, PrizeTickets, PrizeBox, PrizeSponsor, PrizeEmpty} {
		if !k.Valid() {
			t.Errorf("%s: expected valid", k)
		}
	}
	if PrizeKind("jackpot").Valid() {
		t.Error("unknown kind reported valid")
	}
	if PrizeEmpty.IsWin() {
		t.Error("empty counts as a win")
	}
	if !PrizeCurrency.IsWin() || !PrizeBox.IsWin() {
		t.Error("prize kinds not counted as wins")
	}
}

func TestScaledWeight(t *testing.T) {
	cases := []struct {
		weight string
		want   int64
	}{
		{"50", 5000},
		{"0.05", 5},
		{"0", 0},
		{"-3", 0}, // clamped, never subtracts probability
		{"33.33", 3333},
	}
	for _, c := range cases {
		s := Sector{Weight: decimal.RequireFromString(c.weight)}
		if got := s.scaledWeight(); got != c.want {
			t.Errorf("weight %s: got %d, want %d", c.weight, got, c.want)
		}
	}
}

func TestSnapshotTotals(t *testing.T) {
	snap := snapshotOf("50", "30", "20")
	if !snap.TotalWeight().Equal(decimal.NewFromInt(100)) {
		t.Errorf("total weight %s, want 100", snap.TotalWeight())
	}
	if snap.SumInvalid() {
		t.Error("exact 100 percent flagged invalid")
	}
	if snap.Empty() {
		t.Error("non-empty snapshot reported empty")
	}
	if !(Snapshot{}).Empty() {
		t.Error("zero snapshot not reported empty")
	}
}
