package wheel

import (
	"time"

	"github.com/shopspring/decimal"
)

// PrizeKind classifies what a sector awards.
type PrizeKind string

const (
	PrizeCurrency PrizeKind = "currency" // credited to the external wallet, recorded here
	PrizeTickets  PrizeKind = "tickets"  // immediate ticket balance credit
	PrizeBox      PrizeKind = "box"      // mystery box, resolved outside the wheel
	PrizeSponsor  PrizeKind = "sponsor"  // sponsor gift, fulfilled manually
	PrizeEmpty    PrizeKind = "empty"
)

func (k PrizeKind) Valid() bool {
	switch k {
	case PrizeCurrency, PrizeTickets, PrizeBox, PrizeSponsor, PrizeEmpty:
		return true
	}
	return false
}

// IsWin reports whether landing on this kind counts as a win.
func (k PrizeKind) IsWin() bool {
	return k.Valid() && k != PrizeEmpty
}

// Sector is one wedge of the wheel. Label/Message/Icon are already resolved
// against the linked prize definition when loaded from the store.
type Sector struct {
	ID      int64           `json:"id"`
	Ordinal int             `json:"ordinal"`
	Kind    PrizeKind       `json:"kind"`
	Amount  int             `json:"amount"`
	Weight  decimal.Decimal `json:"weight"`
	Icon    string          `json:"icon,omitempty"`
	Label   string          `json:"label,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Weights are NUMERIC(5,2) percentages; selection walks exact integer
// hundredths so decimal configs like 0.05 never lose precision.
const weightScale = 100

// weightTarget is 100% in scaled units; sums within ±1 hundredth pass.
const weightTarget = 100 * weightScale

func (s Sector) scaledWeight() int64 {
	w := s.Weight.Shift(2).IntPart()
	if w < 0 {
		return 0
	}
	return w
}

// Snapshot is the active sector set read atomically at spin time, ordered by
// ordinal. The selector and angle math operate only on snapshots, never on
// live configuration.
type Snapshot struct {
	Sectors  []Sector  `json:"sectors"`
	LoadedAt time.Time `json:"loaded_at"`
}

func (sn Snapshot) Empty() bool { return len(sn.Sectors) == 0 }

// TotalWeight returns the decimal sum of all sector weights.
func (sn Snapshot) TotalWeight() decimal.Decimal {
	total := decimal.Zero
	for _, s := range sn.Sectors {
		total = total.Add(s.Weight)
	}
	return total
}

func (sn Snapshot) totalScaled() int64 {
	var total int64
	for _, s := range sn.Sectors {
		total += s.scaledWeight()
	}
	return total
}

// SumInvalid reports whether the configured weights miss 100% by more than
// the 0.01 tolerance. Selection still proceeds; this is a config warning.
func (sn Snapshot) SumInvalid() bool {
	d := sn.totalScaled() - weightTarget
	return d < -1 || d > 1
}
