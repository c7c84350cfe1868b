package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/glowtap/luckywheel-backend/wheel"
)

func TestPlanSpin(t *testing.T) {
	cases := []struct {
		name    string
		tickets int
		kind    wheel.PrizeKind
		amount  int
		want    spinPlan
		wantErr error
	}{
		{
			name: "currency prize", tickets: 3, kind: wheel.PrizeCurrency, amount: 100,
			want: spinPlan{newBalance: 2, winInc: 1},
		},
		{
			name: "empty sector", tickets: 1, kind: wheel.PrizeEmpty,
			want: spinPlan{newBalance: 0},
		},
		{
			// The debit and the bundle credit settle together: 1 - 1 + 2 = 2.
			name: "ticket bundle on last ticket", tickets: 1, kind: wheel.PrizeTickets, amount: 2,
			want: spinPlan{newBalance: 2, bonus: 2, winInc: 1},
		},
		{
			name: "box prize", tickets: 5, kind: wheel.PrizeBox, amount: 1,
			want: spinPlan{newBalance: 4, winInc: 1},
		},
		{
			name: "zero tickets", tickets: 0, kind: wheel.PrizeCurrency, amount: 100,
			wantErr: ErrInsufficientTickets,
		},
		{
			name: "negative balance is still a rejection", tickets: -1, kind: wheel.PrizeEmpty,
			wantErr: ErrInsufficientTickets,
		},
		{
			// A zero-amount ticket prize credits nothing.
			name: "zero-amount bundle", tickets: 2, kind: wheel.PrizeTickets, amount: 0,
			want: spinPlan{newBalance: 1, winInc: 1},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := planSpin(c.tickets, c.kind, c.amount)
			if !errors.Is(err, c.wantErr) {
				t.Fatalf("err = %v, want %v", err, c.wantErr)
			}
			if err == nil && got != c.want {
				t.Fatalf("plan = %+v, want %+v", got, c.want)
			}
		})
	}
}

func TestIsSerializationFailure(t *testing.T) {
	if !isSerializationFailure(&pgconn.PgError{Code: "40001"}) {
		t.Error("serialization_failure not detected")
	}
	if !isSerializationFailure(&pgconn.PgError{Code: "40P01"}) {
		t.Error("deadlock_detected not detected")
	}
	if !isSerializationFailure(fmt.Errorf("tx: %w", &pgconn.PgError{Code: "40001"})) {
		t.Error("wrapped pg error not detected")
	}
	if isSerializationFailure(&pgconn.PgError{Code: "23505"}) {
		t.Error("unique violation misclassified")
	}
	if isSerializationFailure(nil) || isSerializationFailure(errors.New("boom")) {
		t.Error("non-pg error misclassified")
	}
}
