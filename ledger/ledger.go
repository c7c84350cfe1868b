// Package ledger owns all mutation of account ticket balances. Every change
// goes through one of its transactional primitives; the audit trail in
// ledger_entries is append-only and never consulted to derive a balance.
package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/glowtap/luckywheel-backend/wheel"
)

// Source tags a ledger entry with where the ticket delta came from.
type Source string

const (
	SourceFreeAccrual  Source = "free_accrual"
	SourceSpinDebit    Source = "spin_debit"
	SourceStarExchange Source = "star_exchange"
	SourceAdminGrant   Source = "admin_grant"
	SourceAdminRemove  Source = "admin_remove"
	SourceInitialBonus Source = "initial_bonus"
)

var (
	// ErrInsufficientTickets is a normal rejection, not a fault: the account
	// had no ticket at the instant of debit.
	ErrInsufficientTickets = errors.New("ledger: insufficient tickets")
	// ErrConflict surfaces after the single internal retry on a
	// serialization failure is exhausted.
	ErrConflict        = errors.New("ledger: persistence conflict")
	ErrAccountNotFound = errors.New("ledger: account not found")
)

// Account is the player's ticket ledger view. Tickets is the single source
// of truth for the balance.
type Account struct {
	ID         int64      `json:"id"`
	Tickets    int        `json:"tickets"`
	LastSpinAt *time.Time `json:"lastSpinAt,omitempty"`
	ZeroAt     *time.Time `json:"zeroAt,omitempty"`
	TotalSpins int64      `json:"totalSpins"`
	TotalWins  int64      `json:"totalWins"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Entry is one audit-trail row. The current balance lives on Account; this
// stream exists for history and postmortems only.
type Entry struct {
	ID        int64      `json:"id"`
	AccountID int64      `json:"accountId"`
	Delta     int        `json:"delta"`
	Source    Source     `json:"source"`
	RestoreAt *time.Time `json:"restoreAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// SpinInsert is the spin record written inside the same transaction as the
// ticket debit, so a committed debit can never exist without its record.
type SpinInsert struct {
	ID          uuid.UUID
	SectorID    *int64
	Ordinal     int
	SectorCount int
	PrizeKind   wheel.PrizeKind
	PrizeAmount int
	Angle       float64
}

// SpinOutcome reports the committed effects of a spin debit.
type SpinOutcome struct {
	Balance int        // tickets after debit and any bundle credit
	EntryID int64      // the -1 spin_debit entry
	ZeroAt  *time.Time // set when the balance landed on zero
}

// spinPlan is the pure balance arithmetic for one spin, split out from the
// store so the kind branching is testable without a database.
type spinPlan struct {
	newBalance int
	bonus      int // immediate ticket credit for bundle prizes
	winInc     int64
}

func planSpin(tickets int, kind wheel.PrizeKind, amount int) (spinPlan, error) {
	if tickets <= 0 {
		return spinPlan{}, ErrInsufficientTickets
	}
	p := spinPlan{newBalance: tickets - 1}
	if kind == wheel.PrizeTickets && amount > 0 {
		p.bonus = amount
		p.newBalance += amount
	}
	if kind.IsWin() {
		p.winInc = 1
	}
	return p, nil
}
