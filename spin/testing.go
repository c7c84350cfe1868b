package spin

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/glowtap/luckywheel-backend/diag"
	"github.com/glowtap/luckywheel-backend/ledger"
	"github.com/glowtap/luckywheel-backend/wheel"
)

// In-memory implementations of the service dependencies, for tests. The
// ledger fake mirrors the Postgres store's contract: per-account
// serialization, balance-at-debit check, and the spin record landing in the
// same "transaction" as the debit.

// MemorySectors serves a fixed snapshot.
type MemorySectors struct {
	Snap wheel.Snapshot
	Err  error
}

func (m *MemorySectors) ActiveSnapshot(ctx context.Context) (wheel.Snapshot, error) {
	return m.Snap, m.Err
}

// MemoryRecords is an in-memory RecordStore.
type MemoryRecords struct {
	mu sync.Mutex
	m  map[uuid.UUID]*Record
}

func NewMemoryRecords() *MemoryRecords {
	return &MemoryRecords{m: make(map[uuid.UUID]*Record)}
}

func (m *MemoryRecords) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.m[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return *rec, nil
}

func (m *MemoryRecords) Finalize(ctx context.Context, id uuid.UUID, status Status, reportedOrdinal int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.m[id]
	if !ok {
		return false, ErrNotFound
	}
	if rec.Status != StatusPending {
		return false, nil
	}
	now := time.Now().UTC()
	rec.Status = status
	rec.ReportedOrdinal = &reportedOrdinal
	rec.VerifiedAt = &now
	return true, nil
}

func (m *MemoryRecords) add(accountID int64, ins ledger.SpinInsert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[ins.ID] = &Record{
		ID:          ins.ID,
		AccountID:   accountID,
		SectorID:    ins.SectorID,
		Ordinal:     ins.Ordinal,
		SectorCount: ins.SectorCount,
		PrizeKind:   ins.PrizeKind,
		PrizeAmount: ins.PrizeAmount,
		Angle:       ins.Angle,
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
}

// Len reports the number of stored records.
func (m *MemoryRecords) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.m)
}

// MemoryLedger is an in-memory Ledger serialized by a single mutex, standing
// in for the row lock the Postgres store takes.
type MemoryLedger struct {
	mu       sync.Mutex
	Accounts map[int64]*ledger.Account
	Entries  []ledger.Entry
	Records  *MemoryRecords
	Err      error // forced failure for award-failed paths
}

func NewMemoryLedger(records *MemoryRecords) *MemoryLedger {
	return &MemoryLedger{
		Accounts: make(map[int64]*ledger.Account),
		Records:  records,
	}
}

// SetTickets provisions an account with the given balance.
func (m *MemoryLedger) SetTickets(accountID int64, tickets int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Accounts[accountID] = &ledger.Account{ID: accountID, Tickets: tickets}
}

func (m *MemoryLedger) Tickets(accountID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.Accounts[accountID]; ok {
		return a.Tickets
	}
	return 0
}

// EntriesFor returns the audit entries recorded for an account, in order.
func (m *MemoryLedger) EntriesFor(accountID int64) []ledger.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ledger.Entry
	for _, e := range m.Entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out
}

func (m *MemoryLedger) SpinDebit(ctx context.Context, accountID int64, rec ledger.SpinInsert) (ledger.SpinOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return ledger.SpinOutcome{}, m.Err
	}
	acct, ok := m.Accounts[accountID]
	if !ok {
		return ledger.SpinOutcome{}, ledger.ErrAccountNotFound
	}
	if acct.Tickets <= 0 {
		return ledger.SpinOutcome{}, ledger.ErrInsufficientTickets
	}
	now := time.Now().UTC()
	acct.Tickets--
	acct.TotalSpins++
	m.Entries = append(m.Entries, ledger.Entry{
		ID: int64(len(m.Entries) + 1), AccountID: accountID, Delta: -1,
		Source: ledger.SourceSpinDebit, CreatedAt: now,
	})
	if rec.PrizeKind == wheel.PrizeTickets && rec.PrizeAmount > 0 {
		acct.Tickets += rec.PrizeAmount
		m.Entries = append(m.Entries, ledger.Entry{
			ID: int64(len(m.Entries) + 1), AccountID: accountID, Delta: rec.PrizeAmount,
			Source: ledger.SourceFreeAccrual, CreatedAt: now,
		})
	}
	if rec.PrizeKind.IsWin() {
		acct.TotalWins++
	}
	out := ledger.SpinOutcome{Balance: acct.Tickets, EntryID: int64(len(m.Entries))}
	if acct.Tickets == 0 {
		acct.ZeroAt = &now
		out.ZeroAt = &now
	}
	acct.LastSpinAt = &now
	if m.Records != nil {
		m.Records.add(accountID, rec)
	}
	return out, nil
}

// MemoryReporter collects diagnostic entries.
type MemoryReporter struct {
	mu      sync.Mutex
	entries []diag.Entry
}

func (m *MemoryReporter) Report(ctx context.Context, e diag.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

func (m *MemoryReporter) ByCategory(c diag.Category) []diag.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []diag.Entry
	for _, e := range m.entries {
		if e.Category == c {
			out = append(out, e)
		}
	}
	return out
}

func (m *MemoryReporter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// MemoryNotifier counts prize notifications.
type MemoryNotifier struct {
	mu    sync.Mutex
	Calls []int64
}

func (m *MemoryNotifier) NotifyPrize(ctx context.Context, accountID int64, kind wheel.PrizeKind, amount int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, accountID)
}
