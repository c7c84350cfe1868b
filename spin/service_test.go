package spin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowtap/luckywheel-backend/diag"
	"github.com/glowtap/luckywheel-backend/wheel"
)

const testAccount int64 = 42

type fixture struct {
	svc     *Service
	ledger  *MemoryLedger
	records *MemoryRecords
	diags   *MemoryReporter
	notify  *MemoryNotifier
}

// newFixture wires the service against the in-memory fakes with a
// deterministic draw (always 0: first sector, minimum turns and jitter).
func newFixture(snap wheel.Snapshot) *fixture {
	records := NewMemoryRecords()
	f := &fixture{
		ledger:  NewMemoryLedger(records),
		records: records,
		diags:   &MemoryReporter{},
		notify:  &MemoryNotifier{},
	}
	f.svc = New(Config{
		Sectors:      &MemorySectors{Snap: snap},
		Ledger:       f.ledger,
		Records:      records,
		Diag:         f.diags,
		Notify:       f.notify,
		Selector:     wheel.NewSelectorWithSource(func(int64) int64 { return 0 }),
		Draw:         func(int64) int64 { return 0 },
		RestoreEvery: 4 * time.Hour,
		Log:          zerolog.Nop(),
	})
	return f
}

func testSnapshot() wheel.Snapshot {
	return wheel.Snapshot{Sectors: []wheel.Sector{
		{ID: 1, Ordinal: 1, Kind: wheel.PrizeCurrency, Amount: 100, Weight: decimal.NewFromInt(50)},
		{ID: 2, Ordinal: 2, Kind: wheel.PrizeTickets, Amount: 2, Weight: decimal.NewFromInt(20)},
		{ID: 3, Ordinal: 3, Kind: wheel.PrizeEmpty, Weight: decimal.NewFromInt(30)},
	}}
}

func TestSpinSettlesDebitAndRecord(t *testing.T) {
	f := newFixture(testSnapshot())
	f.ledger.SetTickets(testAccount, 3)

	res, err := f.svc.Spin(context.Background(), testAccount)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Sector.Ordinal)
	assert.Equal(t, wheel.PrizeCurrency, res.Sector.Kind)
	assert.Equal(t, 2, res.Tickets)
	assert.Zero(t, res.NextTicketIn)

	// The rotation angle must land inside the winning sector's arc.
	assert.Equal(t, res.Sector.Ordinal, wheel.SectorForAngle(res.Angle, 3))

	rec, err := f.records.Get(context.Background(), res.SpinID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, 1, rec.Ordinal)
	assert.Equal(t, 3, rec.SectorCount)
	assert.Equal(t, res.Angle, rec.Angle)

	entries := f.ledger.EntriesFor(testAccount)
	require.Len(t, entries, 1)
	assert.Equal(t, -1, entries[0].Delta)
	assert.Zero(t, f.diags.Len())
}

func TestSpinNoTicketsLeavesNoTrace(t *testing.T) {
	f := newFixture(testSnapshot())
	f.ledger.SetTickets(testAccount, 0)

	_, err := f.svc.Spin(context.Background(), testAccount)
	assert.ErrorIs(t, err, ErrNoTickets)
	assert.Zero(t, f.records.Len())
	assert.Empty(t, f.ledger.EntriesFor(testAccount))
	assert.Zero(t, f.diags.Len())
}

func TestSpinNoSectors(t *testing.T) {
	f := newFixture(wheel.Snapshot{})
	f.ledger.SetTickets(testAccount, 3)

	_, err := f.svc.Spin(context.Background(), testAccount)
	assert.ErrorIs(t, err, ErrNoSectors)
	assert.Len(t, f.diags.ByCategory(diag.CategorySelectionFailed), 1)
	assert.Equal(t, 3, f.ledger.Tickets(testAccount))
}

func TestSpinSnapshotFailure(t *testing.T) {
	f := newFixture(wheel.Snapshot{})
	f.ledger.SetTickets(testAccount, 3)
	f.svc.sectors = &MemorySectors{Err: errors.New("db down")}

	_, err := f.svc.Spin(context.Background(), testAccount)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Len(t, f.diags.ByCategory(diag.CategorySelectionFailed), 1)
}

func TestSpinZeroWeightsStillPlays(t *testing.T) {
	snap := wheel.Snapshot{Sectors: []wheel.Sector{
		{ID: 1, Ordinal: 1, Kind: wheel.PrizeEmpty},
		{ID: 2, Ordinal: 2, Kind: wheel.PrizeEmpty},
	}}
	f := newFixture(snap)
	f.ledger.SetTickets(testAccount, 2)

	// Every spin on a misconfigured wheel succeeds and logs one sum warning.
	for i := 0; i < 2; i++ {
		_, err := f.svc.Spin(context.Background(), testAccount)
		require.NoError(t, err)
	}
	assert.Len(t, f.diags.ByCategory(diag.CategoryProbabilitySumInvalid), 2)
	assert.Equal(t, 0, f.ledger.Tickets(testAccount))
}

func TestSpinTicketBundleCreditsImmediately(t *testing.T) {
	snap := wheel.Snapshot{Sectors: []wheel.Sector{
		{ID: 2, Ordinal: 1, Kind: wheel.PrizeTickets, Amount: 2, Weight: decimal.NewFromInt(100)},
	}}
	f := newFixture(snap)
	f.ledger.SetTickets(testAccount, 1)

	res, err := f.svc.Spin(context.Background(), testAccount)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Tickets) // 1 - 1 + 2

	entries := f.ledger.EntriesFor(testAccount)
	require.Len(t, entries, 2)
	assert.Equal(t, -1, entries[0].Delta)
	assert.Equal(t, 2, entries[1].Delta)
}

func TestSpinLedgerFailure(t *testing.T) {
	f := newFixture(testSnapshot())
	f.ledger.SetTickets(testAccount, 3)
	f.ledger.Err = errors.New("pool exhausted")

	_, err := f.svc.Spin(context.Background(), testAccount)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Len(t, f.diags.ByCategory(diag.CategoryAwardFailed), 1)
	assert.Zero(t, f.records.Len())
}

func TestSpinLastTicketReportsRestoreCountdown(t *testing.T) {
	f := newFixture(testSnapshot())
	f.ledger.SetTickets(testAccount, 1)

	res, err := f.svc.Spin(context.Background(), testAccount)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Tickets)
	assert.Equal(t, 4*time.Hour, res.NextTicketIn)
}

func TestSpinConcurrentNeverOverdraws(t *testing.T) {
	const tickets, attempts = 5, 20
	f := newFixture(testSnapshot())
	f.ledger.SetTickets(testAccount, tickets)

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Spin(context.Background(), testAccount)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, rejected int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrNoTickets):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, tickets, ok)
	assert.Equal(t, attempts-tickets, rejected)
	assert.Equal(t, 0, f.ledger.Tickets(testAccount))
	assert.Equal(t, tickets, f.records.Len())
}

func TestVerifyMatch(t *testing.T) {
	f := newFixture(testSnapshot())
	f.ledger.SetTickets(testAccount, 3)
	res, err := f.svc.Spin(context.Background(), testAccount)
	require.NoError(t, err)

	ver, err := f.svc.Verify(context.Background(), testAccount, res.SpinID, res.Angle)
	require.NoError(t, err)
	assert.False(t, ver.Mismatch)
	assert.Equal(t, res.Sector.Ordinal, ver.Ordinal)

	rec, _ := f.records.Get(context.Background(), res.SpinID)
	assert.Equal(t, StatusVerified, rec.Status)
	assert.Zero(t, f.diags.Len())
}

func TestVerifyMismatchFlagsWithoutReversal(t *testing.T) {
	f := newFixture(testSnapshot())
	f.ledger.SetTickets(testAccount, 3)
	res, err := f.svc.Spin(context.Background(), testAccount)
	require.NoError(t, err)
	balance := f.ledger.Tickets(testAccount)

	// Shift the reported angle by one full arc: the client rendered the
	// neighbouring sector.
	wrong := res.Angle + wheel.Arc(3)
	ver, err := f.svc.Verify(context.Background(), testAccount, res.SpinID, wrong)
	require.NoError(t, err)
	assert.True(t, ver.Mismatch)
	assert.Equal(t, res.Sector.Ordinal, ver.Ordinal, "the server outcome stands")

	rec, _ := f.records.Get(context.Background(), res.SpinID)
	assert.Equal(t, StatusMismatched, rec.Status)
	require.NotNil(t, rec.ReportedOrdinal)
	assert.Equal(t, res.Sector.Ordinal+1, *rec.ReportedOrdinal)

	assert.Len(t, f.diags.ByCategory(diag.CategoryVerificationMismatch), 1)
	assert.Equal(t, balance, f.ledger.Tickets(testAccount), "award untouched")
}

func TestVerifyIdempotent(t *testing.T) {
	f := newFixture(testSnapshot())
	f.ledger.SetTickets(testAccount, 3)
	res, err := f.svc.Spin(context.Background(), testAccount)
	require.NoError(t, err)

	wrong := res.Angle + wheel.Arc(3)
	first, err := f.svc.Verify(context.Background(), testAccount, res.SpinID, wrong)
	require.NoError(t, err)

	// Replay with a different angle: the stored outcome is returned, no new
	// diagnostic is written.
	second, err := f.svc.Verify(context.Background(), testAccount, res.SpinID, res.Angle)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, f.diags.ByCategory(diag.CategoryVerificationMismatch), 1)
}

func TestVerifyUnknownSpin(t *testing.T) {
	f := newFixture(testSnapshot())
	_, err := f.svc.Verify(context.Background(), testAccount, uuid.New(), 1200)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyWrongAccount(t *testing.T) {
	f := newFixture(testSnapshot())
	f.ledger.SetTickets(testAccount, 3)
	res, err := f.svc.Spin(context.Background(), testAccount)
	require.NoError(t, err)

	_, err = f.svc.Verify(context.Background(), testAccount+1, res.SpinID, res.Angle)
	assert.ErrorIs(t, err, ErrNotFound)

	rec, _ := f.records.Get(context.Background(), res.SpinID)
	assert.Equal(t, StatusPending, rec.Status, "record untouched")
}
