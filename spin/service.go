// Package spin composes the weighted selector and the ticket ledger into the
// two-phase spin protocol: spin (select, debit, credit, record, render) and
// the later notify/verify cross-check.
package spin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/glowtap/luckywheel-backend/diag"
	"github.com/glowtap/luckywheel-backend/ledger"
	"github.com/glowtap/luckywheel-backend/wheel"
)

// SectorSource provides the active sector snapshot for one spin.
type SectorSource interface {
	ActiveSnapshot(ctx context.Context) (wheel.Snapshot, error)
}

// Ledger executes the atomic debit/credit/record transaction.
type Ledger interface {
	SpinDebit(ctx context.Context, accountID int64, rec ledger.SpinInsert) (ledger.SpinOutcome, error)
}

// RecordStore reads spin records and finalizes their verification status.
type RecordStore interface {
	Get(ctx context.Context, id uuid.UUID) (Record, error)
	// Finalize transitions a pending record to the given status, storing the
	// ordinal the client's angle mapped to. Returns false when the record
	// was already finalized (idempotent verification).
	Finalize(ctx context.Context, id uuid.UUID, status Status, reportedOrdinal int) (bool, error)
}

// Reporter writes diagnostic error records.
type Reporter interface {
	Report(ctx context.Context, e diag.Entry)
}

// Notifier delivers fire-and-forget player notifications after a spin
// commits. Failures are the notifier's problem, never the spin's.
type Notifier interface {
	NotifyPrize(ctx context.Context, accountID int64, kind wheel.PrizeKind, amount int)
}

var (
	// ErrNoTickets mirrors the ledger rejection at the service boundary.
	ErrNoTickets = ledger.ErrInsufficientTickets
	// ErrNoSectors means the wheel has no active sectors; the spin was
	// aborted before any ledger mutation.
	ErrNoSectors = errors.New("spin: no active sectors")
	// ErrUnavailable covers internal failures already logged to diagnostics.
	ErrUnavailable = errors.New("spin: temporarily unavailable")
	ErrNotFound    = errors.New("spin: record not found")
)

// Service is the spin orchestrator.
type Service struct {
	sectors  SectorSource
	ledger   Ledger
	records  RecordStore
	diag     Reporter
	notify   Notifier // optional
	selector *wheel.Selector
	draw     wheel.DrawSource // cosmetic randomness for the rotation angle
	restore  time.Duration
	log      zerolog.Logger
}

type Config struct {
	Sectors      SectorSource
	Ledger       Ledger
	Records      RecordStore
	Diag         Reporter
	Notify       Notifier
	Selector     *wheel.Selector  // defaults to the secure selector
	Draw         wheel.DrawSource // defaults to wheel.SecureSource
	RestoreEvery time.Duration
	Log          zerolog.Logger
}

func New(cfg Config) *Service {
	sel := cfg.Selector
	if sel == nil {
		sel = wheel.NewSelector()
	}
	draw := cfg.Draw
	if draw == nil {
		draw = wheel.SecureSource
	}
	return &Service{
		sectors:  cfg.Sectors,
		ledger:   cfg.Ledger,
		records:  cfg.Records,
		diag:     cfg.Diag,
		notify:   cfg.Notify,
		selector: sel,
		draw:     draw,
		restore:  cfg.RestoreEvery,
		log:      cfg.Log.With().Str("component", "spin").Logger(),
	}
}

// Result is the provisional outcome returned to the client for rendering.
type Result struct {
	SpinID       uuid.UUID
	Sector       wheel.Sector
	Angle        float64
	Tickets      int
	NextTicketIn time.Duration // non-zero only when the balance hit zero
}

// Spin runs one full pass of the protocol: snapshot, select, debit+award,
// record, render. On ErrNoTickets nothing was mutated and nothing is logged;
// every other failure leaves a diagnostic record.
func (s *Service) Spin(ctx context.Context, accountID int64) (Result, error) {
	snap, err := s.sectors.ActiveSnapshot(ctx)
	if err != nil {
		s.diag.Report(ctx, diag.Entry{
			AccountID: &accountID,
			Category:  diag.CategorySelectionFailed,
			Detail:    fmt.Sprintf("sector snapshot: %v", err),
		})
		return Result{}, ErrUnavailable
	}
	pick, ok := s.selector.Select(snap)
	if !ok {
		s.diag.Report(ctx, diag.Entry{
			AccountID: &accountID,
			Category:  diag.CategorySelectionFailed,
			Detail:    "no active sectors",
			Sectors:   snap,
		})
		return Result{}, ErrNoSectors
	}
	if pick.SumInvalid {
		// Config warning, not a blocking error: probabilities stay relative.
		s.diag.Report(ctx, diag.Entry{
			AccountID: &accountID,
			SectorID:  &pick.Sector.ID,
			Category:  diag.CategoryProbabilitySumInvalid,
			Detail:    fmt.Sprintf("active weights sum to %s", snap.TotalWeight()),
			Sectors:   snap,
		})
	}
	sector := *pick.Sector
	angle := wheel.RotationAngle(sector.Ordinal, len(snap.Sectors), s.draw)
	rec := ledger.SpinInsert{
		ID:          uuid.New(),
		SectorID:    &sector.ID,
		Ordinal:     sector.Ordinal,
		SectorCount: len(snap.Sectors),
		PrizeKind:   sector.Kind,
		PrizeAmount: sector.Amount,
		Angle:       angle,
	}
	out, err := s.ledger.SpinDebit(ctx, accountID, rec)
	if errors.Is(err, ledger.ErrInsufficientTickets) {
		return Result{}, ErrNoTickets
	}
	if err != nil {
		s.diag.Report(ctx, diag.Entry{
			AccountID: &accountID,
			SectorID:  &sector.ID,
			Category:  diag.CategoryAwardFailed,
			Detail:    fmt.Sprintf("spin debit: %v", err),
			Sectors:   snap,
			Context:   map[string]any{"spin_id": rec.ID, "ordinal": sector.Ordinal},
		})
		return Result{}, ErrUnavailable
	}
	s.log.Info().Int64("account", accountID).Str("spin", rec.ID.String()).
		Int("ordinal", sector.Ordinal).Str("kind", string(sector.Kind)).
		Int("tickets", out.Balance).Msg("spin settled")

	if s.notify != nil && sector.Kind.IsWin() {
		// Fire-and-forget: the award is already committed.
		go s.notify.NotifyPrize(context.WithoutCancel(ctx), accountID, sector.Kind, sector.Amount)
	}
	res := Result{
		SpinID:  rec.ID,
		Sector:  sector,
		Angle:   angle,
		Tickets: out.Balance,
	}
	if out.ZeroAt != nil {
		res.NextTicketIn = s.restore
	}
	return res, nil
}

// Verification is the outcome of the post-animation cross-check. Ordinal is
// always the server-recorded sector; the award never changes here.
type Verification struct {
	Ordinal  int
	Mismatch bool
}

// Verify recomputes which sector contains the angle the client actually
// rendered and compares it with the recorded selection. Detection only: a
// mismatch is flagged and logged, the ledger outcome stands. Idempotent.
func (s *Service) Verify(ctx context.Context, accountID int64, spinID uuid.UUID, reportedAngle float64) (Verification, error) {
	rec, err := s.records.Get(ctx, spinID)
	if errors.Is(err, ErrNotFound) || (err == nil && rec.AccountID != accountID) {
		return Verification{}, ErrNotFound
	}
	if err != nil {
		return Verification{}, ErrUnavailable
	}
	if rec.Status != StatusPending {
		return Verification{Ordinal: rec.Ordinal, Mismatch: rec.Status == StatusMismatched}, nil
	}
	reported := wheel.SectorForAngle(reportedAngle, rec.SectorCount)
	status := StatusVerified
	if reported != rec.Ordinal {
		status = StatusMismatched
	}
	changed, err := s.records.Finalize(ctx, spinID, status, reported)
	if err != nil {
		return Verification{}, ErrUnavailable
	}
	if !changed {
		// Lost the race with a concurrent notify; report what was committed.
		rec, err = s.records.Get(ctx, spinID)
		if err != nil {
			return Verification{}, ErrUnavailable
		}
		return Verification{Ordinal: rec.Ordinal, Mismatch: rec.Status == StatusMismatched}, nil
	}
	if status == StatusMismatched {
		s.diag.Report(ctx, diag.Entry{
			AccountID: &accountID,
			SectorID:  rec.SectorID,
			Category:  diag.CategoryVerificationMismatch,
			Detail:    fmt.Sprintf("expected ordinal %d, client angle %.2f maps to %d", rec.Ordinal, reportedAngle, reported),
			Context: map[string]any{
				"spin_id":          spinID,
				"reported_angle":   reportedAngle,
				"reported_ordinal": reported,
				"server_angle":     rec.Angle,
			},
		})
		s.log.Warn().Int64("account", accountID).Str("spin", spinID.String()).
			Int("expected", rec.Ordinal).Int("reported", reported).
			Msg("verification mismatch")
	}
	return Verification{Ordinal: rec.Ordinal, Mismatch: status == StatusMismatched}, nil
}
