package spin

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store reads and finalizes spin records in Postgres. Records are inserted
// by the ledger transaction; this store never creates them.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const recordColumns = `id, account_id, sector_id, sector_ordinal, sector_count,
	prize_kind, prize_amount, angle, status, reported_ordinal, created_at, verified_at`

func (s *Store) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	rec, err := scanRecord(s.db.QueryRow(ctx, `SELECT `+recordColumns+` FROM spins WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// Finalize is guarded by the pending status so concurrent notify calls and
// replays can transition a record at most once.
func (s *Store) Finalize(ctx context.Context, id uuid.UUID, status Status, reportedOrdinal int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE spins
		SET status = $2, reported_ordinal = $3, verified_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, status, reportedOrdinal)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Recent returns the latest spin records for an account, newest first.
func (s *Store) Recent(ctx context.Context, accountID int64, limit int) ([]Record, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+recordColumns+` FROM spins
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var recs []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.AccountID, &r.SectorID, &r.Ordinal, &r.SectorCount,
		&r.PrizeKind, &r.PrizeAmount, &r.Angle, &r.Status, &r.ReportedOrdinal, &r.CreatedAt, &r.VerifiedAt)
	return r, err
}
