package diag

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Store writes diagnostic records to wheel_errors. Report never fails the
// caller: a diagnostics write problem must not take down a spin.
type Store struct {
	db  *pgxpool.Pool
	log zerolog.Logger
}

func NewStore(db *pgxpool.Pool, log zerolog.Logger) *Store {
	return &Store{db: db, log: log.With().Str("component", "diag").Logger()}
}

func (s *Store) Report(ctx context.Context, e Entry) {
	sectors := marshalOrNil(e.Sectors)
	reqCtx := marshalOrNil(e.Context)
	_, err := s.db.Exec(ctx, `
		INSERT INTO wheel_errors (account_id, sector_id, category, detail, sectors, context)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.AccountID, e.SectorID, e.Category, e.Detail, sectors, reqCtx)
	if err != nil {
		s.log.Error().Err(err).Str("category", string(e.Category)).Str("detail", e.Detail).
			Msg("failed to write diagnostic record")
	}
}

func marshalOrNil(v any) []byte {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
