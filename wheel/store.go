package wheel

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Store reads and writes the sector table. Reads are lock-free; the admin
// import path owns all writes.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// ActiveSnapshot loads the active sectors in ordinal order as one query, so
// a spin never sees a sector set that changed mid-read. Labels, messages and
// icons fall back to the linked prize definition.
func (s *Store) ActiveSnapshot(ctx context.Context) (Snapshot, error) {
	rows, err := s.db.Query(ctx, `
		SELECT s.id, s.ordinal, s.prize_kind, s.prize_amount, s.weight::text,
		       COALESCE(NULLIF(s.icon, ''), p.icon, ''),
		       COALESCE(NULLIF(s.label, ''), p.name, ''),
		       COALESCE(NULLIF(s.message, ''), p.message, '')
		FROM wheel_sectors s
		LEFT JOIN wheel_prizes p ON p.id = s.prize_id
		WHERE s.active
		ORDER BY s.ordinal
	`)
	if err != nil {
		return Snapshot{}, err
	}
	defer rows.Close()
	snap := Snapshot{LoadedAt: time.Now().UTC()}
	for rows.Next() {
		var sec Sector
		var weight string
		if err := rows.Scan(&sec.ID, &sec.Ordinal, &sec.Kind, &sec.Amount, &weight, &sec.Icon, &sec.Label, &sec.Message); err != nil {
			return Snapshot{}, err
		}
		sec.Weight, err = decimal.NewFromString(weight)
		if err != nil {
			return Snapshot{}, fmt.Errorf("sector %d: bad weight %q: %w", sec.Ordinal, weight, err)
		}
		snap.Sectors = append(snap.Sectors, sec)
	}
	return snap, rows.Err()
}

// ImportSector is one row of an admin sector import.
type ImportSector struct {
	Ordinal int             `json:"ordinal"`
	Kind    PrizeKind       `json:"kind"`
	Amount  int             `json:"amount"`
	Weight  decimal.Decimal `json:"weight"`
	Active  bool            `json:"active"`
	Icon    string          `json:"icon,omitempty"`
	Label   string          `json:"label,omitempty"`
	Message string          `json:"message,omitempty"`
	Prize   *ImportPrize    `json:"prize,omitempty"`
}

// ImportPrize links a sector to a reusable prize definition by name,
// creating or updating it as needed.
type ImportPrize struct {
	Name    string `json:"name"`
	Message string `json:"message,omitempty"`
	Icon    string `json:"icon,omitempty"`
}

// Import upserts the given sectors by ordinal and deactivates every ordinal
// not in the list, in one transaction.
func (s *Store) Import(ctx context.Context, sectors []ImportSector) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	ordinals := make([]int, 0, len(sectors))
	for _, sec := range sectors {
		var prizeID *int64
		if sec.Prize != nil && sec.Prize.Name != "" {
			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO wheel_prizes (name, message, icon)
				VALUES ($1, $2, NULLIF($3, ''))
				ON CONFLICT (name) DO UPDATE
				SET message = EXCLUDED.message, icon = EXCLUDED.icon
				RETURNING id
			`, sec.Prize.Name, sec.Prize.Message, sec.Prize.Icon).Scan(&id)
			if err != nil {
				return err
			}
			prizeID = &id
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO wheel_sectors (ordinal, prize_kind, prize_amount, weight, active, icon, label, message, prize_id, updated_at)
			VALUES ($1, $2, $3, $4::numeric, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, now())
			ON CONFLICT (ordinal) DO UPDATE
			SET prize_kind = EXCLUDED.prize_kind,
			    prize_amount = EXCLUDED.prize_amount,
			    weight = EXCLUDED.weight,
			    active = EXCLUDED.active,
			    icon = EXCLUDED.icon,
			    label = EXCLUDED.label,
			    message = EXCLUDED.message,
			    prize_id = EXCLUDED.prize_id,
			    updated_at = now()
		`, sec.Ordinal, sec.Kind, sec.Amount, sec.Weight.String(), sec.Active, sec.Icon, sec.Label, sec.Message, prizeID)
		if err != nil {
			return err
		}
		ordinals = append(ordinals, sec.Ordinal)
	}
	_, err = tx.Exec(ctx, `UPDATE wheel_sectors SET active = FALSE, updated_at = now() WHERE NOT (ordinal = ANY($1))`, ordinals)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}
