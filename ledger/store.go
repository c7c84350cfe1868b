package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store runs the ledger primitives against Postgres. All balance mutation is
// serialized per account with SELECT ... FOR UPDATE.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// SpinDebit consumes one ticket, applies the prize, writes the audit entries
// and inserts the spin record in a single transaction. Retries once on a
// serialization failure, then gives up with ErrConflict.
func (s *Store) SpinDebit(ctx context.Context, accountID int64, rec SpinInsert) (SpinOutcome, error) {
	out, err := s.spinDebitOnce(ctx, accountID, rec)
	if isSerializationFailure(err) {
		out, err = s.spinDebitOnce(ctx, accountID, rec)
		if isSerializationFailure(err) {
			return SpinOutcome{}, ErrConflict
		}
	}
	return out, err
}

func (s *Store) spinDebitOnce(ctx context.Context, accountID int64, rec SpinInsert) (SpinOutcome, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return SpinOutcome{}, err
	}
	defer tx.Rollback(ctx)

	var tickets int
	err = tx.QueryRow(ctx, `SELECT tickets FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&tickets)
	if errors.Is(err, pgx.ErrNoRows) {
		return SpinOutcome{}, ErrAccountNotFound
	}
	if err != nil {
		return SpinOutcome{}, err
	}
	plan, err := planSpin(tickets, rec.PrizeKind, rec.PrizeAmount)
	if err != nil {
		return SpinOutcome{}, err
	}

	now := time.Now().UTC()
	var zeroAt *time.Time
	if plan.newBalance == 0 {
		zeroAt = &now
	}
	_, err = tx.Exec(ctx, `
		UPDATE accounts
		SET tickets = $2, last_spin_at = $3, zero_at = $4,
		    total_spins = total_spins + 1, total_wins = total_wins + $5
		WHERE id = $1
	`, accountID, plan.newBalance, now, zeroAt, plan.winInc)
	if err != nil {
		return SpinOutcome{}, err
	}

	out := SpinOutcome{Balance: plan.newBalance, ZeroAt: zeroAt}
	err = tx.QueryRow(ctx, `
		INSERT INTO ledger_entries (account_id, delta, source) VALUES ($1, -1, $2) RETURNING id
	`, accountID, SourceSpinDebit).Scan(&out.EntryID)
	if err != nil {
		return SpinOutcome{}, err
	}
	if plan.bonus > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO ledger_entries (account_id, delta, source) VALUES ($1, $2, $3)
		`, accountID, plan.bonus, SourceFreeAccrual)
		if err != nil {
			return SpinOutcome{}, err
		}
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO spins (id, account_id, sector_id, sector_ordinal, sector_count, prize_kind, prize_amount, angle, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending')
	`, rec.ID, accountID, rec.SectorID, rec.Ordinal, rec.SectorCount, rec.PrizeKind, rec.PrizeAmount, rec.Angle)
	if err != nil {
		return SpinOutcome{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return SpinOutcome{}, err
	}
	return out, nil
}

// Credit applies a signed ticket delta outside of a spin (restore job, star
// exchange, admin adjustments). A negative delta that would push the balance
// below zero is rejected with ErrInsufficientTickets.
func (s *Store) Credit(ctx context.Context, accountID int64, delta int, source Source, restoreAt *time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var tickets int
	err = tx.QueryRow(ctx, `SELECT tickets FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&tickets)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, err
	}
	balance := tickets + delta
	if balance < 0 {
		return 0, ErrInsufficientTickets
	}
	var zeroAt *time.Time
	if balance == 0 {
		now := time.Now().UTC()
		zeroAt = &now
	}
	_, err = tx.Exec(ctx, `UPDATE accounts SET tickets = $2, zero_at = $3 WHERE id = $1`, accountID, balance, zeroAt)
	if err != nil {
		return 0, err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO ledger_entries (account_id, delta, source, restore_at) VALUES ($1, $2, $3, $4)
	`, accountID, delta, source, restoreAt)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return balance, nil
}

// EnsureAccount provisions the account on first sight, crediting the initial
// ticket bonus exactly once. Returns the current account either way.
func (s *Store) EnsureAccount(ctx context.Context, accountID int64, initialTickets int) (Account, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Account{}, err
	}
	defer tx.Rollback(ctx)

	var created bool
	err = tx.QueryRow(ctx, `
		INSERT INTO accounts (id, tickets) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
		RETURNING TRUE
	`, accountID, initialTickets).Scan(&created)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Account{}, err
	}
	if created && initialTickets > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO ledger_entries (account_id, delta, source) VALUES ($1, $2, $3)
		`, accountID, initialTickets, SourceInitialBonus)
		if err != nil {
			return Account{}, err
		}
	}
	acct, err := scanAccount(tx.QueryRow(ctx, `
		SELECT id, tickets, last_spin_at, zero_at, total_spins, total_wins, created_at
		FROM accounts WHERE id = $1
	`, accountID))
	if err != nil {
		return Account{}, err
	}
	return acct, tx.Commit(ctx)
}

// Get returns the account or ErrAccountNotFound.
func (s *Store) Get(ctx context.Context, accountID int64) (Account, error) {
	acct, err := scanAccount(s.db.QueryRow(ctx, `
		SELECT id, tickets, last_spin_at, zero_at, total_spins, total_wins, created_at
		FROM accounts WHERE id = $1
	`, accountID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return acct, err
}

// RestoreDue credits one ticket to every account that has been sitting at
// zero for at least the restore interval, and returns the account ids so
// callers can notify the players. One transaction for the whole batch.
func (s *Store) RestoreDue(ctx context.Context, every time.Duration) ([]int64, error) {
	cutoff := time.Now().UTC().Add(-every)
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		UPDATE accounts
		SET tickets = tickets + 1, zero_at = NULL
		WHERE tickets = 0 AND zero_at IS NOT NULL AND zero_at <= $1
		RETURNING id
	`, cutoff)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for _, id := range ids {
		_, err = tx.Exec(ctx, `
			INSERT INTO ledger_entries (account_id, delta, source, restore_at) VALUES ($1, 1, $2, $3)
		`, id, SourceFreeAccrual, now)
		if err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

// History returns the most recent ledger entries for an account.
func (s *Store) History(ctx context.Context, accountID int64, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, account_id, delta, source, restore_at, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Delta, &e.Source, &e.RestoreAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Tickets, &a.LastSpinAt, &a.ZeroAt, &a.TotalSpins, &a.TotalWins, &a.CreatedAt)
	return a, err
}

// isSerializationFailure matches SQLSTATE 40001 (serialization_failure) and
// 40P01 (deadlock_detected).
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
