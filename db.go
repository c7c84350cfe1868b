package luckywheel

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	poolOnce sync.Once
	pool     *pgxpool.Pool
	poolErr  error
)

// GetPool returns the shared pgx connection pool, connecting on first use.
// DATABASE_URL must be set; the schema is migrated before the pool is handed out.
func GetPool(dsn string) (*pgxpool.Pool, error) {
	poolOnce.Do(func() {
		if dsn == "" {
			poolErr = errors.New("DATABASE_URL not set")
			return
		}
		cfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			poolErr = err
			return
		}
		// Pool settings for managed Postgres behind a pooler: idle timeout 4m, cap open conns.
		cfg.MaxConns = 10
		cfg.MaxConnIdleTime = 4 * time.Minute
		p, err := pgxpool.NewWithConfig(context.Background(), cfg)
		if err != nil {
			poolErr = err
			return
		}
		if err := p.Ping(context.Background()); err != nil {
			p.Close()
			poolErr = err
			return
		}
		if err := runMigrations(p); err != nil {
			p.Close()
			poolErr = fmt.Errorf("migrate: %w", err)
			return
		}
		pool = p
	})
	return pool, poolErr
}

// runMigrations applies the embedded SQL migrations over a stdlib handle
// borrowed from the pool. Closing the migrator does not close the pool.
func runMigrations(p *pgxpool.Pool) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	db := stdlib.OpenDBFromPool(p)
	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
