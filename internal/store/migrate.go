package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/santapalabra/scripture/core/errors"
	"github.com/santapalabra/scripture/core/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// Open connects to the configured database and verifies it responds.
// SQLite DSNs are file paths (or ":memory:"); PostgreSQL DSNs are
// connection URLs.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	switch dialect {
	case SQLite:
		db, err = sqlite.Open(dsn)
	case Postgres:
		db, err = sql.Open("postgres", dsn)
		if err == nil {
			err = db.PingContext(ctx)
		}
	}
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, errors.NewIO("open", string(dialect)+" database", err)
	}
	return NewSQL(db, dialect), nil
}

// Migrate applies every pending schema migration. It is a no-op when the
// schema is current.
func (s *SQLStore) Migrate() (uint, error) {
	src, err := iofs.New(migrationsFS, "migrations/"+string(s.dialect))
	if err != nil {
		return 0, fmt.Errorf("load migrations: %w", err)
	}
	defer src.Close()

	var drv database.Driver
	switch s.dialect {
	case Postgres:
		drv, err = postgres.WithInstance(s.db.DB, &postgres.Config{})
	default:
		drv, err = migratesqlite.WithInstance(s.db.DB, &migratesqlite.Config{})
	}
	if err != nil {
		return 0, fmt.Errorf("migration driver: %w", err)
	}

	// m.Close would close the shared *sql.DB, so the instance is dropped
	// without closing it.
	m, err := migrate.NewWithInstance("iofs", src, string(s.dialect), drv)
	if err != nil {
		return 0, fmt.Errorf("init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}
