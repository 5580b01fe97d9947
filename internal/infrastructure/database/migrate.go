package database

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// sqliteSchema mirrors the postgres migrations for the embedded SQLite
// backend, which is created on open instead of migrated.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// Migrator runs the embedded migrations against PostgreSQL
type Migrator struct {
	m *migrate.Migrate
}

// NewMigrator prepares migrations for a postgres connection
func NewMigrator(db *DB) (*Migrator, error) {
	if db.Driver() != DriverPostgres {
		return nil, fmt.Errorf("migrations are only supported for %s, got %s", DriverPostgres, db.Driver())
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, DriverPostgres, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}

	return &Migrator{m: m}, nil
}

// Up applies all pending migrations. ErrNoChange is not an error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Down reverts all migrations
func (mg *Migrator) Down() error {
	if err := mg.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

// Version reports the current migration version
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// EnsureSQLiteSchema creates the snapshots table on a SQLite connection
func EnsureSQLiteSchema(ctx context.Context, db *DB) error {
	if db.Driver() != DriverSQLite {
		return fmt.Errorf("expected %s connection, got %s", DriverSQLite, db.Driver())
	}
	if _, err := db.DB.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create sqlite schema: %w", err)
	}
	return nil
}
