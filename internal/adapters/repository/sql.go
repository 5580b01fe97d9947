package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/shelfmate/core/internal/infrastructure/database"
	"github.com/shelfmate/core/internal/ports"
)

// SQLStorage keeps snapshots in the snapshots table of a PostgreSQL or
// SQLite database.
type SQLStorage struct {
	db *database.DB
}

// NewSQLStorage wraps an open connection. The snapshots table must exist.
func NewSQLStorage(db *database.DB) *SQLStorage {
	return &SQLStorage{db: db}
}

func (s *SQLStorage) Get(ctx context.Context, key string) ([]byte, error) {
	query := s.db.DB.Rebind(`SELECT value FROM snapshots WHERE key = ?`)

	var value string
	err := s.db.DB.GetContext(ctx, &value, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrKeyNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	return []byte(value), nil
}

func (s *SQLStorage) Set(ctx context.Context, key string, value []byte) error {
	del := s.db.DB.Rebind(`DELETE FROM snapshots WHERE key = ?`)
	ins := s.db.DB.Rebind(`INSERT INTO snapshots (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`)

	return s.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, del, key); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
		if _, err := tx.ExecContext(ctx, ins, key, string(value)); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		return nil
	})
}

func (s *SQLStorage) Remove(ctx context.Context, key string) error {
	query := s.db.DB.Rebind(`DELETE FROM snapshots WHERE key = ?`)

	if _, err := s.db.DB.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}

func (s *SQLStorage) Ping(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

// Stats reports connection pool usage for health checks
func (s *SQLStorage) Stats() map[string]interface{} {
	return s.db.GetConnectionInfo()
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}
