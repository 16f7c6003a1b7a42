// Package sqlite stores slots as rows of a single kv table in a SQLite database.
// It uses the pure-Go modernc.org/sqlite driver, so no cgo toolchain is needed.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/jsamuelsen/quotebook/internal/domain"
)

const driverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);`

// Store is a SQLite-backed KeyValueStore.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

type row struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Open opens (creating if needed) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite: path is required")
	}

	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}

		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: connect: %w", err)
	}

	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Get implements ports.KeyValueStore.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var r row

	err := s.db.GetContext(ctx, &r, `SELECT key, value, updated_at FROM kv WHERE key = ?`, key)

	switch {
	case err == nil:
		return r.Value, nil
	case errors.Is(err, sql.ErrNoRows):
		return "", domain.NewNotFoundError("slot", key)
	default:
		return "", domain.NewStorageError("load", key, err)
	}
}

// Set implements ports.KeyValueStore.
func (s *Store) Set(ctx context.Context, key, value string) error {
	const upsert = `
INSERT INTO kv (key, value, updated_at) VALUES (:key, :value, :updated_at)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	_, err := s.db.NamedExecContext(ctx, upsert, row{Key: key, Value: value, UpdatedAt: s.now().UTC()})
	if err != nil {
		return domain.NewStorageError("save", key, err)
	}

	return nil
}

// Delete implements ports.KeyValueStore.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return domain.NewStorageError("delete", key, err)
	}

	return nil
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return "storage"
}

// Check implements ports.HealthChecker.
func (s *Store) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
