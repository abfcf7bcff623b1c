// Package store is the persistence collaborator: parameterized reads and
// writes over SQLite plus an explicit scoped transaction handle.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Queryer is satisfied by both *sql.DB and *sql.Tx so row operations can run
// standalone or inside a transaction.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens/creates the database at path and runs migrations. Use ":memory:"
// for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The modernc driver serializes access per connection; a single
	// connection avoids SQLITE_BUSY under interleaved requests.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the handle as a Queryer for non-transactional operations.
func (s *Store) DB() Queryer { return s.db }

// WithTx runs fn inside a transaction: commit when fn returns nil, rollback
// otherwise. The deferred rollback is a no-op after a successful commit.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS wallets (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  owner_id TEXT NOT NULL,
  public_key TEXT NOT NULL,
  encrypted_seed TEXT NOT NULL,
  encrypted_secret_key TEXT NOT NULL,
  pin_hash TEXT NOT NULL,
  derivation_path TEXT NOT NULL,
  display_name TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at INTEGER NOT NULL
);

-- Storage-enforced guards for the lifecycle invariants. The application
-- checks first for a friendly error; these indexes close the window between
-- check and insert.
CREATE UNIQUE INDEX IF NOT EXISTS wallets_owner_active
  ON wallets(owner_id) WHERE is_active = 1;
CREATE UNIQUE INDEX IF NOT EXISTS wallets_key_active
  ON wallets(public_key) WHERE is_active = 1;

CREATE TABLE IF NOT EXISTS wallet_backups (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  owner_id TEXT NOT NULL,
  public_key TEXT NOT NULL,
  progress_snapshot TEXT NOT NULL,
  deleted_at INTEGER NOT NULL,
  restored INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS wallet_backups_key
  ON wallet_backups(public_key, restored);

CREATE TABLE IF NOT EXISTS tasks (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  owner_id TEXT NOT NULL,
  task_type TEXT NOT NULL,
  status TEXT NOT NULL,
  payload TEXT NOT NULL DEFAULT '{}',
  position INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS tasks_owner_type
  ON tasks(owner_id, task_type);
`)
	return err
}
