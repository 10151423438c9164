// Package sqlite is the local persistent store: it backs the market snapshot
// cache on a single host and holds predictions when no PostgreSQL database
// is configured.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database handle.
type DB struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema exists.
// An empty path defaults to $TMPDIR/sportspulse/data.db; ":memory:" opens a
// private in-memory database.
func Open(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		path = filepath.Join(os.TempDir(), "sportspulse", "data.db")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL keeps readers unblocked

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: set WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout=5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: set busy timeout: %w", err)
	}

	d := &DB{db: db}
	if err := d.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks the database handle.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DB) createTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS predictions (
			id                TEXT PRIMARY KEY,
			market_id         TEXT NOT NULL,
			sport             TEXT NOT NULL DEFAULT 'all',
			event_name        TEXT NOT NULL DEFAULT '',
			predicted_outcome TEXT NOT NULL,
			historical_conf   REAL NOT NULL DEFAULT 0.5,
			sentiment_conf    REAL NOT NULL DEFAULT 0.5,
			hybrid_conf       REAL NOT NULL DEFAULT 0.5,
			actual_outcome    TEXT,
			is_correct        INTEGER,
			source            TEXT NOT NULL DEFAULT 'model',
			created_at        INTEGER NOT NULL,
			resolved_at       INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_market ON predictions (market_id)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions (created_at)`,
		`CREATE TABLE IF NOT EXISTS model_metrics (
			model_type   TEXT PRIMARY KEY,
			accuracy_7d  REAL NOT NULL DEFAULT 0,
			accuracy_30d REAL NOT NULL DEFAULT 0,
			total        INTEGER NOT NULL DEFAULT 0,
			correct      INTEGER NOT NULL DEFAULT 0,
			updated_at   INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: create tables: %w", err)
		}
	}
	return nil
}
