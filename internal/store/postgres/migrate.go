package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"

	"github.com/jackc/pgx/v5"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationLock keys the advisory lock held while a migration is applied.
const migrationLock int64 = 0x73706f727473 // "sports"

type migration struct {
	name string
	sql  string
}

// loadMigrations returns the migrations/*.sql files of fsys in name order.
func loadMigrations(fsys fs.FS) ([]migration, error) {
	names, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("postgres: list migrations: %w", err)
	}
	slices.Sort(names)

	out := make([]migration, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("postgres: read migration %s: %w", name, err)
		}
		out = append(out, migration{name: path.Base(name), sql: string(data)})
	}
	return out, nil
}

// RunMigrations applies the embedded migrations that are not yet recorded in
// sportspulse_migrations and returns the names it applied. Each file runs in
// its own transaction under an advisory lock, so replicas starting together
// apply it once.
func (c *Client) RunMigrations(ctx context.Context) ([]string, error) {
	migrations, err := loadMigrations(migrationsFS)
	if err != nil {
		return nil, err
	}

	if c.schema != "" {
		if _, err := c.pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{c.schema}.Sanitize()); err != nil {
			return nil, fmt.Errorf("postgres: create schema %s: %w", c.schema, err)
		}
	}
	const createTracker = `
		CREATE TABLE IF NOT EXISTS sportspulse_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`
	if _, err := c.pool.Exec(ctx, createTracker); err != nil {
		return nil, fmt.Errorf("postgres: create migration tracker: %w", err)
	}

	var applied []string
	for _, m := range migrations {
		ran, err := c.applyMigration(ctx, m)
		if err != nil {
			return applied, err
		}
		if ran {
			applied = append(applied, m.name)
		}
	}
	return applied, nil
}

func (c *Client) applyMigration(ctx context.Context, m migration) (bool, error) {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("postgres: begin migration %s: %w", m.name, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLock); err != nil {
		return false, fmt.Errorf("postgres: lock migration %s: %w", m.name, err)
	}

	var done bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM sportspulse_migrations WHERE filename = $1)", m.name,
	).Scan(&done); err != nil {
		return false, fmt.Errorf("postgres: check migration %s: %w", m.name, err)
	}
	if done {
		return false, nil
	}

	if _, err := tx.Exec(ctx, m.sql); err != nil {
		return false, fmt.Errorf("postgres: exec migration %s: %w", m.name, err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO sportspulse_migrations (filename) VALUES ($1)", m.name); err != nil {
		return false, fmt.Errorf("postgres: record migration %s: %w", m.name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("postgres: commit migration %s: %w", m.name, err)
	}
	return true, nil
}
