package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

// PredictionStore implements domain.PredictionStore on SQLite.
type PredictionStore struct {
	d *DB
}

// NewPredictionStore returns a PredictionStore over d.
func NewPredictionStore(d *DB) *PredictionStore {
	return &PredictionStore{d: d}
}

const predictionCols = `id, market_id, sport, event_name, predicted_outcome,
	historical_conf, sentiment_conf, hybrid_conf,
	actual_outcome, is_correct, source, created_at, resolved_at`

// InsertBatch inserts predictions in one transaction, ignoring ids that
// already exist.
func (s *PredictionStore) InsertBatch(ctx context.Context, preds []domain.Prediction) error {
	if len(preds) == 0 {
		return nil
	}
	tx, err := s.d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin insert predictions: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO predictions (`+predictionCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert prediction: %w", err)
	}
	defer stmt.Close()

	for i, p := range preds {
		_, err := stmt.ExecContext(ctx,
			p.ID, p.MarketID, string(p.Sport), p.EventName, p.PredictedOutcome,
			p.HistoricalConf, p.SentimentConf, p.HybridConf,
			nullString(p.ActualOutcome), nullBool(p.IsCorrect), string(p.Source),
			p.CreatedAt.UnixMilli(), nullTime(p.ResolvedAt),
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert prediction batch item %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit predictions: %w", err)
	}
	return nil
}

// List returns predictions newest first, filtered by sport and resolution.
func (s *PredictionStore) List(ctx context.Context, f domain.PredictionFilter) ([]domain.Prediction, error) {
	var where []string
	var args []any
	if f.Sport != "" && f.Sport != domain.SportAll {
		where = append(where, "sport = ?")
		args = append(args, string(f.Sport))
	}
	if f.Resolved != nil {
		if *f.Resolved {
			where = append(where, "actual_outcome IS NOT NULL")
		} else {
			where = append(where, "actual_outcome IS NULL")
		}
	}

	query := `SELECT ` + predictionCols + ` FROM predictions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return s.query(ctx, "list predictions", query, args...)
}

// ListPending returns unscored predictions, oldest first. A non-positive
// limit returns all of them.
func (s *PredictionStore) ListPending(ctx context.Context, limit int) ([]domain.Prediction, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.query(ctx, "list pending predictions",
		`SELECT `+predictionCols+` FROM predictions
		 WHERE actual_outcome IS NULL ORDER BY created_at ASC LIMIT ?`, limit)
}

// ListResolvedSince returns predictions resolved at or after since.
func (s *PredictionStore) ListResolvedSince(ctx context.Context, since time.Time) ([]domain.Prediction, error) {
	return s.query(ctx, "list resolved predictions",
		`SELECT `+predictionCols+` FROM predictions
		 WHERE resolved_at IS NOT NULL AND resolved_at >= ? ORDER BY resolved_at ASC`, since.UnixMilli())
}

// ListCreatedBefore returns predictions created strictly before the cutoff.
func (s *PredictionStore) ListCreatedBefore(ctx context.Context, before time.Time) ([]domain.Prediction, error) {
	return s.query(ctx, "list predictions before",
		`SELECT `+predictionCols+` FROM predictions WHERE created_at < ? ORDER BY created_at ASC`, before.UnixMilli())
}

// PendingMarketIDs returns the set of markets with an unscored prediction.
func (s *PredictionStore) PendingMarketIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := s.d.db.QueryContext(ctx, `SELECT DISTINCT market_id FROM predictions WHERE actual_outcome IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: pending market ids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scan pending market id: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

// Resolve records the actual outcome of a prediction.
func (s *PredictionStore) Resolve(ctx context.Context, id, actualOutcome string, isCorrect bool, resolvedAt time.Time) error {
	res, err := s.d.db.ExecContext(ctx,
		`UPDATE predictions SET actual_outcome = ?, is_correct = ?, resolved_at = ? WHERE id = ?`,
		actualOutcome, isCorrect, resolvedAt.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("sqlite: resolve prediction %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sqlite: resolve prediction %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *PredictionStore) query(ctx context.Context, op, query string, args ...any) ([]domain.Prediction, error) {
	rows, err := s.d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", op, err)
	}
	defer rows.Close()

	var out []domain.Prediction
	for rows.Next() {
		var (
			p             domain.Prediction
			sport, source string
			actual        sql.NullString
			correct       sql.NullBool
			createdMs     int64
			resolvedMs    sql.NullInt64
		)
		if err := rows.Scan(
			&p.ID, &p.MarketID, &sport, &p.EventName, &p.PredictedOutcome,
			&p.HistoricalConf, &p.SentimentConf, &p.HybridConf,
			&actual, &correct, &source, &createdMs, &resolvedMs,
		); err != nil {
			return nil, fmt.Errorf("sqlite: %s: scan: %w", op, err)
		}
		p.Sport = domain.SportCategory(sport)
		p.Source = domain.PredictionSource(source)
		p.CreatedAt = time.UnixMilli(createdMs).UTC()
		if actual.Valid {
			p.ActualOutcome = &actual.String
		}
		if correct.Valid {
			p.IsCorrect = &correct.Bool
		}
		if resolvedMs.Valid {
			t := time.UnixMilli(resolvedMs.Int64).UTC()
			p.ResolvedAt = &t
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", op, err)
	}
	return out, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

// Compile-time interface check.
var _ domain.PredictionStore = (*PredictionStore)(nil)
