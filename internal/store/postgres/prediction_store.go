package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

// PredictionStore implements domain.PredictionStore using PostgreSQL.
type PredictionStore struct {
	pool *pgxpool.Pool
}

// NewPredictionStore creates a new PredictionStore backed by the given pool.
func NewPredictionStore(pool *pgxpool.Pool) *PredictionStore {
	return &PredictionStore{pool: pool}
}

const predictionCols = `id, market_id, sport, event_name, predicted_outcome,
	historical_conf, sentiment_conf, hybrid_conf,
	actual_outcome, is_correct, source, created_at, resolved_at`

const insertPredictionSQL = `
	INSERT INTO predictions (` + predictionCols + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (id) DO NOTHING`

// InsertBatch inserts predictions in one batch. Rows whose id already exists
// are left untouched.
func (s *PredictionStore) InsertBatch(ctx context.Context, preds []domain.Prediction) error {
	if len(preds) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range preds {
		batch.Queue(insertPredictionSQL,
			p.ID, p.MarketID, string(p.Sport), p.EventName, p.PredictedOutcome,
			p.HistoricalConf, p.SentimentConf, p.HybridConf,
			p.ActualOutcome, p.IsCorrect, string(p.Source), p.CreatedAt, p.ResolvedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range preds {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert prediction batch item %d: %w", i, err)
		}
	}
	return nil
}

// List returns predictions newest first, filtered by sport and resolution.
func (s *PredictionStore) List(ctx context.Context, f domain.PredictionFilter) ([]domain.Prediction, error) {
	query := `SELECT ` + predictionCols + ` FROM predictions WHERE TRUE`
	args := []any{}
	argIdx := 1

	if f.Sport != "" && f.Sport != domain.SportAll {
		query += fmt.Sprintf(" AND sport = $%d", argIdx)
		args = append(args, string(f.Sport))
		argIdx++
	}
	if f.Resolved != nil {
		if *f.Resolved {
			query += " AND actual_outcome IS NOT NULL"
		} else {
			query += " AND actual_outcome IS NULL"
		}
	}

	query += " ORDER BY created_at DESC"

	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, f.Limit)
	}

	return s.query(ctx, "list predictions", query, args...)
}

// ListPending returns unscored predictions, oldest first. A non-positive
// limit returns all of them (LIMIT NULL).
func (s *PredictionStore) ListPending(ctx context.Context, limit int) ([]domain.Prediction, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	return s.query(ctx, "list pending predictions",
		`SELECT `+predictionCols+` FROM predictions
		 WHERE actual_outcome IS NULL
		 ORDER BY created_at ASC
		 LIMIT $1`, lim)
}

// ListResolvedSince returns predictions resolved at or after since.
func (s *PredictionStore) ListResolvedSince(ctx context.Context, since time.Time) ([]domain.Prediction, error) {
	return s.query(ctx, "list resolved predictions",
		`SELECT `+predictionCols+` FROM predictions
		 WHERE resolved_at IS NOT NULL AND resolved_at >= $1
		 ORDER BY resolved_at ASC`, since)
}

// ListCreatedBefore returns predictions created strictly before the cutoff.
func (s *PredictionStore) ListCreatedBefore(ctx context.Context, before time.Time) ([]domain.Prediction, error) {
	return s.query(ctx, "list predictions before",
		`SELECT `+predictionCols+` FROM predictions
		 WHERE created_at < $1
		 ORDER BY created_at ASC`, before)
}

// PendingMarketIDs returns the set of markets that have an unscored
// prediction.
func (s *PredictionStore) PendingMarketIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT market_id FROM predictions WHERE actual_outcome IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("postgres: pending market ids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan pending market id: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

// Resolve records the actual outcome of a prediction.
func (s *PredictionStore) Resolve(ctx context.Context, id, actualOutcome string, isCorrect bool, resolvedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE predictions
		 SET actual_outcome = $2, is_correct = $3, resolved_at = $4
		 WHERE id = $1`,
		id, actualOutcome, isCorrect, resolvedAt)
	if err != nil {
		return fmt.Errorf("postgres: resolve prediction %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: resolve prediction %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *PredictionStore) query(ctx context.Context, op, query string, args ...any) ([]domain.Prediction, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}
	defer rows.Close()

	var out []domain.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: %s: scan: %w", op, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}
	return out, nil
}

func scanPrediction(row pgx.Row) (domain.Prediction, error) {
	var p domain.Prediction
	var sport, source string
	err := row.Scan(
		&p.ID, &p.MarketID, &sport, &p.EventName, &p.PredictedOutcome,
		&p.HistoricalConf, &p.SentimentConf, &p.HybridConf,
		&p.ActualOutcome, &p.IsCorrect, &source, &p.CreatedAt, &p.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Prediction{}, domain.ErrNotFound
		}
		return domain.Prediction{}, err
	}
	p.Sport = domain.SportCategory(sport)
	p.Source = domain.PredictionSource(source)
	return p, nil
}

// Compile-time interface check.
var _ domain.PredictionStore = (*PredictionStore)(nil)
