package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

// MetricsStore implements domain.MetricsStore using PostgreSQL.
type MetricsStore struct {
	pool *pgxpool.Pool
}

// NewMetricsStore creates a new MetricsStore backed by the given pool.
func NewMetricsStore(pool *pgxpool.Pool) *MetricsStore {
	return &MetricsStore{pool: pool}
}

const metricsCols = `model_type, accuracy_7d, accuracy_30d, total, correct, updated_at`

// Upsert writes the metrics row for m.ModelType.
func (s *MetricsStore) Upsert(ctx context.Context, m domain.ModelMetrics) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO model_metrics (`+metricsCols+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (model_type) DO UPDATE SET
			accuracy_7d  = EXCLUDED.accuracy_7d,
			accuracy_30d = EXCLUDED.accuracy_30d,
			total        = EXCLUDED.total,
			correct      = EXCLUDED.correct,
			updated_at   = EXCLUDED.updated_at`,
		string(m.ModelType), m.Accuracy7d, m.Accuracy30d, m.Total, m.Correct, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert model metrics %s: %w", m.ModelType, err)
	}
	return nil
}

// List returns every model's metrics ordered by model name.
func (s *MetricsStore) List(ctx context.Context) ([]domain.ModelMetrics, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+metricsCols+` FROM model_metrics ORDER BY model_type`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list model metrics: %w", err)
	}
	defer rows.Close()

	var out []domain.ModelMetrics
	for rows.Next() {
		var m domain.ModelMetrics
		var model string
		if err := rows.Scan(&model, &m.Accuracy7d, &m.Accuracy30d, &m.Total, &m.Correct, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan model metrics: %w", err)
		}
		m.ModelType = domain.ModelType(model)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Compile-time interface check.
var _ domain.MetricsStore = (*MetricsStore)(nil)
