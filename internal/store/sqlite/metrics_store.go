package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

// MetricsStore implements domain.MetricsStore on SQLite.
type MetricsStore struct {
	d *DB
}

// NewMetricsStore returns a MetricsStore over d.
func NewMetricsStore(d *DB) *MetricsStore {
	return &MetricsStore{d: d}
}

// Upsert writes the metrics row for m.ModelType.
func (s *MetricsStore) Upsert(ctx context.Context, m domain.ModelMetrics) error {
	_, err := s.d.db.ExecContext(ctx, `
		INSERT INTO model_metrics (model_type, accuracy_7d, accuracy_30d, total, correct, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(model_type) DO UPDATE SET
			accuracy_7d = excluded.accuracy_7d,
			accuracy_30d = excluded.accuracy_30d,
			total = excluded.total,
			correct = excluded.correct,
			updated_at = excluded.updated_at`,
		string(m.ModelType), m.Accuracy7d, m.Accuracy30d, m.Total, m.Correct, m.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("sqlite: upsert model metrics %s: %w", m.ModelType, err)
	}
	return nil
}

// List returns every model's metrics ordered by model name.
func (s *MetricsStore) List(ctx context.Context) ([]domain.ModelMetrics, error) {
	rows, err := s.d.db.QueryContext(ctx, `
		SELECT model_type, accuracy_7d, accuracy_30d, total, correct, updated_at
		FROM model_metrics ORDER BY model_type`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list model metrics: %w", err)
	}
	defer rows.Close()

	var out []domain.ModelMetrics
	for rows.Next() {
		var m domain.ModelMetrics
		var model string
		var updatedMs int64
		if err := rows.Scan(&model, &m.Accuracy7d, &m.Accuracy30d, &m.Total, &m.Correct, &updatedMs); err != nil {
			return nil, fmt.Errorf("sqlite: scan model metrics: %w", err)
		}
		m.ModelType = domain.ModelType(model)
		m.UpdatedAt = time.UnixMilli(updatedMs).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

// Compile-time interface check.
var _ domain.MetricsStore = (*MetricsStore)(nil)
