package domain

import (
	"context"
	"time"
)

// PredictionStore persists generated predictions.
type PredictionStore interface {
	InsertBatch(ctx context.Context, preds []Prediction) error
	List(ctx context.Context, f PredictionFilter) ([]Prediction, error)
	ListPending(ctx context.Context, limit int) ([]Prediction, error)
	ListResolvedSince(ctx context.Context, since time.Time) ([]Prediction, error)
	ListCreatedBefore(ctx context.Context, before time.Time) ([]Prediction, error)
	PendingMarketIDs(ctx context.Context) (map[string]bool, error)
	Resolve(ctx context.Context, id, actualOutcome string, isCorrect bool, resolvedAt time.Time) error
}

// MetricsStore persists per-model accuracy.
type MetricsStore interface {
	Upsert(ctx context.Context, m ModelMetrics) error
	List(ctx context.Context) ([]ModelMetrics, error)
}
