package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func testPrediction(id, marketID string, sport domain.SportCategory, created time.Time) domain.Prediction {
	return domain.Prediction{
		ID:               id,
		MarketID:         marketID,
		Sport:            sport,
		EventName:        "Lakers vs Celtics",
		PredictedOutcome: domain.OutcomeYes,
		HistoricalConf:   0.5,
		SentimentConf:    0.5,
		HybridConf:       0.62,
		Source:           domain.PredictionSourceModel,
		CreatedAt:        created,
	}
}

func TestKVStore(t *testing.T) {
	kv := NewKVStore(newTestDB(t))
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, kv.Set(ctx, "k", []byte("one")))
	require.NoError(t, kv.Set(ctx, "k", []byte("two")))

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
}

func TestPredictionStore_InsertAndList(t *testing.T) {
	store := NewPredictionStore(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	preds := []domain.Prediction{
		testPrediction("p1", "m1", domain.SportNBA, base),
		testPrediction("p2", "m2", domain.SportNFL, base.Add(time.Hour)),
		testPrediction("p3", "m3", domain.SportNBA, base.Add(2*time.Hour)),
	}
	require.NoError(t, store.InsertBatch(ctx, preds))
	// Duplicate ids are ignored.
	require.NoError(t, store.InsertBatch(ctx, preds[:1]))

	all, err := store.List(ctx, domain.PredictionFilter{Sport: domain.SportAll})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "p3", all[0].ID, "newest first")
	assert.Equal(t, base.Add(2*time.Hour), all[0].CreatedAt)
	assert.Nil(t, all[0].ActualOutcome)

	nba, err := store.List(ctx, domain.PredictionFilter{Sport: domain.SportNBA, Limit: 1})
	require.NoError(t, err)
	require.Len(t, nba, 1)
	assert.Equal(t, "p3", nba[0].ID)
}

func TestPredictionStore_ResolveFlow(t *testing.T) {
	store := NewPredictionStore(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertBatch(ctx, []domain.Prediction{
		testPrediction("p1", "m1", domain.SportNBA, base),
		testPrediction("p2", "m2", domain.SportNBA, base.Add(time.Minute)),
	}))

	pendingIDs, err := store.PendingMarketIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"m1": true, "m2": true}, pendingIDs)

	resolvedAt := base.Add(24 * time.Hour)
	require.NoError(t, store.Resolve(ctx, "p1", domain.OutcomeYes, true, resolvedAt))

	err = store.Resolve(ctx, "nope", domain.OutcomeNo, false, resolvedAt)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	pending, err := store.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "p2", pending[0].ID)

	unlimited, err := store.ListPending(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, unlimited, 1)

	yes := true
	resolved, err := store.List(ctx, domain.PredictionFilter{Resolved: &yes})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	require.NotNil(t, resolved[0].IsCorrect)
	assert.True(t, *resolved[0].IsCorrect)
	assert.Equal(t, domain.OutcomeYes, *resolved[0].ActualOutcome)

	since, err := store.ListResolvedSince(ctx, resolvedAt.Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, since, 1)

	since, err = store.ListResolvedSince(ctx, resolvedAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, since)

	before, err := store.ListCreatedBefore(ctx, base.Add(30*time.Second))
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.Equal(t, "p1", before[0].ID)
}

func TestMetricsStore_Upsert(t *testing.T) {
	store := NewMetricsStore(newTestDB(t))
	ctx := context.Background()
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Upsert(ctx, domain.ModelMetrics{ModelType: domain.ModelHybrid, Total: 4, Correct: 1, Accuracy7d: 0.25, UpdatedAt: now}))
	require.NoError(t, store.Upsert(ctx, domain.ModelMetrics{ModelType: domain.ModelHybrid, Total: 4, Correct: 3, Accuracy7d: 0.75, UpdatedAt: now}))
	require.NoError(t, store.Upsert(ctx, domain.ModelMetrics{ModelType: domain.ModelHistorical, UpdatedAt: now}))

	got, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.ModelHistorical, got[0].ModelType)
	assert.Equal(t, 3, got[1].Correct)
	assert.Equal(t, 0.75, got[1].Accuracy7d)
	assert.Equal(t, now, got[1].UpdatedAt)
}
