package postgres

import (
	"context"
	"errors"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

// testDSNEnv names a disposable database for the integration tests below.
// Each test runs in its own schema, which is dropped afterwards.
const testDSNEnv = "SPORTSPULSE_TEST_DATABASE_DSN"

var createTableRe = regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS (\w+) \((.*?)\n\);`)

// migrationColumns maps each table created by the embedded migrations to
// its column names.
func migrationColumns(t *testing.T) map[string]map[string]bool {
	t.Helper()
	migrations, err := loadMigrations(migrationsFS)
	require.NoError(t, err)

	tables := make(map[string]map[string]bool)
	for _, m := range migrations {
		for _, match := range createTableRe.FindAllStringSubmatch(m.sql, -1) {
			cols := make(map[string]bool)
			for _, line := range strings.Split(match[2], "\n") {
				if f := strings.Fields(line); len(f) > 0 {
					cols[f[0]] = true
				}
			}
			tables[match[1]] = cols
		}
	}
	return tables
}

func splitCols(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		out = append(out, strings.TrimSpace(c))
	}
	return out
}

func TestStoreColumnsMatchMigrations(t *testing.T) {
	tables := migrationColumns(t)
	require.Contains(t, tables, "predictions")
	require.Contains(t, tables, "model_metrics")

	predCols := splitCols(predictionCols)
	assert.Len(t, predCols, len(tables["predictions"]), "every predictions column is read and written")
	for _, c := range predCols {
		assert.True(t, tables["predictions"][c], "predictions.%s", c)
	}
	placeholders := regexp.MustCompile(`\$\d+`).FindAllString(insertPredictionSQL, -1)
	assert.Len(t, placeholders, len(predCols))

	for _, c := range splitCols(metricsCols) {
		assert.True(t, tables["model_metrics"][c], "model_metrics.%s", c)
	}
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}
	ctx := context.Background()
	schema := "sportspulse_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	c, err := New(ctx, ClientConfig{DSN: dsn, Schema: schema, MaxConns: 2})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = c.pool.Exec(context.Background(), "DROP SCHEMA IF EXISTS "+pgx.Identifier{schema}.Sanitize()+" CASCADE")
		c.Close()
	})

	applied, err := c.RunMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_predictions.sql", "002_model_metrics.sql"}, applied)

	again, err := c.RunMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)
	return c
}

func testPrediction(id, marketID string, sport domain.SportCategory, created time.Time) domain.Prediction {
	return domain.Prediction{
		ID:               id,
		MarketID:         marketID,
		Sport:            sport,
		EventName:        "Chiefs vs Eagles",
		PredictedOutcome: domain.OutcomeYes,
		HistoricalConf:   0.5,
		SentimentConf:    0.5,
		HybridConf:       0.64,
		Source:           domain.PredictionSourceModel,
		CreatedAt:        created,
	}
}

func TestPredictionStore_InsertAndList(t *testing.T) {
	store := NewPredictionStore(newTestClient(t).Pool())
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	preds := []domain.Prediction{
		testPrediction("p1", "m1", domain.SportNFL, base),
		testPrediction("p2", "m2", domain.SportNBA, base.Add(time.Hour)),
		testPrediction("p3", "m3", domain.SportNFL, base.Add(2*time.Hour)),
	}
	require.NoError(t, store.InsertBatch(ctx, preds))
	require.NoError(t, store.InsertBatch(ctx, preds[:1]), "duplicate ids are ignored")
	require.NoError(t, store.InsertBatch(ctx, nil))

	all, err := store.List(ctx, domain.PredictionFilter{Sport: domain.SportAll})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "p3", all[0].ID, "newest first")
	assert.True(t, base.Add(2*time.Hour).Equal(all[0].CreatedAt))
	assert.Equal(t, domain.SportNFL, all[0].Sport)
	assert.Equal(t, domain.PredictionSourceModel, all[0].Source)
	assert.Nil(t, all[0].ActualOutcome)
	assert.Nil(t, all[0].ResolvedAt)

	nfl, err := store.List(ctx, domain.PredictionFilter{Sport: domain.SportNFL, Limit: 1})
	require.NoError(t, err)
	require.Len(t, nfl, 1)
	assert.Equal(t, "p3", nfl[0].ID)
}

func TestPredictionStore_ResolveFlow(t *testing.T) {
	store := NewPredictionStore(newTestClient(t).Pool())
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertBatch(ctx, []domain.Prediction{
		testPrediction("p1", "m1", domain.SportNFL, base),
		testPrediction("p2", "m2", domain.SportNFL, base.Add(time.Minute)),
	}))

	pendingIDs, err := store.PendingMarketIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"m1": true, "m2": true}, pendingIDs)

	resolvedAt := base.Add(24 * time.Hour)
	require.NoError(t, store.Resolve(ctx, "p1", domain.OutcomeNo, false, resolvedAt))

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
	assert.False(t, *resolved[0].IsCorrect)
	require.NotNil(t, resolved[0].ActualOutcome)
	assert.Equal(t, domain.OutcomeNo, *resolved[0].ActualOutcome)

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
	store := NewMetricsStore(newTestClient(t).Pool())
	ctx := context.Background()
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Upsert(ctx, domain.ModelMetrics{ModelType: domain.ModelHybrid, Total: 4, Correct: 1, Accuracy7d: 0.25, UpdatedAt: now}))
	require.NoError(t, store.Upsert(ctx, domain.ModelMetrics{ModelType: domain.ModelHybrid, Total: 4, Correct: 3, Accuracy7d: 0.75, Accuracy30d: 0.6, UpdatedAt: now}))
	require.NoError(t, store.Upsert(ctx, domain.ModelMetrics{ModelType: domain.ModelHistorical, UpdatedAt: now}))

	got, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.ModelHistorical, got[0].ModelType)
	assert.Equal(t, 3, got[1].Correct)
	assert.Equal(t, 0.75, got[1].Accuracy7d)
	assert.Equal(t, 0.6, got[1].Accuracy30d)
	assert.True(t, now.Equal(got[1].UpdatedAt))
}
