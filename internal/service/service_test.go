package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/sportspulse/internal/domain"
	"github.com/alanyoungcy/sportspulse/internal/platform/polymarket"
	"github.com/alanyoungcy/sportspulse/internal/store/sqlite"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type staticMarkets []domain.Market

func (s staticMarkets) FetchMarkets(_ context.Context, q domain.MarketQuery) []domain.Market {
	var out []domain.Market
	for _, m := range s {
		if q.Sport == domain.SportAll || q.Sport == "" || m.Sport == q.Sport {
			out = append(out, m)
		}
	}
	return out
}

func sampleMarkets() staticMarkets {
	return staticMarkets{
		{ID: "m1", Sport: domain.SportNBA, Title: "Lakers vs Celtics",
			Outcomes: []domain.Outcome{{Name: "Lakers", Price: 0.5}, {Name: "Celtics", Price: 0.5}}},
		{ID: "m2", Sport: domain.SportNFL, Title: "Chiefs vs Bills",
			Outcomes: []domain.Outcome{{Name: "Yes", Price: 0.3}, {Name: "No", Price: 0.7}}},
		{ID: "m3", Sport: domain.SportNBA, Title: "MVP",
			Outcomes: []domain.Outcome{{Name: "A"}, {Name: "B"}, {Name: "C"}}},
	}
}

func newStores(t *testing.T) (*sqlite.PredictionStore, *sqlite.MetricsStore) {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.NewPredictionStore(db), sqlite.NewMetricsStore(db)
}

func TestMarketService_AttachesPicks(t *testing.T) {
	svc := NewMarketService(sampleMarkets(), discardLogger())
	views := svc.ListMarkets(context.Background(), domain.MarketQuery{Sport: domain.SportAll})
	require.Len(t, views, 3)

	require.NotNil(t, views[0].Prediction)
	assert.Equal(t, domain.PickYes, views[0].Prediction.Pick, "tie picks YES")
	assert.Equal(t, domain.PickNo, views[1].Prediction.Pick)
	assert.Equal(t, 0.7, views[1].Prediction.Confidence)
	assert.Nil(t, views[2].Prediction)
}

func TestPredictionService_Sources(t *testing.T) {
	ctx := context.Background()
	preds, _ := newStores(t)
	svc := NewPredictionService(preds, sampleMarkets(), 7, discardLogger())

	live := svc.List(ctx, PredictionQuery{Sport: domain.SportNBA})
	assert.Equal(t, SourceLive, live.Source)
	require.Len(t, live.Predictions, 1)
	assert.Equal(t, "m1", live.Predictions[0].MarketID)

	require.NoError(t, preds.InsertBatch(ctx, []domain.Prediction{{
		ID: "p1", MarketID: "m1", Sport: domain.SportNBA, PredictedOutcome: domain.OutcomeNo,
		HybridConf: 0.5, Source: domain.PredictionSourceModel, CreatedAt: time.Now().UTC(),
	}}))
	db := svc.List(ctx, PredictionQuery{Sport: domain.SportNBA})
	assert.Equal(t, SourceDatabase, db.Source)
	assert.Equal(t, 1, db.Stats.Pending)

	mock := svc.List(ctx, PredictionQuery{Sport: domain.SportNBA, Limit: 6, Mock: true})
	assert.Equal(t, SourceMock, mock.Source)
	assert.Len(t, mock.Predictions, 6)

	yes := true
	resolvedMock := svc.List(ctx, PredictionQuery{Limit: 6, Mock: true, Resolved: &yes})
	assert.Len(t, resolvedMock.Predictions, 2)

	resolvedLive := svc.List(ctx, PredictionQuery{Sport: domain.SportNFL, Resolved: &yes})
	assert.Equal(t, SourceLive, resolvedLive.Source)
	assert.NotNil(t, resolvedLive.Predictions)
	assert.Empty(t, resolvedLive.Predictions)
}

type failingStore struct{ domain.PredictionStore }

func (failingStore) List(context.Context, domain.PredictionFilter) ([]domain.Prediction, error) {
	return nil, errors.New("connection refused")
}

func TestPredictionService_StoreErrorFallsBackToLive(t *testing.T) {
	svc := NewPredictionService(failingStore{}, sampleMarkets(), 1, discardLogger())
	res := svc.List(context.Background(), PredictionQuery{Limit: 1})
	assert.Equal(t, SourceLive, res.Source)
	assert.Len(t, res.Predictions, 1)
}

type staticTraining struct {
	tm  domain.TrainingMetrics
	err error
}

func (s staticTraining) Load(context.Context) (domain.TrainingMetrics, error) { return s.tm, s.err }

func TestAccuracyService_Report(t *testing.T) {
	ctx := context.Background()
	preds, metrics := newStores(t)
	now := time.Now().UTC()

	require.NoError(t, preds.InsertBatch(ctx, []domain.Prediction{
		{ID: "a", MarketID: "m1", PredictedOutcome: domain.OutcomeYes, HybridConf: 0.8, CreatedAt: now.Add(-48 * time.Hour)},
		{ID: "b", MarketID: "m2", PredictedOutcome: domain.OutcomeYes, HybridConf: 0.7, CreatedAt: now.Add(-47 * time.Hour)},
		{ID: "c", MarketID: "m3", PredictedOutcome: domain.OutcomeNo, HybridConf: 0.2, CreatedAt: now.Add(-46 * time.Hour)},
	}))
	require.NoError(t, preds.Resolve(ctx, "a", domain.OutcomeYes, true, now.Add(-time.Hour)))
	require.NoError(t, preds.Resolve(ctx, "b", domain.OutcomeNo, false, now.Add(-time.Hour)))

	svc := NewAccuracyService(preds, metrics, staticTraining{err: domain.ErrNotFound}, discardLogger())
	rep, err := svc.Report(ctx)
	require.NoError(t, err)

	assert.Nil(t, rep.Training)
	assert.Equal(t, LiveAccuracy{Total: 2, Correct: 1, Pending: 1, Accuracy: 0.5}, rep.Live)
	require.Len(t, rep.Models, 3, "computed when none are stored")

	require.NoError(t, metrics.Upsert(ctx, domain.ModelMetrics{ModelType: domain.ModelHybrid, Accuracy7d: 0.9, UpdatedAt: now}))
	svc = NewAccuracyService(preds, metrics, staticTraining{tm: domain.TrainingMetrics{Samples: 10}}, discardLogger())
	rep, err = svc.Report(ctx)
	require.NoError(t, err)
	require.NotNil(t, rep.Training)
	assert.Equal(t, 10, rep.Training.Samples)
	require.Len(t, rep.Models, 1)
	assert.Equal(t, 0.9, rep.Models[0].Accuracy7d)
}

type fakeGamma struct {
	m   polymarket.APIMarket
	err error
}

func (f fakeGamma) GetMarket(context.Context, string) (polymarket.APIMarket, error) { return f.m, f.err }

func TestGammaResolver(t *testing.T) {
	r := NewGammaResolver(fakeGamma{m: polymarket.APIMarket{
		Outcomes:      `["Yes","No"]`,
		OutcomePrices: `["1","0"]`,
		Closed:        true,
	}})
	outcomes, closed, err := r.MarketOutcomes(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, closed)
	require.Len(t, outcomes, 2)
	assert.Equal(t, 1.0, outcomes[0].Price)

	_, _, err = NewGammaResolver(fakeGamma{err: domain.ErrNotFound}).MarketOutcomes(context.Background(), "x")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
