package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/sportspulse/internal/domain"
	"github.com/alanyoungcy/sportspulse/internal/pipeline"
	"github.com/alanyoungcy/sportspulse/internal/predict"
	"github.com/alanyoungcy/sportspulse/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

type fakeMarkets struct {
	got  domain.MarketQuery
	resp []service.MarketView
}

func (f *fakeMarkets) ListMarkets(_ context.Context, q domain.MarketQuery) []service.MarketView {
	f.got = q
	return f.resp
}

func TestListMarkets(t *testing.T) {
	pick := domain.Pick{Pick: domain.PickYes, Confidence: 0.6}
	fake := &fakeMarkets{resp: []service.MarketView{{
		Market:     domain.Market{ID: "m1", Sport: domain.SportNBA, Outcomes: []domain.Outcome{}},
		Prediction: &pick,
	}}}
	h := NewMarketHandler(fake, discardLogger())

	rec := httptest.NewRecorder()
	h.ListMarkets(rec, httptest.NewRequest(http.MethodGet, "/api/markets?sport=nba&status=live&limit=10&offset=20", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.MarketQuery{Sport: domain.SportNBA, Status: domain.MarketStatusLive, Limit: 10, Offset: 20}, fake.got)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 1.0, body["count"])
	assert.NotContains(t, body, "error")
	markets := body["markets"].([]any)
	require.Len(t, markets, 1)
	m := markets[0].(map[string]any)
	assert.Equal(t, "m1", m["id"])
	assert.Equal(t, "YES", m["prediction"].(map[string]any)["pick"])
}

func TestListMarkets_Defaults(t *testing.T) {
	fake := &fakeMarkets{}
	h := NewMarketHandler(fake, discardLogger())

	rec := httptest.NewRecorder()
	h.ListMarkets(rec, httptest.NewRequest(http.MethodGet, "/api/markets?sport=all&status=all&limit=9999", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.MarketQuery{Sport: domain.SportAll, Limit: maxLimit}, fake.got)
	body := decode(t, rec)
	assert.Equal(t, 0.0, body["count"])
	assert.Equal(t, []any{}, body["markets"], "empty list, not null")

	h.ListMarkets(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/markets", nil))
	assert.Equal(t, defaultLimit, fake.got.Limit)
}

func TestListMarkets_BadParams(t *testing.T) {
	h := NewMarketHandler(&fakeMarkets{}, discardLogger())

	for _, qs := range []string{"limit=abc", "limit=-1", "offset=x", "status=pending", "sport=curling"} {
		t.Run(qs, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ListMarkets(rec, httptest.NewRequest(http.MethodGet, "/api/markets?"+qs, nil))
			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, []any{}, body["markets"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

type fakePredictions struct {
	got service.PredictionQuery
}

func (f *fakePredictions) List(_ context.Context, q service.PredictionQuery) service.PredictionResult {
	f.got = q
	preds := []domain.Prediction{{ID: "p1", MarketID: "m1", PredictedOutcome: domain.OutcomeYes, HybridConf: 0.7}}
	return service.PredictionResult{Predictions: preds, Stats: predict.Summarize(preds), Source: service.SourceMock}
}

func TestListPredictions(t *testing.T) {
	fake := &fakePredictions{}
	h := NewPredictionHandler(fake, discardLogger())

	rec := httptest.NewRecorder()
	h.ListPredictions(rec, httptest.NewRequest(http.MethodGet, "/api/predictions?sport=nfl&limit=5&resolved=false&mock=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.SportNFL, fake.got.Sport)
	assert.Equal(t, 5, fake.got.Limit)
	assert.True(t, fake.got.Mock)
	require.NotNil(t, fake.got.Resolved)
	assert.False(t, *fake.got.Resolved)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "mock", body["source"])
	assert.Len(t, body["predictions"], 1)
	assert.Equal(t, 1.0, body["stats"].(map[string]any)["total"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestListPredictions_BadParams(t *testing.T) {
	h := NewPredictionHandler(&fakePredictions{}, discardLogger())

	for _, qs := range []string{"resolved=maybe", "mock=2", "limit=0", "sport=curling"} {
		t.Run(qs, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ListPredictions(rec, httptest.NewRequest(http.MethodGet, "/api/predictions?"+qs, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, decode(t, rec)["success"])
		})
	}
}

func TestParseSport(t *testing.T) {
	tests := []struct {
		qs   string
		want domain.SportCategory
	}{
		{"", domain.SportAll},
		{"sport=all", domain.SportAll},
		{"sport=NBA", domain.SportNBA},
		{"sport=%20ncaa%20", domain.SportNCAA},
	}
	for _, tt := range tests {
		t.Run(tt.qs, func(t *testing.T) {
			got, err := parseSport(httptest.NewRequest(http.MethodGet, "/?"+tt.qs, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseSport(httptest.NewRequest(http.MethodGet, "/?sport=curling", nil))
	assert.EqualError(t, err, `invalid sport "curling"`)
}

type fakeAccuracy struct {
	rep service.AccuracyReport
	err error
}

func (f fakeAccuracy) Report(context.Context) (service.AccuracyReport, error) {
	return f.rep, f.err
}

func TestGetAccuracy(t *testing.T) {
	h := NewAccuracyHandler(fakeAccuracy{rep: service.AccuracyReport{
		Live:   service.LiveAccuracy{Total: 4, Correct: 3, Accuracy: 0.75},
		Models: []domain.ModelMetrics{{ModelType: domain.ModelHybrid, Total: 4, Correct: 3}},
	}}, discardLogger())

	rec := httptest.NewRecorder()
	h.GetAccuracy(rec, httptest.NewRequest(http.MethodGet, "/api/accuracy", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body, "training")
	assert.Nil(t, body["training"])
	assert.Equal(t, 0.75, body["live"].(map[string]any)["accuracy"])
	assert.Len(t, body["models"], 1)
}

func TestGetAccuracy_Error(t *testing.T) {
	h := NewAccuracyHandler(fakeAccuracy{err: fmt.Errorf("accuracy_service: %w", domain.ErrUnavailable)}, discardLogger())
	rec := httptest.NewRecorder()
	h.GetAccuracy(rec, httptest.NewRequest(http.MethodGet, "/api/accuracy", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler(map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}, discardLogger())

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "degraded", body["status"])
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "ok", deps["postgres"])
	assert.Equal(t, "connection refused", deps["redis"])

	rec = httptest.NewRecorder()
	NewHealthHandler(nil, discardLogger()).HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

type fakeRefresher struct {
	triggered int
}

func (f *fakeRefresher) Trigger() bool {
	f.triggered++
	return f.triggered == 1
}

func (f *fakeRefresher) Status() pipeline.RefreshStatus {
	return pipeline.RefreshStatus{Runs: 3}
}

type fakeJobs []string

func (f fakeJobs) Jobs() []string { return f }

type fakeClients int

func (f fakeClients) Clients() int { return int(f) }

func TestTriggerRefresh(t *testing.T) {
	fake := &fakeRefresher{}
	h := NewRefreshHandler(fake, discardLogger())

	rec := httptest.NewRecorder()
	h.TriggerRefresh(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, true, decode(t, rec)["queued"])

	rec = httptest.NewRecorder()
	h.TriggerRefresh(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, false, decode(t, rec)["queued"])

	rec = httptest.NewRecorder()
	NewRefreshHandler(nil, discardLogger()).TriggerRefresh(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetStatus(t *testing.T) {
	h := NewStatusHandler("full", "dev", &fakeRefresher{}, fakeJobs{"generate", "score"}, fakeClients(2))

	rec := httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "full", body["mode"])
	assert.Equal(t, []any{"generate", "score"}, body["jobs"])
	assert.Equal(t, 2.0, body["ws_clients"])
	assert.Contains(t, body, "refresher")

	rec = httptest.NewRecorder()
	NewStatusHandler("server", "dev", nil, nil, nil).GetStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.NotContains(t, decode(t, rec), "jobs")
}
