package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/sportspulse/internal/domain"
	"github.com/alanyoungcy/sportspulse/internal/predict"
)

// Where a prediction listing came from.
const (
	SourceDatabase = "database"
	SourceMock     = "mock"
	SourceLive     = "live"
)

// PredictionQuery selects predictions for display.
type PredictionQuery struct {
	Sport    domain.SportCategory
	Limit    int
	Resolved *bool
	Mock     bool
}

// PredictionResult is a listing with summary statistics.
type PredictionResult struct {
	Predictions []domain.Prediction
	Stats       predict.Stats
	Source      string
}

// PredictionService lists stored predictions. When the store is missing,
// failing or empty it derives live predictions from current markets instead.
type PredictionService struct {
	store    domain.PredictionStore
	markets  MarketSource
	gen      *predict.Generator
	mockSeed uint64
	now      func() time.Time
	logger   *slog.Logger
}

// NewPredictionService creates a PredictionService. store may be nil.
func NewPredictionService(store domain.PredictionStore, markets MarketSource, mockSeed uint64, logger *slog.Logger) *PredictionService {
	return &PredictionService{
		store:    store,
		markets:  markets,
		gen:      predict.NewGenerator(),
		mockSeed: mockSeed,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "prediction_service")),
	}
}

// List returns predictions for q.
func (s *PredictionService) List(ctx context.Context, q PredictionQuery) PredictionResult {
	if q.Sport == "" {
		q.Sport = domain.SportAll
	}

	if q.Mock {
		preds := filterResolved(predict.Mock(q.Limit, q.Sport, s.mockSeed, s.now()), q.Resolved)
		return result(preds, SourceMock)
	}

	if s.store != nil {
		preds, err := s.store.List(ctx, domain.PredictionFilter{Sport: q.Sport, Resolved: q.Resolved, Limit: q.Limit})
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "prediction store unavailable, deriving live",
				slog.String("error", err.Error()),
			)
		case len(preds) > 0:
			return result(preds, SourceDatabase)
		}
	}

	// Live predictions are never resolved.
	if q.Resolved != nil && *q.Resolved {
		return result(nil, SourceLive)
	}
	markets := s.markets.FetchMarkets(ctx, domain.MarketQuery{Sport: q.Sport})
	preds := s.gen.Generate(markets, nil)
	if q.Limit > 0 && len(preds) > q.Limit {
		preds = preds[:q.Limit]
	}
	return result(preds, SourceLive)
}

func result(preds []domain.Prediction, source string) PredictionResult {
	if preds == nil {
		preds = []domain.Prediction{}
	}
	return PredictionResult{Predictions: preds, Stats: predict.Summarize(preds), Source: source}
}

func filterResolved(preds []domain.Prediction, resolved *bool) []domain.Prediction {
	if resolved == nil {
		return preds
	}
	out := preds[:0]
	for _, p := range preds {
		if p.Resolved() == *resolved {
			out = append(out, p)
		}
	}
	return out
}
