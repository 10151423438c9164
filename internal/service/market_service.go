// Package service composes the pipeline, stores and prediction logic into
// the operations the HTTP handlers expose.
package service

import (
	"context"
	"log/slog"

	"github.com/alanyoungcy/sportspulse/internal/domain"
	"github.com/alanyoungcy/sportspulse/internal/predict"
)

// MarketSource answers market queries, typically through the snapshot
// cache.
type MarketSource interface {
	FetchMarkets(ctx context.Context, q domain.MarketQuery) []domain.Market
}

// MarketView is a market together with its derived pick. Pick is nil for
// markets that are not binary.
type MarketView struct {
	domain.Market
	Prediction *domain.Pick `json:"prediction,omitempty"`
}

// MarketService lists normalized markets.
type MarketService struct {
	source MarketSource
	logger *slog.Logger
}

// NewMarketService creates a MarketService.
func NewMarketService(source MarketSource, logger *slog.Logger) *MarketService {
	return &MarketService{
		source: source,
		logger: logger.With(slog.String("component", "market_service")),
	}
}

// ListMarkets returns the markets matching q, each with its derived pick.
// Upstream failures surface as an empty list.
func (s *MarketService) ListMarkets(ctx context.Context, q domain.MarketQuery) []MarketView {
	markets := s.source.FetchMarkets(ctx, q)
	out := make([]MarketView, 0, len(markets))
	for _, m := range markets {
		v := MarketView{Market: m}
		if pick, ok := predict.FromMarket(m); ok {
			v.Prediction = &pick
		}
		out = append(out, v)
	}
	s.logger.DebugContext(ctx, "markets listed",
		slog.String("sport", string(q.Sport)),
		slog.Int("count", len(out)),
	)
	return out
}
