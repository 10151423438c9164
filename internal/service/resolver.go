package service

import (
	"context"

	"github.com/alanyoungcy/sportspulse/internal/domain"
	"github.com/alanyoungcy/sportspulse/internal/normalize"
	"github.com/alanyoungcy/sportspulse/internal/platform/polymarket"
)

// MarketGetter fetches a single raw market.
type MarketGetter interface {
	GetMarket(ctx context.Context, id string) (polymarket.APIMarket, error)
}

// GammaResolver reports market outcomes for scoring straight from Gamma,
// bypassing the snapshot cache.
type GammaResolver struct {
	gamma MarketGetter
}

func NewGammaResolver(gamma MarketGetter) *GammaResolver {
	return &GammaResolver{gamma: gamma}
}

// MarketOutcomes returns the parsed outcomes and the closed flag.
func (r *GammaResolver) MarketOutcomes(ctx context.Context, marketID string) ([]domain.Outcome, bool, error) {
	m, err := r.gamma.GetMarket(ctx, marketID)
	if err != nil {
		return nil, false, err
	}
	return normalize.ParseOutcomes(m.Outcomes, m.OutcomePrices, m.ClobTokenIDs), bool(m.Closed), nil
}
