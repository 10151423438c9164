// Package predict derives display picks from market prices, generates and
// scores stored predictions, and computes per-model accuracy.
package predict

import "github.com/alanyoungcy/sportspulse/internal/domain"

// Derive picks the higher-priced side of a binary market and reports that
// price as the confidence. NO is chosen only when its price is strictly
// greater, so an exact tie picks YES.
func Derive(yesPrice, noPrice float64) domain.Pick {
	if noPrice > yesPrice {
		return domain.Pick{Pick: domain.PickNo, Confidence: noPrice}
	}
	return domain.Pick{Pick: domain.PickYes, Confidence: yesPrice}
}

// FromMarket derives the pick for a binary market. It returns false for
// markets without exactly two outcomes.
func FromMarket(m domain.Market) (domain.Pick, bool) {
	yes, no, ok := m.YesNoPrices()
	if !ok {
		return domain.Pick{}, false
	}
	return Derive(yes, no), true
}
