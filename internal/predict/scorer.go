package predict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

// MarketResolver reports a market's outcomes and whether the source has
// closed it.
type MarketResolver interface {
	MarketOutcomes(ctx context.Context, marketID string) (outcomes []domain.Outcome, closed bool, err error)
}

// ResolveOutcome returns the winning label of a closed market: the outcome
// priced at exactly 1.0, otherwise the first one priced above 0.95. Binary
// markets map to Yes/No by position unless the outcomes are already named
// Yes and No. Open or undecided markets return false.
func ResolveOutcome(outcomes []domain.Outcome, closed bool) (string, bool) {
	if !closed {
		return "", false
	}
	idx := -1
	for i, o := range outcomes {
		if o.Price == 1.0 {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i, o := range outcomes {
			if o.Price > 0.95 {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return "", false
	}

	switch strings.ToLower(strings.TrimSpace(outcomes[idx].Name)) {
	case "yes":
		return domain.OutcomeYes, true
	case "no":
		return domain.OutcomeNo, true
	}
	if len(outcomes) == 2 {
		if idx == 0 {
			return domain.OutcomeYes, true
		}
		return domain.OutcomeNo, true
	}
	return outcomes[idx].Name, true
}

// Scorer resolves pending predictions against market outcomes and refreshes
// per-model accuracy.
type Scorer struct {
	preds    domain.PredictionStore
	metrics  domain.MetricsStore
	resolver MarketResolver
	logger   *slog.Logger
	now      func() time.Time
}

// NewScorer creates a Scorer.
func NewScorer(preds domain.PredictionStore, metrics domain.MetricsStore, resolver MarketResolver, logger *slog.Logger) *Scorer {
	return &Scorer{
		preds:    preds,
		metrics:  metrics,
		resolver: resolver,
		logger:   logger.With(slog.String("component", "scorer")),
		now:      time.Now,
	}
}

// ScorePending scores up to limit pending predictions. Markets are looked up
// once each. A market that cannot be fetched leaves its predictions pending.
func (s *Scorer) ScorePending(ctx context.Context, limit int) (domain.ScoreReport, error) {
	pending, err := s.preds.ListPending(ctx, limit)
	if err != nil {
		return domain.ScoreReport{}, fmt.Errorf("scorer: list pending: %w", err)
	}

	report := domain.ScoreReport{Total: len(pending)}
	type resolution struct {
		label string
		ok    bool
	}
	seen := make(map[string]resolution)

	for _, p := range pending {
		res, cached := seen[p.MarketID]
		if !cached {
			outcomes, closed, err := s.resolver.MarketOutcomes(ctx, p.MarketID)
			if err != nil {
				if ctx.Err() != nil {
					return report, ctx.Err()
				}
				if !errors.Is(err, domain.ErrNotFound) {
					s.logger.WarnContext(ctx, "market lookup failed",
						slog.String("market_id", p.MarketID),
						slog.String("error", err.Error()),
					)
				}
			} else {
				res.label, res.ok = ResolveOutcome(outcomes, closed)
			}
			seen[p.MarketID] = res
		}

		if !res.ok {
			report.StillPending++
			continue
		}

		correct := strings.EqualFold(p.PredictedOutcome, res.label)
		if err := s.preds.Resolve(ctx, p.ID, res.label, correct, s.now().UTC()); err != nil {
			s.logger.WarnContext(ctx, "resolve prediction failed",
				slog.String("prediction_id", p.ID),
				slog.String("error", err.Error()),
			)
			report.StillPending++
			continue
		}

		report.Scored++
		if correct {
			report.Correct++
		} else {
			report.Wrong++
		}
	}

	s.logger.InfoContext(ctx, "scoring pass complete",
		slog.Int("total", report.Total),
		slog.Int("scored", report.Scored),
		slog.Int("correct", report.Correct),
		slog.Int("still_pending", report.StillPending),
	)
	return report, nil
}

// UpdateMetrics recomputes and stores 7 and 30 day accuracy for every model.
func (s *Scorer) UpdateMetrics(ctx context.Context) ([]domain.ModelMetrics, error) {
	now := s.now().UTC()
	resolved, err := s.preds.ListResolvedSince(ctx, now.Add(-30*24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("scorer: list resolved: %w", err)
	}

	metrics := ComputeMetrics(resolved, now)
	for _, m := range metrics {
		if err := s.metrics.Upsert(ctx, m); err != nil {
			return nil, fmt.Errorf("scorer: store metrics: %w", err)
		}
	}
	return metrics, nil
}
