package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/sportspulse/internal/domain"
	"github.com/alanyoungcy/sportspulse/internal/predict"
)

// Job names.
const (
	JobGenerate = "generate"
	JobScore    = "score"
	JobArchive  = "archive"
)

// MarketSource answers market queries.
type MarketSource interface {
	FetchMarkets(ctx context.Context, q domain.MarketQuery) []domain.Market
}

// PredictionScorer scores pending predictions and refreshes model metrics.
type PredictionScorer interface {
	ScorePending(ctx context.Context, limit int) (domain.ScoreReport, error)
	UpdateMetrics(ctx context.Context) ([]domain.ModelMetrics, error)
}

// GenerateJob stores a prediction for every open binary market that does
// not already have a pending one.
func GenerateJob(spec string, markets MarketSource, store domain.PredictionStore, gen *predict.Generator, bus Publisher, logger *slog.Logger) Job {
	return Job{
		Name:      JobGenerate,
		Spec:      spec,
		Exclusive: true,
		Timeout:   5 * time.Minute,
		Run: func(ctx context.Context) error {
			open := markets.FetchMarkets(ctx, domain.MarketQuery{Sport: domain.SportAll})

			skip, err := store.PendingMarketIDs(ctx)
			if err != nil {
				return fmt.Errorf("pending market ids: %w", err)
			}

			preds := gen.Generate(open, skip)
			if len(preds) == 0 {
				logger.DebugContext(ctx, "no new predictions", slog.Int("markets", len(open)))
				return nil
			}
			if err := store.InsertBatch(ctx, preds); err != nil {
				return fmt.Errorf("insert predictions: %w", err)
			}

			logger.InfoContext(ctx, "predictions generated",
				slog.Int("markets", len(open)),
				slog.Int("created", len(preds)),
			)
			if bus != nil {
				bus.Publish(ctx, domain.Event{
					Topic:   domain.TopicPredictionsMade,
					Message: fmt.Sprintf("%d new predictions", len(preds)),
					Data:    map[string]any{"created": len(preds)},
				})
			}
			return nil
		},
	}
}

// ScoreJob resolves up to limit pending predictions and then recomputes
// per-model accuracy.
func ScoreJob(spec string, limit int, scorer PredictionScorer, bus Publisher, logger *slog.Logger) Job {
	return Job{
		Name:      JobScore,
		Spec:      spec,
		Exclusive: true,
		Timeout:   10 * time.Minute,
		Run: func(ctx context.Context) error {
			report, err := scorer.ScorePending(ctx, limit)
			if err != nil {
				return err
			}
			metrics, err := scorer.UpdateMetrics(ctx)
			if err != nil {
				return err
			}

			if bus != nil && report.Scored > 0 {
				data := map[string]any{
					"scored":       report.Scored,
					"correct":      report.Correct,
					"wrong":        report.Wrong,
					"stillPending": report.StillPending,
				}
				for _, m := range metrics {
					data["accuracy7d."+string(m.ModelType)] = m.Accuracy7d
				}
				bus.Publish(ctx, domain.Event{
					Topic:   domain.TopicPredictionsScored,
					Message: fmt.Sprintf("scored %d predictions (%d correct)", report.Scored, report.Correct),
					Data:    data,
				})
			}
			logger.DebugContext(ctx, "model metrics updated", slog.Int("models", len(metrics)))
			return nil
		},
	}
}
