package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/sportspulse/internal/domain"
	"github.com/alanyoungcy/sportspulse/internal/predict"
)

// TrainingSource loads the offline training summary.
type TrainingSource interface {
	Load(ctx context.Context) (domain.TrainingMetrics, error)
}

// LiveAccuracy summarizes scored predictions over the last 30 days.
type LiveAccuracy struct {
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Pending  int     `json:"pending"`
	Accuracy float64 `json:"accuracy"`
}

// AccuracyReport combines training, live and per-model accuracy.
type AccuracyReport struct {
	Training *domain.TrainingMetrics `json:"training"`
	Live     LiveAccuracy            `json:"live"`
	Models   []domain.ModelMetrics   `json:"models"`
}

// AccuracyService reports model accuracy. training and metrics may be nil.
type AccuracyService struct {
	preds    domain.PredictionStore
	metrics  domain.MetricsStore
	training TrainingSource
	now      func() time.Time
	logger   *slog.Logger
}

func NewAccuracyService(preds domain.PredictionStore, metrics domain.MetricsStore, training TrainingSource, logger *slog.Logger) *AccuracyService {
	return &AccuracyService{
		preds:    preds,
		metrics:  metrics,
		training: training,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "accuracy_service")),
	}
}

// Report builds the accuracy report. Missing training metrics are not an
// error; stored per-model metrics are computed on the fly when absent.
func (s *AccuracyService) Report(ctx context.Context) (AccuracyReport, error) {
	var rep AccuracyReport

	if s.training != nil {
		tm, err := s.training.Load(ctx)
		switch {
		case err == nil:
			rep.Training = &tm
		case errors.Is(err, domain.ErrNotFound):
		default:
			s.logger.WarnContext(ctx, "training metrics unavailable", slog.String("error", err.Error()))
		}
	}

	if s.preds == nil {
		rep.Models = []domain.ModelMetrics{}
		return rep, nil
	}

	now := s.now().UTC()
	resolved, err := s.preds.ListResolvedSince(ctx, now.Add(-30*24*time.Hour))
	if err != nil {
		return rep, fmt.Errorf("accuracy_service: list resolved: %w", err)
	}
	pending, err := s.preds.ListPending(ctx, 0)
	if err != nil {
		return rep, fmt.Errorf("accuracy_service: list pending: %w", err)
	}

	st := predict.Summarize(resolved)
	rep.Live = LiveAccuracy{
		Total:    st.Resolved,
		Correct:  st.Correct,
		Pending:  len(pending),
		Accuracy: st.Accuracy,
	}

	if s.metrics != nil {
		rep.Models, err = s.metrics.List(ctx)
		if err != nil {
			return rep, fmt.Errorf("accuracy_service: list metrics: %w", err)
		}
	}
	if len(rep.Models) == 0 {
		rep.Models = predict.ComputeMetrics(resolved, now)
	}
	return rep, nil
}
