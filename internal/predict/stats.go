package predict

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

// Stats summarizes a list of predictions for API responses.
type Stats struct {
	Total         int     `json:"total"`
	Resolved      int     `json:"resolved"`
	Pending       int     `json:"pending"`
	Correct       int     `json:"correct"`
	Accuracy      float64 `json:"accuracy"`
	AvgConfidence float64 `json:"avgConfidence"`
}

// Summarize computes Stats over preds. Accuracy is over resolved predictions
// only; average confidence is the mean hybrid confidence.
func Summarize(preds []domain.Prediction) Stats {
	st := Stats{Total: len(preds)}
	confSum := decimal.Zero
	for _, p := range preds {
		confSum = confSum.Add(decimal.NewFromFloat(p.HybridConf))
		if !p.Resolved() {
			st.Pending++
			continue
		}
		st.Resolved++
		if p.IsCorrect != nil && *p.IsCorrect {
			st.Correct++
		}
	}
	st.Accuracy = ratio(st.Correct, st.Resolved)
	if st.Total > 0 {
		st.AvgConfidence = confSum.Div(decimal.NewFromInt(int64(st.Total))).Round(4).InexactFloat64()
	}
	return st
}

// ComputeMetrics returns accuracy for every tracked model over resolved
// predictions. A model backs Yes when its confidence is above one half and
// scores when that matches the actual outcome. Total and Correct cover the
// 30 day window.
func ComputeMetrics(resolved []domain.Prediction, now time.Time) []domain.ModelMetrics {
	since7 := now.Add(-7 * 24 * time.Hour)
	since30 := now.Add(-30 * 24 * time.Hour)

	out := make([]domain.ModelMetrics, 0, len(domain.AllModels))
	for _, model := range domain.AllModels {
		var total7, correct7, total30, correct30 int
		for _, p := range resolved {
			if p.ActualOutcome == nil || p.ResolvedAt == nil || p.ResolvedAt.Before(since30) {
				continue
			}
			hit := ModelPick(p.Confidence(model)) == *p.ActualOutcome
			total30++
			if hit {
				correct30++
			}
			if !p.ResolvedAt.Before(since7) {
				total7++
				if hit {
					correct7++
				}
			}
		}
		out = append(out, domain.ModelMetrics{
			ModelType:   model,
			Accuracy7d:  ratio(correct7, total7),
			Accuracy30d: ratio(correct30, total30),
			Total:       total30,
			Correct:     correct30,
			UpdatedAt:   now,
		})
	}
	return out
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(num)).Div(decimal.NewFromInt(int64(den))).Round(4).InexactFloat64()
}

func round(f float64, places int32) float64 {
	return decimal.NewFromFloat(f).Round(places).InexactFloat64()
}
