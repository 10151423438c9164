package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/sportspulse/internal/domain"
	"github.com/alanyoungcy/sportspulse/internal/predict"
	"github.com/alanyoungcy/sportspulse/internal/service"
)

// PredictionLister is the subset of service.PredictionService used here.
type PredictionLister interface {
	List(ctx context.Context, q service.PredictionQuery) service.PredictionResult
}

// PredictionHandler serves stored, live or mock predictions.
type PredictionHandler struct {
	predictions PredictionLister
	logger      *slog.Logger
}

func NewPredictionHandler(predictions PredictionLister, logger *slog.Logger) *PredictionHandler {
	return &PredictionHandler{
		predictions: predictions,
		logger:      logger.With(slog.String("handler", "predictions")),
	}
}

type predictionsResponse struct {
	Success     bool                `json:"success"`
	Predictions []domain.Prediction `json:"predictions"`
	Stats       predict.Stats       `json:"stats"`
	Source      string              `json:"source"`
	Timestamp   string              `json:"timestamp"`
}

// ListPredictions returns predictions with summary statistics.
// GET /api/predictions?sport=&limit=&resolved=&mock=
func (h *PredictionHandler) ListPredictions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resolved, err := parseBool(r, "resolved")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mock, err := parseBool(r, "mock")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sport, err := parseSport(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := h.predictions.List(r.Context(), service.PredictionQuery{
		Sport:    sport,
		Limit:    limit,
		Resolved: resolved,
		Mock:     mock != nil && *mock,
	})
	writeJSON(w, http.StatusOK, predictionsResponse{
		Success:     true,
		Predictions: res.Predictions,
		Stats:       res.Stats,
		Source:      res.Source,
		Timestamp:   timestamp(),
	})
}
