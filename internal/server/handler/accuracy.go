package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/sportspulse/internal/service"
)

// AccuracyReporter is the subset of service.AccuracyService used here.
type AccuracyReporter interface {
	Report(ctx context.Context) (service.AccuracyReport, error)
}

// AccuracyHandler serves training, live and per-model accuracy.
type AccuracyHandler struct {
	accuracy AccuracyReporter
	logger   *slog.Logger
}

func NewAccuracyHandler(accuracy AccuracyReporter, logger *slog.Logger) *AccuracyHandler {
	return &AccuracyHandler{
		accuracy: accuracy,
		logger:   logger.With(slog.String("handler", "accuracy")),
	}
}

type accuracyResponse struct {
	Success bool `json:"success"`
	service.AccuracyReport
	Timestamp string `json:"timestamp"`
}

// GetAccuracy responds with the accuracy report.
// GET /api/accuracy
func (h *AccuracyHandler) GetAccuracy(w http.ResponseWriter, r *http.Request) {
	rep, err := h.accuracy.Report(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "accuracy report failed", slog.String("error", err.Error()))
		writeError(w, statusFor(err), "accuracy unavailable")
		return
	}
	writeJSON(w, http.StatusOK, accuracyResponse{
		Success:        true,
		AccuracyReport: rep,
		Timestamp:      timestamp(),
	})
}
