package handler

import (
	"log/slog"
	"net/http"
)

// Triggerer requests an early market refresh.
type Triggerer interface {
	Trigger() bool
}

// RefreshHandler lets operators force a market refresh.
type RefreshHandler struct {
	refresher Triggerer
	logger    *slog.Logger
}

func NewRefreshHandler(refresher Triggerer, logger *slog.Logger) *RefreshHandler {
	return &RefreshHandler{
		refresher: refresher,
		logger:    logger.With(slog.String("handler", "refresh")),
	}
}

// TriggerRefresh queues a refresh. A refresh already queued is not an error.
// POST /api/refresh
func (h *RefreshHandler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "refresher not running")
		return
	}
	queued := h.refresher.Trigger()
	h.logger.InfoContext(r.Context(), "refresh requested", slog.Bool("queued", queued))
	writeJSON(w, http.StatusAccepted, map[string]any{
		"success":   true,
		"queued":    queued,
		"timestamp": timestamp(),
	})
}
