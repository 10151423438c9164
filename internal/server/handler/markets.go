package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/sportspulse/internal/domain"
	"github.com/alanyoungcy/sportspulse/internal/service"
)

// MarketLister is the subset of service.MarketService used here.
type MarketLister interface {
	ListMarkets(ctx context.Context, q domain.MarketQuery) []service.MarketView
}

// MarketHandler serves normalized sports markets.
type MarketHandler struct {
	markets MarketLister
	logger  *slog.Logger
}

func NewMarketHandler(markets MarketLister, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		markets: markets,
		logger:  logger.With(slog.String("handler", "markets")),
	}
}

type marketsResponse struct {
	Success   bool                 `json:"success"`
	Count     int                  `json:"count"`
	Markets   []service.MarketView `json:"markets"`
	Timestamp string               `json:"timestamp"`
	Error     string               `json:"error,omitempty"`
}

// ListMarkets returns markets filtered by sport and status.
// GET /api/markets?sport=&status=&limit=&offset=
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	q, err := parseMarketQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, marketsResponse{
			Markets:   []service.MarketView{},
			Timestamp: timestamp(),
			Error:     err.Error(),
		})
		return
	}

	markets := h.markets.ListMarkets(r.Context(), q)
	writeJSON(w, http.StatusOK, marketsResponse{
		Success:   true,
		Count:     len(markets),
		Markets:   markets,
		Timestamp: timestamp(),
	})
}

func parseMarketQuery(r *http.Request) (domain.MarketQuery, error) {
	limit, err := parseLimit(r)
	if err != nil {
		return domain.MarketQuery{}, err
	}
	offset, err := parseOffset(r)
	if err != nil {
		return domain.MarketQuery{}, err
	}
	sport, err := parseSport(r)
	if err != nil {
		return domain.MarketQuery{}, err
	}
	q := domain.MarketQuery{
		Sport:  sport,
		Limit:  limit,
		Offset: offset,
	}
	if raw := r.URL.Query().Get("status"); raw != "" && raw != "all" {
		st, ok := domain.ParseStatus(raw)
		if !ok {
			return domain.MarketQuery{}, fmt.Errorf("invalid status %q", raw)
		}
		q.Status = st
	}
	return q, nil
}
