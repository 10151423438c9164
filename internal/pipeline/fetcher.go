// Package pipeline ingests markets from Gamma into the snapshot cache and
// runs the background refresh loop and scheduled prediction jobs.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/sportspulse/internal/cache"
	"github.com/alanyoungcy/sportspulse/internal/domain"
	"github.com/alanyoungcy/sportspulse/internal/metrics"
	"github.com/alanyoungcy/sportspulse/internal/normalize"
	"github.com/alanyoungcy/sportspulse/internal/platform/polymarket"
)

const (
	DefaultPages    = 3
	DefaultPageSize = 100
	DefaultTagSlug  = "sports"
)

// EventSource returns one page of Gamma events.
type EventSource interface {
	GetEvents(ctx context.Context, q polymarket.EventsQuery) ([]polymarket.APIEvent, error)
}

// FetcherConfig sizes the upstream window.
type FetcherConfig struct {
	Pages    int
	PageSize int
	TagSlug  string
}

// Fetcher reads a fixed window of Gamma event pages, normalizes the markets
// and serves query results through the snapshot cache.
type Fetcher struct {
	source  EventSource
	cache   domain.SnapshotCache
	cfg     FetcherConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewFetcher creates a Fetcher. Zero config fields take the defaults; m may
// be nil.
func NewFetcher(source EventSource, c domain.SnapshotCache, cfg FetcherConfig, m *metrics.Metrics, logger *slog.Logger) *Fetcher {
	if cfg.Pages <= 0 {
		cfg.Pages = DefaultPages
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	return &Fetcher{
		source:  source,
		cache:   c,
		cfg:     cfg,
		metrics: m,
		logger:  logger.With(slog.String("component", "fetcher")),
		now:     time.Now,
	}
}

// FetchMarkets answers q from the cache, fetching and caching on a miss. It
// never fails: upstream problems are logged and yield fewer (or no) markets.
// A window where every page failed is not cached.
func (f *Fetcher) FetchMarkets(ctx context.Context, q domain.MarketQuery) []domain.Market {
	q = normalizeQuery(q)
	key := cache.Key(q)

	if cached, ok := f.cache.Get(ctx, key); ok {
		f.metrics.ObserveCache(true)
		return cached
	}
	f.metrics.ObserveCache(false)

	w := f.fetchWindow(ctx, q.Status == domain.MarketStatusClosed)
	out := Select(w.markets, q)
	if !w.failed() {
		f.cache.Set(ctx, key, out)
	}
	return out
}

// RefreshResult summarizes one cache refresh.
type RefreshResult struct {
	Markets     int
	Queries     int
	FailedPages int
}

// Refresh bypasses the cache: it fetches the upstream window once per
// open/closed variant needed by queries and overwrites each query's entry.
// It fails only when an entire window failed, leaving those entries intact.
func (f *Fetcher) Refresh(ctx context.Context, queries []domain.MarketQuery) (RefreshResult, error) {
	var res RefreshResult
	windows := make(map[bool]window, 2)

	for _, q := range queries {
		q = normalizeQuery(q)
		closed := q.Status == domain.MarketStatusClosed

		w, ok := windows[closed]
		if !ok {
			w = f.fetchWindow(ctx, closed)
			windows[closed] = w
			res.Markets += len(w.markets)
			res.FailedPages += w.failedPages
		}
		if w.failed() {
			continue
		}
		f.cache.Set(ctx, cache.Key(q), Select(w.markets, q))
		res.Queries++
	}

	for closed, w := range windows {
		if w.failed() {
			return res, fmt.Errorf("pipeline: refresh window closed=%t: all %d pages failed: %w",
				closed, w.pages, domain.ErrUnavailable)
		}
	}
	return res, nil
}

type window struct {
	markets     []domain.Market
	pages       int
	failedPages int
}

func (w window) failed() bool {
	return w.pages > 0 && w.failedPages == w.pages
}

// fetchWindow requests every page of the window. A failed page contributes
// nothing and the remaining pages are still requested. An empty page ends
// the window early.
func (f *Fetcher) fetchWindow(ctx context.Context, closed bool) window {
	var w window
	seen := make(map[string]bool)
	now := f.now()

	eq := polymarket.EventsQuery{Limit: f.cfg.PageSize, TagSlug: f.cfg.TagSlug, Closed: &closed}
	if !closed {
		active := true
		eq.Active = &active
	}

	for page := 0; page < f.cfg.Pages; page++ {
		if ctx.Err() != nil {
			break
		}
		eq.Offset = page * f.cfg.PageSize
		w.pages++

		events, err := f.source.GetEvents(ctx, eq)
		if err != nil {
			w.failedPages++
			f.metrics.ObservePage(false)
			f.logger.WarnContext(ctx, "event page fetch failed",
				slog.Int("offset", eq.Offset),
				slog.String("error", err.Error()),
			)
			continue
		}
		f.metrics.ObservePage(true)

		for i := range events {
			for _, m := range normalize.Event(&events[i], now) {
				if seen[m.ID] {
					continue
				}
				seen[m.ID] = true
				w.markets = append(w.markets, m)
			}
		}
		if len(events) == 0 {
			break
		}
	}

	f.metrics.ObserveFetched(len(w.markets))
	f.logger.DebugContext(ctx, "event window fetched",
		slog.Bool("closed", closed),
		slog.Int("markets", len(w.markets)),
		slog.Int("failed_pages", w.failedPages),
	)
	return w
}

// Select filters markets by sport (unless SportAll) and status (unless
// empty), then applies offset and limit. A non-positive limit returns every
// remaining market.
func Select(markets []domain.Market, q domain.MarketQuery) []domain.Market {
	out := make([]domain.Market, 0, len(markets))
	for _, m := range markets {
		if q.Sport != "" && q.Sport != domain.SportAll && m.Sport != q.Sport {
			continue
		}
		if q.Status != "" && m.Status != q.Status {
			continue
		}
		out = append(out, m)
	}

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return []domain.Market{}
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func normalizeQuery(q domain.MarketQuery) domain.MarketQuery {
	if q.Sport == "" {
		q.Sport = domain.SportAll
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Limit < 0 {
		q.Limit = 0
	}
	return q
}
