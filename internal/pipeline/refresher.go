package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alanyoungcy/sportspulse/internal/domain"
	"github.com/alanyoungcy/sportspulse/internal/metrics"
)

// Publisher delivers application events.
type Publisher interface {
	Publish(ctx context.Context, ev domain.Event)
}

// CacheRefresher rewrites cached query results from upstream.
type CacheRefresher interface {
	Refresh(ctx context.Context, queries []domain.MarketQuery) (RefreshResult, error)
}

// RefreshStatus describes the most recent refresh cycle.
type RefreshStatus struct {
	Running     bool      `json:"running"`
	LastRun     time.Time `json:"lastRun,omitempty"`
	LastError   string    `json:"lastError,omitempty"`
	Markets     int       `json:"markets"`
	FailedPages int       `json:"failedPages"`
	Runs        int64     `json:"runs"`
	Skipped     int64     `json:"skipped"`
}

// Refresher keeps the snapshot cache warm for a fixed set of queries. It
// refreshes on start, on every interval tick and whenever Trigger is
// called. A tick that arrives while a refresh is running is skipped.
type Refresher struct {
	source   CacheRefresher
	queries  []domain.MarketQuery
	interval time.Duration
	bus      Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger

	trigger chan struct{}
	running atomic.Bool
	wg      sync.WaitGroup

	mu     sync.Mutex
	status RefreshStatus
}

// NewRefresher creates a Refresher. bus and m may be nil. A non-positive
// interval means one minute.
func NewRefresher(source CacheRefresher, queries []domain.MarketQuery, interval time.Duration, bus Publisher, m *metrics.Metrics, logger *slog.Logger) *Refresher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Refresher{
		source:   source,
		queries:  queries,
		interval: interval,
		bus:      bus,
		metrics:  m,
		logger:   logger.With(slog.String("component", "refresher")),
		trigger:  make(chan struct{}, 1),
	}
}

// Run refreshes until ctx is cancelled, then waits for any in-flight cycle
// to return. No cycle starts after Run returns.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "refresher started",
		slog.Duration("interval", r.interval),
		slog.Int("queries", len(r.queries)),
	)
	defer r.wg.Wait()

	r.start(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped")
			return nil
		case <-ticker.C:
			r.start(ctx)
		case <-r.trigger:
			r.start(ctx)
		}
	}
}

// Trigger requests an early refresh. It returns false when one is already
// queued.
func (r *Refresher) Trigger() bool {
	select {
	case r.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Status returns a snapshot of the latest cycle.
func (r *Refresher) Status() RefreshStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.status
	st.Running = r.running.Load()
	return st
}

func (r *Refresher) start(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !r.running.CompareAndSwap(false, true) {
		r.mu.Lock()
		r.status.Skipped++
		r.mu.Unlock()
		r.logger.DebugContext(ctx, "refresh already running, tick skipped")
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.running.Store(false)
		r.refresh(ctx)
	}()
}

func (r *Refresher) refresh(ctx context.Context) {
	started := time.Now()
	res, err := r.source.Refresh(ctx, r.queries)
	elapsed := time.Since(started)
	r.metrics.ObserveRefresh(err == nil, elapsed)

	r.mu.Lock()
	r.status.LastRun = started.UTC()
	r.status.Markets = res.Markets
	r.status.FailedPages = res.FailedPages
	r.status.Runs++
	r.status.LastError = ""
	if err != nil {
		r.status.LastError = err.Error()
	}
	r.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	if err != nil {
		r.logger.WarnContext(ctx, "refresh failed",
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
		r.publish(ctx, domain.Event{
			Topic:   domain.TopicRefreshFailed,
			Message: "market refresh failed",
			Data:    map[string]any{"error": err.Error(), "failedPages": res.FailedPages},
		})
		return
	}

	r.logger.InfoContext(ctx, "markets refreshed",
		slog.Int("markets", res.Markets),
		slog.Int("queries", res.Queries),
		slog.Int("failed_pages", res.FailedPages),
		slog.Duration("elapsed", elapsed),
	)
	r.publish(ctx, domain.Event{
		Topic:   domain.TopicMarketsRefreshed,
		Message: "markets refreshed",
		Data: map[string]any{
			"markets":     res.Markets,
			"queries":     res.Queries,
			"failedPages": res.FailedPages,
			"durationMs":  elapsed.Milliseconds(),
		},
	})
}

func (r *Refresher) publish(ctx context.Context, ev domain.Event) {
	if r.bus != nil {
		r.bus.Publish(ctx, ev)
	}
}
