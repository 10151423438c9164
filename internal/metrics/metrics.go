// Package metrics exposes the service's Prometheus collectors on a private
// registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the service updates. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FetchPages      *prometheus.CounterVec
	MarketsFetched  prometheus.Gauge
	CacheLookups    *prometheus.CounterVec
	RefreshRuns     *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	JobRuns         *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	WSClients       prometheus.Gauge
}

// New creates the collectors and registers them with Go runtime and process
// collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		FetchPages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sportspulse_fetch_pages_total",
				Help: "Gamma event pages requested, by result",
			},
			[]string{"result"},
		),
		MarketsFetched: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sportspulse_markets_fetched",
			Help: "Normalized markets returned by the last upstream fetch",
		}),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sportspulse_cache_lookups_total",
				Help: "Snapshot cache lookups, by result",
			},
			[]string{"result"},
		),
		RefreshRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sportspulse_refresh_runs_total",
				Help: "Background refresh cycles, by result",
			},
			[]string{"result"},
		),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sportspulse_refresh_duration_seconds",
			Help:    "Duration of background refresh cycles",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		JobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sportspulse_job_runs_total",
				Help: "Scheduled job executions, by job and result",
			},
			[]string{"job", "result"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sportspulse_http_requests_total",
				Help: "HTTP requests served",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sportspulse_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sportspulse_ws_clients",
			Help: "Connected websocket clients",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.FetchPages,
		m.MarketsFetched,
		m.CacheLookups,
		m.RefreshRuns,
		m.RefreshDuration,
		m.JobRuns,
		m.HTTPRequests,
		m.HTTPDuration,
		m.WSClients,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObservePage(ok bool) {
	if m == nil {
		return
	}
	m.FetchPages.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) ObserveFetched(n int) {
	if m == nil {
		return
	}
	m.MarketsFetched.Set(float64(n))
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	label := "miss"
	if hit {
		label = "hit"
	}
	m.CacheLookups.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveRefresh(ok bool, d time.Duration) {
	if m == nil {
		return
	}
	m.RefreshRuns.WithLabelValues(result(ok)).Inc()
	m.RefreshDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveJob(job string, ok bool) {
	if m == nil {
		return
	}
	m.JobRuns.WithLabelValues(job, result(ok)).Inc()
}

func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, statusClass(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) SetWSClients(n int) {
	if m == nil {
		return
	}
	m.WSClients.Set(float64(n))
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
