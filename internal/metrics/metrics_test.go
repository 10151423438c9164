package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePage(true)
		m.ObserveCache(false)
		m.ObserveRefresh(true, time.Second)
		m.ObserveJob("score", false)
		m.ObserveHTTP(http.MethodGet, "/api/markets", 200, time.Millisecond)
		m.SetWSClients(3)
	})
}

func TestCounters(t *testing.T) {
	m := New()
	m.ObservePage(true)
	m.ObservePage(false)
	m.ObservePage(false)
	m.ObserveCache(true)
	m.ObserveHTTP(http.MethodGet, "/api/markets", 503, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchPages.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchPages.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/markets", "5xx")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveFetched(42)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sportspulse_markets_fetched 42")
}
