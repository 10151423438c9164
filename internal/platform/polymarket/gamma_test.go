package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

func TestGetEvents_QueryAndDecode(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{
			"id": "ev1",
			"title": "Lakers vs Celtics",
			"closed": "false",
			"volume": "1234.5",
			"liquidity": 99,
			"series": [{"slug": "nba-2025"}],
			"tags": [{"id": "1", "label": "NBA", "slug": "nba"}],
			"markets": [{
				"id": "m1",
				"question": "Will the Lakers win?",
				"outcomes": "[\"Yes\",\"No\"]",
				"outcomePrices": "[\"0.6\",\"0.4\"]",
				"clobTokenIds": "[\"t1\",\"t2\"]",
				"volume": "",
				"closed": false
			}]
		}]`))
	}))
	defer server.Close()

	closed := false
	client := NewGammaClient(server.URL, WithRateLimit(0, 0))
	events, err := client.GetEvents(context.Background(), EventsQuery{
		Limit: 100, Offset: 200, Closed: &closed, TagSlug: "sports",
	})
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, "100", gotQuery["limit"])
	assert.Equal(t, "200", gotQuery["offset"])
	assert.Equal(t, "false", gotQuery["closed"])
	assert.Equal(t, "sports", gotQuery["tag_slug"])
	_, hasActive := gotQuery["active"]
	assert.False(t, hasActive)

	ev := events[0]
	assert.Equal(t, 1234.5, ev.Volume.Float64())
	assert.Equal(t, 99.0, ev.Liquidity.Float64())
	assert.False(t, bool(ev.Closed))
	assert.Equal(t, "nba-2025", ev.SeriesSlugOrEmpty())
	assert.Equal(t, []string{"nba", "NBA"}, ev.TagValues())
	require.Len(t, ev.Markets, 1)
	assert.Equal(t, `["Yes","No"]`, ev.Markets[0].Outcomes)
	assert.Zero(t, ev.Markets[0].Volume.Float64())
}

func TestGetEvents_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, domain.ErrRateLimited},
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusForbidden, domain.ErrUnauthorized},
		{http.StatusBadGateway, domain.ErrUnavailable},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		client := NewGammaClient(server.URL, WithRateLimit(0, 0))
		_, err := client.GetEvents(context.Background(), EventsQuery{Limit: 1})
		server.Close()

		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: got %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestGetMarket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets/abc", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "abc",
			"closed":        true,
			"outcomes":      `["Yes","No"]`,
			"outcomePrices": `["1","0"]`,
		})
	}))
	defer server.Close()

	m, err := NewGammaClient(server.URL).GetMarket(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, bool(m.Closed))
	assert.Equal(t, `["1","0"]`, m.OutcomePrices)
}

func TestJSONFloat_Lenient(t *testing.T) {
	var v struct {
		A JSONFloat `json:"a"`
		B JSONFloat `json:"b"`
		C JSONFloat `json:"c"`
		D JSONFloat `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 1.5, "b": "2.25", "c": "n/a", "d": null}`), &v))
	assert.Equal(t, 1.5, v.A.Float64())
	assert.Equal(t, 2.25, v.B.Float64())
	assert.Zero(t, v.C.Float64())
	assert.Zero(t, v.D.Float64())
}

func TestNewGammaClient_Timeout(t *testing.T) {
	assert.Equal(t, defaultTimeout, NewGammaClient("").httpClient.Timeout)
	assert.Equal(t, 5*time.Second, NewGammaClient("", WithTimeout(5*time.Second)).httpClient.Timeout)
	assert.Equal(t, defaultTimeout, NewGammaClient("", WithTimeout(0)).httpClient.Timeout)

	shared := &http.Client{Timeout: time.Minute}
	for name, opts := range map[string][]GammaOption{
		"timeout first": {WithTimeout(time.Second), WithHTTPClient(shared)},
		"timeout last":  {WithHTTPClient(shared), WithTimeout(time.Second)},
	} {
		t.Run(name, func(t *testing.T) {
			g := NewGammaClient("", opts...)
			assert.Same(t, shared, g.httpClient)
			assert.Equal(t, time.Minute, shared.Timeout)
		})
	}
}
