package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

type failingKV struct{}

func (failingKV) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk on fire") }
func (failingKV) Set(context.Context, string, []byte) error   { return errors.New("disk on fire") }

func sampleMarkets() []domain.Market {
	spread := 5.5
	return []domain.Market{
		{
			ID: "m1", EventID: "e1", Sport: domain.SportNBA, MarketType: domain.MarketTypeSpread,
			Status: domain.MarketStatusUpcoming, Title: "Lakers by more than 5.5 points",
			Outcomes:    []domain.Outcome{{Name: "Yes", Price: 0.4, TokenID: "1"}, {Name: "No", Price: 0.6, TokenID: "2"}},
			SpreadValue: &spread, Volume: 10, Liquidity: 2,
		},
		{ID: "m2", Sport: domain.SportNFL, Outcomes: []domain.Outcome{}},
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "polymarket_sports_cache_nba_all_50_0",
		Key(domain.MarketQuery{Sport: domain.SportNBA, Limit: 50}))
	assert.Equal(t, "polymarket_sports_cache_all_live_100_200",
		Key(domain.MarketQuery{Status: domain.MarketStatusLive, Limit: 100, Offset: 200}))
}

func TestSnapshot_RoundTripWithinTTL(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := NewSnapshot(NewMemoryKV(), discardLogger(), WithClock(clock.Now))
	ctx := context.Background()

	in := sampleMarkets()
	c.Set(ctx, "k", in)

	clock.t = clock.t.Add(59 * time.Second)
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, in, got)
}

func TestSnapshot_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := NewSnapshot(NewMemoryKV(), discardLogger(), WithClock(clock.Now))
	ctx := context.Background()

	c.Set(ctx, "k", sampleMarkets())

	// Exactly at the TTL boundary the entry is still fresh.
	clock.t = clock.t.Add(60 * time.Second)
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)

	clock.t = clock.t.Add(time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestSnapshot_ExpiredEntryFromStorage(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	kv := NewMemoryKV()
	ctx := context.Background()
	raw := []byte(`{"data":[],"timestamp":` + strconv.FormatInt(now.UnixMilli()-61000, 10) + `,"options":""}`)
	require.NoError(t, kv.Set(ctx, "k", raw))

	c := NewSnapshot(kv, discardLogger(), WithClock(func() time.Time { return now }))
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestSnapshot_SetOverwrites(t *testing.T) {
	c := NewSnapshot(NewMemoryKV(), discardLogger())
	ctx := context.Background()

	c.Set(ctx, "k", sampleMarkets())
	c.Set(ctx, "k", nil)

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestSnapshot_BackendErrorsAreMisses(t *testing.T) {
	c := NewSnapshot(failingKV{}, discardLogger())
	ctx := context.Background()

	assert.NotPanics(t, func() { c.Set(ctx, "k", sampleMarkets()) })
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestSnapshot_CorruptEntryIsMiss(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), "k", []byte("{not json")))
	c := NewSnapshot(kv, discardLogger())
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestSnapshot_StoredEnvelope(t *testing.T) {
	kv := NewMemoryKV()
	now := time.UnixMilli(1_700_000_000_123)
	c := NewSnapshot(kv, discardLogger(), WithClock(func() time.Time { return now }))
	key := Key(domain.MarketQuery{Sport: domain.SportNBA, Limit: 10})
	c.Set(context.Background(), key, sampleMarkets())

	raw, err := kv.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"timestamp":1700000000123`)
	assert.Contains(t, string(raw), `"options":"nba_all_10_0"`)
}
