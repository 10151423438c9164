// Package cache implements the market snapshot cache on top of a pluggable
// persistent key-value backend.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

// KeyPrefix starts every snapshot key.
const KeyPrefix = "polymarket_sports_cache_"

// DefaultTTL is the freshness window of a snapshot.
const DefaultTTL = 60 * time.Second

// Key builds the cache key for a market query:
// polymarket_sports_cache_{sport}_{status|all}_{limit}_{offset}.
func Key(q domain.MarketQuery) string {
	sport := q.Sport
	if sport == "" {
		sport = domain.SportAll
	}
	status := string(q.Status)
	if status == "" {
		status = "all"
	}
	return fmt.Sprintf("%s%s_%s_%d_%d", KeyPrefix, sport, status, q.Limit, q.Offset)
}

// entry is the stored JSON envelope. Timestamp is epoch milliseconds.
type entry struct {
	Data      []domain.Market `json:"data"`
	Timestamp int64           `json:"timestamp"`
	Options   string          `json:"options"`
}

// Snapshot caches market query results. Backend failures never reach the
// caller: a failed read is a miss and a failed write is dropped.
type Snapshot struct {
	kv     domain.KVStore
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Snapshot.
type Option func(*Snapshot)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Snapshot) { s.now = now }
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Snapshot) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewSnapshot wraps kv as a snapshot cache.
func NewSnapshot(kv domain.KVStore, logger *slog.Logger, opts ...Option) *Snapshot {
	s := &Snapshot{
		kv:     kv,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: logger.With(slog.String("component", "snapshot_cache")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the markets stored under key, or false when the entry is
// absent, unreadable or older than the TTL.
func (s *Snapshot) Get(ctx context.Context, key string) ([]domain.Market, bool) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		s.logger.WarnContext(ctx, "cache entry undecodable",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	if s.now().UnixMilli()-e.Timestamp > s.ttl.Milliseconds() {
		return nil, false
	}
	if e.Data == nil {
		e.Data = []domain.Market{}
	}
	return e.Data, true
}

// Set stores markets under key, replacing any previous entry.
func (s *Snapshot) Set(ctx context.Context, key string, markets []domain.Market) {
	if markets == nil {
		markets = []domain.Market{}
	}
	raw, err := json.Marshal(entry{
		Data:      markets,
		Timestamp: s.now().UnixMilli(),
		Options:   strings.TrimPrefix(key, KeyPrefix),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "cache entry encode failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		s.logger.WarnContext(ctx, "cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
