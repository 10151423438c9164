package domain

import (
	"context"
	"time"
)

// KVStore is a persistent key-value backend for the market snapshot cache.
// Get returns ErrNotFound when the key is absent.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// SnapshotCache stores normalized market query results.
type SnapshotCache interface {
	Get(ctx context.Context, key string) ([]Market, bool)
	Set(ctx context.Context, key string, markets []Market)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides cross-process pub/sub.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
