package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alanyoungcy/sportspulse/internal/domain"
	"github.com/redis/go-redis/v9"
)

// KVStore implements domain.KVStore with plain Redis strings. Freshness is
// judged by the snapshot envelope, so retention only bounds memory: zero
// keeps entries until overwritten.
//
// Key schema:
//
//	kv:{key} - raw value bytes
type KVStore struct {
	c         *Client
	retention time.Duration
}

// NewKVStore creates a KVStore backed by the given Client.
func NewKVStore(c *Client, retention time.Duration) *KVStore {
	return &KVStore{c: c, retention: retention}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.c.rdb.Get(ctx, s.c.key("kv:"+key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return data, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.c.rdb.Set(ctx, s.c.key("kv:"+key), value, s.retention).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.KVStore = (*KVStore)(nil)
