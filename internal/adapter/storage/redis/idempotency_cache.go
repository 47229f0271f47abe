package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Keys are namespaced so the rate limiter and the cache never collide in the
// same Redis database.
const initCachePrefix = "payments:init:"

// IdempotencyCache implements ports.IdempotencyCache over Redis. It fronts
// the transactions table for initiation resubmissions keyed by reference, so
// a retried initiate call gets its original response without touching the
// provider again.
type IdempotencyCache struct {
	client *goredis.Client
}

func NewIdempotencyCache(client *goredis.Client) *IdempotencyCache {
	return &IdempotencyCache{client: client}
}

// Get returns the cached response for a reference, or nil, nil on a miss.
func (c *IdempotencyCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, initCachePrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("idempotency get %q: %w", key, err)
	}
	return val, nil
}

// Set stores a response under the reference for the given TTL.
func (c *IdempotencyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, initCachePrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("idempotency set %q: %w", key, err)
	}
	return nil
}
