package cache

import (
	"context"
	"time"
)

// Cache is the key/value store used for read-through caching and short-lived
// counters. The Redis implementation lives in internal/infrastructure/cache.
type Cache interface {
	// Get unmarshals the cached value into dest.
	// found is false on a miss and dest is left untouched.
	Get(ctx context.Context, key string, dest interface{}) (found bool, err error)

	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error

	// DeletePattern removes every key matching a glob pattern (SCAN + DEL).
	DeletePattern(ctx context.Context, pattern string) error

	Ping(ctx context.Context) error

	// Counters for login throttling and token blacklisting.
	Increment(ctx context.Context, key string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
