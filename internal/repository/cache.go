package repository

import (
	"context"
	"time"
)

// Cache is a shared key/value cache for derived results. Get reports a miss with found=false.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Incr atomically increments a counter and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	// Counter reads a counter, returning 0 when it was never incremented.
	Counter(ctx context.Context, key string) (int64, error)
}
