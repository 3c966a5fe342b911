package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/eslsoft/conceptgraph/internal/repository"
)

const graphGenerationKey = "graph:generation"

// derivedCache wraps an optional Cache. Failures are logged and treated as misses so the
// cache can never fail an operation. A nil backend disables caching.
type derivedCache struct {
	backend repository.Cache
	ttl     time.Duration
	group   singleflight.Group
	log     logrus.FieldLogger
}

func newDerivedCache(backend repository.Cache, ttl time.Duration, log logrus.FieldLogger) *derivedCache {
	return &derivedCache{backend: backend, ttl: ttl, log: log}
}

// load returns the cached JSON value for key or fills it with fill. Concurrent misses on the
// same key share a single fill.
func load[T any](ctx context.Context, c *derivedCache, key string, fill func(context.Context) (T, error)) (T, error) {
	if c == nil || c.backend == nil {
		return fill(ctx)
	}

	if raw, found, err := c.backend.Get(ctx, key); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache get failed")
	} else if found {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		c.log.WithField("key", key).Warn("discarding undecodable cache entry")
	}

	// The shared fill outlives any single caller; each caller still stops waiting when its
	// own context ends.
	fillCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		value, err := fill(fillCtx)
		if err != nil {
			return value, err
		}
		if raw, err := json.Marshal(value); err == nil {
			if err := c.backend.Set(fillCtx, key, raw, c.ttl); err != nil {
				c.log.WithError(err).WithField("key", key).Warn("cache set failed")
			}
		}
		return value, nil
	})
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (c *derivedCache) generation(ctx context.Context) int64 {
	return c.version(ctx, graphGenerationKey)
}

// bumpGeneration retires every closure cached against the previous graph state.
func (c *derivedCache) bumpGeneration(ctx context.Context) {
	c.bump(ctx, graphGenerationKey)
}

// version reads a counter that is folded into cache keys. It returns -1 when the counter
// cannot be read; callers then bypass the cache.
func (c *derivedCache) version(ctx context.Context, counter string) int64 {
	if c == nil || c.backend == nil {
		return 0
	}
	v, err := c.backend.Counter(ctx, counter)
	if err != nil {
		c.log.WithError(err).WithField("counter", counter).Warn("cache version read failed")
		return -1
	}
	return v
}

// bump moves a counter forward so keys built from the old value are never read again,
// including ones written later by fills that started before the bump.
func (c *derivedCache) bump(ctx context.Context, counter string) {
	if c == nil || c.backend == nil {
		return
	}
	if _, err := c.backend.Incr(ctx, counter); err != nil {
		c.log.WithError(err).WithField("counter", counter).Warn("cache version bump failed")
	}
}
