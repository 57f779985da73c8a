// Package cache is a read-through JSON cache on top of Redis.
//
// Reads go through a circuit breaker: when Redis is failing, callers fall
// straight through to their loader instead of waiting on timeouts.
// Concurrent misses for the same key are collapsed with singleflight so a
// cold cache costs one database query, not one per request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

// loadTimeout bounds a shared load, which no longer follows the caller's
// cancellation.
const loadTimeout = 10 * time.Second

// Cache is safe for concurrent use. A nil *Cache is valid and disables
// caching: every read goes to the loader.
type Cache struct {
	rdb *redis.Client
	cb  *gobreaker.CircuitBreaker
	sf  singleflight.Group
	ttl time.Duration
	log *zerolog.Logger

	// gens counts invalidations per key. A load only stores its result if
	// no Delete of the key happened while it ran.
	mu   sync.Mutex
	gens map[string]uint64
}

// New returns nil when rdb is nil.
func New(rdb *redis.Client, ttl time.Duration, logger *zerolog.Logger) *Cache {
	if rdb == nil {
		return nil
	}

	st := gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("cache circuit breaker state changed")
		},
	}

	return &Cache{
		rdb: rdb,
		cb:  gobreaker.NewCircuitBreaker(st),
		ttl:  ttl,
		log:  logger,
		gens: make(map[string]uint64),
	}
}

func (c *Cache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

// get returns the raw cached value; found is false on a miss.
func (c *Cache) get(ctx context.Context, key string) (raw string, found bool, err error) {
	val, err := c.cb.Execute(func() (interface{}, error) {
		res, err := c.rdb.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return res, nil
	})
	if err != nil || val == nil {
		return "", false, err
	}
	return val.(string), true, nil
}

// Set stores v as JSON under key with the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, v any) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache value %s: %w", key, err)
	}

	_, err = c.cb.Execute(func() (interface{}, error) {
		return nil, c.rdb.Set(ctx, key, data, c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("set cache key %s: %w", key, err)
	}
	return nil
}

// Delete removes keys. Missing keys are not an error.
//
// Loads of these keys that are still in flight are detached: later readers
// start a fresh load and the detached ones do not write their result back.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}

	c.mu.Lock()
	for _, key := range keys {
		c.gens[key]++
		c.sf.Forget(key)
	}
	c.mu.Unlock()

	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.rdb.Del(ctx, keys...).Err()
	})
	if err != nil {
		return fmt.Errorf("delete cache keys %v: %w", keys, err)
	}
	return nil
}

// GetOrLoad returns the cached value for key, or calls load, caches the
// result and returns it.
//
// Cache failures never fail the read: they are logged and load is used.
// Errors from load are returned as-is and nothing is cached. A load shared
// by concurrent callers keeps running when one of them gives up.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}

	raw, found, err := c.get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed, loading from source")
	}

	if found {
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return v, nil
		}
		c.log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	}

	ch := c.sf.DoChan(key, func() (interface{}, error) {
		gen := c.generation(key)

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gens[key] != gen {
			c.log.Debug().Str("key", key).Msg("key invalidated during load, not caching")
			return v, nil
		}
		if err := c.Set(loadCtx, key, v); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
