package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a generic key-value cache with per-entry TTL.
//
// TTL semantics for Set:
//   - Positive duration: the entry expires after this duration
//   - Zero: the cache's default TTL applies
//   - Negative: the entry never expires
type Cache[V any] interface {
	// Get returns ErrNotFound for absent and expired keys.
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	Close() error
}

// LoadFunc produces a value for a missing or stale key together with the
// TTL to cache it for.
type LoadFunc[V any] func(ctx context.Context) (V, time.Duration, error)

var loads singleflight.Group

type loadResult[V any] struct {
	val V
}

// GetOrLoad returns the cached value for key, loading it on a miss.
//
// fresh revalidates a cached value; when it reports false the value is
// treated as a miss and replaced. A nil fresh accepts every cached value.
// Concurrent callers missing the same key of the same cache share one load.
// Failed loads are not cached.
func GetOrLoad[V any](ctx context.Context, c Cache[V], key string, fresh func(V) bool, load LoadFunc[V]) (V, error) {
	if v, err := c.Get(ctx, key); err == nil {
		if fresh == nil || fresh(v) {
			return v, nil
		}
	} else if !errors.Is(err, ErrNotFound) {
		var zero V
		return zero, err
	}

	res, err, _ := loads.Do(fmt.Sprintf("%p|%s", c, key), func() (any, error) {
		val, ttl, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrLoad, key, err)
		}
		if err := c.Set(ctx, key, val, ttl); err != nil && !errors.Is(err, ErrClosed) {
			return nil, err
		}
		return loadResult[V]{val: val}, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(loadResult[V]).val, nil
}
