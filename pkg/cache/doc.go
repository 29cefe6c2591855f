// Package cache provides a generic in-memory cache with TTL expiry, LRU
// bounds and deduplicated, revalidating loads.
//
// [Memory] implements [Cache]:
//
//	c := cache.NewMemory[*Entry](
//	    cache.WithDefaultTTL(10*time.Minute),
//	    cache.WithMaxEntries(1000),
//	    cache.WithEvictCallback(func(key string, e *Entry) { e.Close() }),
//	)
//	defer c.Close()
//
// [GetOrLoad] returns a cached value or loads it. Concurrent misses for the
// same key share one load, and a freshness check lets callers compare a
// cached value against the current state of its source:
//
//	def, err := cache.GetOrLoad(ctx, c, key,
//	    func(e *Entry) bool { return e.Version == currentVersion() },
//	    func(ctx context.Context) (*Entry, time.Duration, error) {
//	        e, err := load(ctx)
//	        return e, 0, err
//	    })
package cache
