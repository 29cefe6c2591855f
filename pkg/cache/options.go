package cache

import "time"

// Option configures a Memory cache.
type Option func(*options)

type options struct {
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	maxEntries      int
	onEvict         func(key string, value any)
}

func defaultOptions() options {
	return options{
		defaultTTL:      time.Hour,
		cleanupInterval: time.Minute,
	}
}

// WithDefaultTTL sets the TTL used when Set is called with zero.
// Default: 1 hour.
func WithDefaultTTL(d time.Duration) Option {
	return func(o *options) {
		o.defaultTTL = d
	}
}

// WithCleanupInterval sets how often expired entries are swept.
// Zero disables the background sweep; expired entries are then dropped on access.
// Default: 1 minute.
func WithCleanupInterval(d time.Duration) Option {
	return func(o *options) {
		o.cleanupInterval = d
	}
}

// WithMaxEntries bounds the cache; the least recently used entry is evicted
// to make room. Zero means unlimited.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

// WithEvictCallback registers fn for entries leaving the cache by eviction,
// expiry, deletion, Clear or Close. Replacing a value with Set does not
// count. fn runs with the cache locked and
// must not call back into it.
func WithEvictCallback[V any](fn func(key string, value V)) Option {
	return func(o *options) {
		o.onEvict = func(key string, value any) {
			v, _ := value.(V)
			fn(key, v)
		}
	}
}
