package cache

import "errors"

var (
	// ErrNotFound is returned when a key is absent or has expired.
	ErrNotFound = errors.New("cache: entry not found")

	// ErrClosed is returned by writes to a closed cache.
	ErrClosed = errors.New("cache: closed")

	// ErrLoad wraps failures of the load function passed to GetOrLoad.
	ErrLoad = errors.New("cache: load failed")
)
