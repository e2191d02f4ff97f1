package cache

import "errors"

// Callers treat every error other than ErrCacheMiss as a degraded cache and
// fall through to the store.
var (
	ErrCacheMiss        = errors.New("cache: key not found")
	ErrCacheUnavailable = errors.New("cache: backend unavailable")
	ErrInvalidValue     = errors.New("cache: invalid value")
)
