package cache

import "errors"

var (
	// ErrCacheMiss indicates the key holds no live value. Callers of the
	// application-config cache treat a miss as "fetch from the registry".
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheUnavailable indicates the Redis backend cannot be reached.
	ErrCacheUnavailable = errors.New("cache: backend unavailable")

	// ErrInvalidValue indicates a stored value that does not decode to the
	// cache's value type.
	ErrInvalidValue = errors.New("cache: invalid value")
)
