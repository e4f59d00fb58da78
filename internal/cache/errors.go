// Package cache provides the memory and Redis implementations of the
// generic Cache interface the session stores run on.
package cache

import "errors"

var (
	// ErrCacheMiss is returned when no entry exists for the key, or the
	// entry's TTL has elapsed.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheUnavailable is returned when the backend cannot be reached
	ErrCacheUnavailable = errors.New("cache: backend unavailable")

	// ErrInvalidValue is returned when a stored entry cannot be encoded
	// or decoded.
	ErrInvalidValue = errors.New("cache: invalid value")
)
