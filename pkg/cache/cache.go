// Package cache provides pluggable byte-level caches with expiration.
//
// Two concerns in findreq use it: the registry client caches PyPI responses
// so repeated scans do not hit the network, and the resolver can keep its
// import-name → package-name map in a shared backend instead of the
// project-local JSON file.
//
// Backends:
//   - [FileCache]: one JSON file per key under a directory (CLI default)
//   - [RedisCache]: Redis, for sharing results between machines
//   - [NullCache]: caching disabled
//
// Keys are produced by a [Keyer] so that different consumers never collide.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values per entry kind.
const (
	// TTLHTTP bounds how long a registry response is reused.
	TTLHTTP = 24 * time.Hour

	// TTLResolution bounds how long a shared resolution map is reused.
	TTLResolution = 7 * 24 * time.Hour
)

// Cache stores opaque byte values under string keys.
//
// Implementations must be safe for concurrent use. A ttl of zero means the
// entry never expires.
type Cache interface {
	// Get returns the value for key. hit is false on a miss or an expired entry.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
