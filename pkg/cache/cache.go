// Package cache stores intermediate pipeline outputs keyed by content hash.
//
// Composites and encoded exports are deterministic functions of their input
// images and settings, so they can be cached across runs. Three backends are
// provided: [FileCache] for the CLI, [RedisCache] for servers sharing a cache,
// and [NullCache] when caching is disabled.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values per entry kind.
const (
	TTLComposite = 24 * time.Hour
	TTLExport    = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
