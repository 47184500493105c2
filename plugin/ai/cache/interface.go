// Package cache provides a bounded in-memory key/value cache with expiry.
package cache

import (
	"context"
	"time"
)

// CacheService stores opaque values under string keys.
type CacheService interface {
	// Get returns the value and whether it exists and is unexpired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value. A non-positive ttl uses the cache default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
