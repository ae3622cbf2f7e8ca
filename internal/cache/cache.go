// Package cache provides TTL-keyed response caching for idempotent AI
// operations (hint generation, prompt elaboration).
//
// The cache is a pure optimization layer: a miss must never change
// observable behavior versus a fresh call, other than latency and cost.
// Keys are derived deterministically from normalized request inputs so that
// equivalent requests collide predictably (see ResponseKey).
//
// Three backends sit behind one interface:
//   - Ristretto: high-performance local in-memory cache (single instance)
//   - Olric: shared cache for horizontally scaled deployments
//   - Noop: passthrough when caching is disabled
//
// All implementations are safe for concurrent use.
//
// Basic usage:
//
//	c := cache.New(cache.Config{Enabled: true}, nil)
//	defer c.Close()
//
//	key := cache.ResponseKey("hint", "anthropic", "claude-sonnet-4-5", "two-sum", query)
//	data, err := c.Get(ctx, key)
//	if errors.Is(err, cache.ErrNotFound) {
//		// miss: do the work, then write through
//		_ = c.SetWithTTL(ctx, key, payload, ttl)
//	}
package cache

import (
	"context"
	"time"
)

// Cache defines the interface for cache operations.
// All implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns ErrNotFound if the key does not exist or has expired.
	// Returns ErrClosed if the cache has been closed.
	Get(ctx context.Context, key string) ([]byte, error)

	// SetWithTTL stores a value with a time-to-live. After the TTL
	// elapses the key is treated as absent (lazy eviction; no
	// background sweep is required of implementations).
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists in the cache.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases resources. After Close, operations return
	// ErrClosed. Close is idempotent.
	Close() error
}

// Stats provides cache statistics for observability.
type Stats struct {
	// Hits is the number of cache hits.
	Hits uint64 `json:"hits"`

	// Misses is the number of cache misses.
	Misses uint64 `json:"misses"`

	// KeyCount is the current number of keys in the cache.
	KeyCount uint64 `json:"key_count"`

	// Evictions is the number of keys evicted due to capacity limits.
	Evictions uint64 `json:"evictions"`
}

// StatsProvider is an optional interface for caches that support statistics.
// Use type assertion to check for support:
//
//	if sp, ok := c.(cache.StatsProvider); ok {
//		stats := sp.Stats()
//	}
type StatsProvider interface {
	// Stats returns current cache statistics.
	Stats() Stats
}
