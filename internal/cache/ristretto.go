package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog"
)

// Ristretto sizing defaults, tuned for small JSON response payloads.
const (
	defaultNumCounters = 100_000
	defaultMaxCost     = 32 << 20 // 32 MB
	defaultBufferItems = 64
)

// ristrettoCache implements Cache using Ristretto as the backend.
// Ristretto handles TTL expiry itself; expired keys read as absent.
type ristrettoCache struct {
	cache  *ristretto.Cache[string, []byte]
	log    zerolog.Logger
	closed atomic.Bool
}

var (
	_ Cache         = (*ristrettoCache)(nil)
	_ StatsProvider = (*ristrettoCache)(nil)
)

// newRistrettoCache creates the local in-memory backend.
func newRistrettoCache(cfg Config) (*ristrettoCache, error) {
	log := logger().With().Str("backend", "ristretto").Logger()

	numCounters := cfg.NumCounters
	if numCounters <= 0 {
		numCounters = defaultNumCounters
	}
	maxCost := cfg.MaxCost
	if maxCost <= 0 {
		maxCost = defaultMaxCost
	}

	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: defaultBufferItems,
		Metrics:     true,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create ristretto cache")
		return nil, err
	}

	log.Info().
		Int64("num_counters", numCounters).
		Int64("max_cost", maxCost).
		Msg("ristretto cache created")

	return &ristrettoCache{
		cache: c,
		log:   log,
	}, nil
}

func (r *ristrettoCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.closed.Load() {
		return nil, ErrClosed
	}

	value, found := r.cache.Get(key)
	if !found {
		r.log.Debug().Str("key", key).Bool("hit", false).Msg("cache get")
		return nil, ErrNotFound
	}

	r.log.Debug().Str("key", key).Bool("hit", true).Int("size", len(value)).Msg("cache get")

	// Return a copy to prevent mutation of cached data.
	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func (r *ristrettoCache) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.closed.Load() {
		return ErrClosed
	}

	// Copy so the caller cannot mutate cached data afterwards.
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	r.cache.SetWithTTL(key, valueCopy, int64(len(value)), ttl)

	// Ristretto admits writes asynchronously; wait so a read-after-write
	// in the same request observes the entry.
	r.cache.Wait()

	r.log.Debug().Str("key", key).Int("size", len(value)).Dur("ttl", ttl).Msg("cache set")
	return nil
}

func (r *ristrettoCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.closed.Load() {
		return ErrClosed
	}

	r.cache.Del(key)
	r.log.Debug().Str("key", key).Msg("cache delete")
	return nil
}

func (r *ristrettoCache) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if r.closed.Load() {
		return false, ErrClosed
	}

	_, found := r.cache.Get(key)
	return found, nil
}

func (r *ristrettoCache) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	r.cache.Wait()
	r.cache.Close()
	r.log.Info().Msg("ristretto cache closed")
	return nil
}

// Stats returns current cache statistics.
func (r *ristrettoCache) Stats() Stats {
	if r.closed.Load() {
		return Stats{}
	}

	metrics := r.cache.Metrics
	return Stats{
		Hits:      metrics.Hits(),
		Misses:    metrics.Misses(),
		KeyCount:  metrics.KeysAdded() - metrics.KeysEvicted(),
		Evictions: metrics.KeysEvicted(),
	}
}
