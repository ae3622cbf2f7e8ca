package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// noopCache is used when response caching is disabled. Writes succeed but
// store nothing; reads always miss. Disabling the cache must not change
// observable behavior beyond latency and cost.
type noopCache struct {
	log    zerolog.Logger
	closed atomic.Bool
}

var _ Cache = (*noopCache)(nil)

func newNoopCache() *noopCache {
	log := logger().With().Str("backend", "noop").Logger()
	log.Debug().Str("note", "response caching is disabled").Msg("noop cache created")
	return &noopCache{log: log}
}

func (c *noopCache) Get(_ context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	c.log.Debug().Str("key", key).Bool("hit", false).Msg("cache get")
	return nil, ErrNotFound
}

func (c *noopCache) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.log.Debug().Str("key", key).Int("size", len(value)).Dur("ttl", ttl).Msg("cache set")
	return nil
}

func (c *noopCache) Delete(_ context.Context, _ string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (c *noopCache) Exists(_ context.Context, _ string) (bool, error) {
	if c.closed.Load() {
		return false, ErrClosed
	}
	return false, nil
}

func (c *noopCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.log.Info().Msg("noop cache closed")
	return nil
}
