package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/olric-data/olric"
	"github.com/rs/zerolog"
)

// olricCache implements Cache on a DMap from the shared store, so cached
// responses are visible to every gateway instance.
type olricCache struct {
	dmap   olric.DMap
	log    zerolog.Logger
	closed atomic.Bool
}

var _ Cache = (*olricCache)(nil)

// newOlricCache creates the shared backend over an existing DMap handle.
func newOlricCache(dmap olric.DMap) *olricCache {
	log := logger().With().Str("backend", "olric").Logger()
	log.Info().Msg("olric cache created")

	return &olricCache{
		dmap: dmap,
		log:  log,
	}
}

func (o *olricCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.closed.Load() {
		return nil, ErrClosed
	}

	resp, err := o.dmap.Get(ctx, key)
	if errors.Is(err, olric.ErrKeyNotFound) {
		o.log.Debug().Str("key", key).Bool("hit", false).Msg("cache get")
		return nil, ErrNotFound
	}
	if err != nil {
		o.log.Debug().Str("key", key).Err(err).Msg("cache get error")
		return nil, err
	}

	value, err := resp.Byte()
	if err != nil {
		o.log.Debug().Str("key", key).Err(err).Msg("cache get: failed to decode value")
		return nil, err
	}

	o.log.Debug().Str("key", key).Bool("hit", true).Int("size", len(value)).Msg("cache get")

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func (o *olricCache) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.closed.Load() {
		return ErrClosed
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	if err := o.dmap.Put(ctx, key, valueCopy, olric.EX(ttl)); err != nil {
		o.log.Debug().Str("key", key).Int("size", len(value)).Err(err).Msg("cache set error")
		return err
	}

	o.log.Debug().Str("key", key).Int("size", len(value)).Dur("ttl", ttl).Msg("cache set")
	return nil
}

func (o *olricCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.closed.Load() {
		return ErrClosed
	}

	_, err := o.dmap.Delete(ctx, key)
	if err != nil && !errors.Is(err, olric.ErrKeyNotFound) {
		o.log.Debug().Str("key", key).Err(err).Msg("cache delete error")
		return err
	}

	o.log.Debug().Str("key", key).Msg("cache delete")
	return nil
}

func (o *olricCache) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if o.closed.Load() {
		return false, ErrClosed
	}

	_, err := o.dmap.Get(ctx, key)
	if errors.Is(err, olric.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Close marks the cache closed. The DMap handle is owned by the store
// client, which closes the underlying connection.
func (o *olricCache) Close() error {
	if o.closed.Swap(true) {
		return nil
	}
	o.log.Info().Msg("olric cache closed")
	return nil
}
