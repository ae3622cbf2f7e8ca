package ratelimit

import (
	"github.com/salmon302/DSATrain-sub000/internal/store"
)

// DMapName is the Olric map holding rate windows and session counters.
const DMapName = "aigate-ratelimit"

// New creates a Limiter for the given backend.
//
// A nil store client selects the local backend. When the shared backend
// cannot be constructed (the store client exists but the DMap cannot be
// created), New falls back to the local backend instead of failing: backend
// choice must be transparent to callers, and a store outage must never take
// admission control down with it.
func New(cfg Config, client *store.Client) Limiter {
	log := logger().With().Str("component", "limiter_factory").Logger()

	if client == nil {
		log.Info().Str("backend", "local").Msg("limiter factory: using local backend")
		return NewLocal(cfg)
	}

	dmap, err := client.DMap(DMapName)
	if err != nil {
		log.Warn().Err(err).Msg("limiter factory: shared backend unavailable, falling back to local")
		return NewLocal(cfg)
	}

	log.Info().Str("backend", "olric").Msg("limiter factory: using shared backend")
	return newShared(cfg, dmap)
}
