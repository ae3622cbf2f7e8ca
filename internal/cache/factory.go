package cache

import (
	"github.com/salmon302/DSATrain-sub000/internal/store"
)

// DMapName is the Olric map holding cached responses.
const DMapName = "aigate-responses"

// Config holds cache construction parameters.
type Config struct {
	// Enabled turns response caching on. When false the noop backend
	// serves all lookups as misses.
	Enabled bool

	// NumCounters and MaxCost size the local Ristretto backend.
	// Zero values take package defaults.
	NumCounters int64
	MaxCost     int64
}

// New creates a Cache for the given backend.
//
// Disabled caching yields the noop backend. A nil store client selects the
// local Ristretto backend. When the shared backend cannot be constructed,
// New falls back to the local backend - a degraded cache is still a correct
// cache, just a colder one.
func New(cfg Config, client *store.Client) Cache {
	log := logger().With().Str("component", "cache_factory").Logger()

	if !cfg.Enabled {
		log.Info().Str("backend", "noop").Msg("cache factory: caching disabled")
		return newNoopCache()
	}

	if client != nil {
		dmap, err := client.DMap(DMapName)
		if err == nil {
			log.Info().Str("backend", "olric").Msg("cache factory: using shared backend")
			return newOlricCache(dmap)
		}
		log.Warn().Err(err).Msg("cache factory: shared backend unavailable, falling back to local")
	}

	c, err := newRistrettoCache(cfg)
	if err != nil {
		// Ristretto only fails on nonsensical sizing; caching is an
		// optimization, so degrade to noop rather than failing startup.
		log.Warn().Err(err).Msg("cache factory: local backend unavailable, disabling cache")
		return newNoopCache()
	}

	log.Info().Str("backend", "ristretto").Msg("cache factory: using local backend")
	return c
}
