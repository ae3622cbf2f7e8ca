package ledger

import (
	"github.com/salmon302/DSATrain-sub000/internal/store"
)

// DMapName is the Olric map holding period cost accumulators.
const DMapName = "aigate-ledger"

// New creates a Ledger for the given backend.
//
// A nil store client selects the local backend. A shared backend that
// cannot be constructed falls back to local: cost tracking is best-effort
// and must never take the gateway down.
func New(cfg Config, client *store.Client) Ledger {
	log := logger().With().Str("component", "ledger_factory").Logger()

	if client == nil {
		log.Info().Str("backend", "local").Msg("ledger factory: using local backend")
		return NewLocal(cfg)
	}

	dmap, err := client.DMap(DMapName)
	if err != nil {
		log.Warn().Err(err).Msg("ledger factory: shared backend unavailable, falling back to local")
		return NewLocal(cfg)
	}

	log.Info().Str("backend", "olric").Msg("ledger factory: using shared backend")
	return newShared(cfg, dmap)
}
