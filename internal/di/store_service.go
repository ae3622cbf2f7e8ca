package di

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"

	"github.com/salmon302/DSATrain-sub000/internal/store"
)

// StoreService wraps the shared-state backend client.
// Client is nil in local mode: the admission components treat that as
// "use the in-process implementation".
type StoreService struct {
	Client *store.Client
}

// NewStore connects to the shared-state backend when configured.
// Connection failure degrades to local mode instead of failing service
// construction: the admission components stay up on in-process state.
func NewStore(i do.Injector) (*StoreService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	do.MustInvoke[*LoggerService](i)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := store.Connect(ctx, &cfgSvc.Get().Backend)
	if err != nil {
		log.Warn().Err(err).Msg("shared-state backend unreachable, falling back to local state")
		return &StoreService{}, nil
	}

	return &StoreService{Client: client}, nil
}

// Shutdown implements do.Shutdowner for graceful backend cleanup.
func (s *StoreService) Shutdown() error {
	if s.Client != nil {
		return s.Client.Close()
	}
	return nil
}
