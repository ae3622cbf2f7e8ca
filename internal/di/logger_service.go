package di

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/do/v2"

	"github.com/salmon302/DSATrain-sub000/internal/cache"
	"github.com/salmon302/DSATrain-sub000/internal/gateway"
	"github.com/salmon302/DSATrain-sub000/internal/httpapi"
	"github.com/salmon302/DSATrain-sub000/internal/ledger"
	"github.com/salmon302/DSATrain-sub000/internal/providers"
	"github.com/salmon302/DSATrain-sub000/internal/ratelimit"
	"github.com/salmon302/DSATrain-sub000/internal/store"
)

// LoggerService wraps the zerolog logger for DI.
type LoggerService struct {
	Logger *zerolog.Logger
}

// NewLogger creates the zerolog logger from configuration and propagates
// it to every package that keeps a package-level logger.
func NewLogger(i do.Injector) (*LoggerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)

	logger, err := httpapi.NewLogger(cfgSvc.Get().Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	ratelimit.SetLogger(&logger)
	ledger.SetLogger(&logger)
	cache.SetLogger(&logger)
	store.SetLogger(&logger)
	providers.SetLogger(&logger)
	gateway.SetLogger(&logger)

	return &LoggerService{Logger: &logger}, nil
}
