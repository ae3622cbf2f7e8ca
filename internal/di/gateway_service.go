package di

import (
	"github.com/samber/do/v2"

	"github.com/salmon302/DSATrain-sub000/internal/gateway"
)

// GatewayService wraps the admission gateway.
type GatewayService struct {
	Gateway *gateway.Gateway
}

// NewGateway assembles the gateway from the admission components.
func NewGateway(i do.Injector) (*GatewayService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	limiterSvc := do.MustInvoke[*LimiterService](i)
	ledgerSvc := do.MustInvoke[*LedgerService](i)
	cacheSvc := do.MustInvoke[*CacheService](i)
	problemsSvc := do.MustInvoke[*ProblemsService](i)

	gw := gateway.New(
		cfgSvc.Runtime(),
		limiterSvc.Limiter,
		ledgerSvc.Ledger,
		cacheSvc.Cache,
		problemsSvc.Store,
	)

	return &GatewayService{Gateway: gw}, nil
}
