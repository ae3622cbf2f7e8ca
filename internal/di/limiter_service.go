package di

import (
	"github.com/samber/do/v2"

	"github.com/salmon302/DSATrain-sub000/internal/ratelimit"
)

// LimiterService wraps the admission rate limiter.
type LimiterService struct {
	Limiter ratelimit.Limiter
}

// NewLimiter creates the rate limiter, shared-backed when a store client
// is available.
func NewLimiter(i do.Injector) (*LimiterService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	storeSvc := do.MustInvoke[*StoreService](i)

	ai := cfgSvc.Get().AI
	limiter := ratelimit.New(ratelimit.Config{
		Requests: ai.RateLimit.Requests,
		Window:   ai.RateLimit.Window(),
	}, storeSvc.Client)

	return &LimiterService{Limiter: limiter}, nil
}

// Shutdown implements do.Shutdowner.
func (s *LimiterService) Shutdown() error {
	if s.Limiter != nil {
		return s.Limiter.Close()
	}
	return nil
}
