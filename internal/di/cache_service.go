package di

import (
	"github.com/samber/do/v2"

	"github.com/salmon302/DSATrain-sub000/internal/cache"
)

// CacheService wraps the response cache.
type CacheService struct {
	Cache cache.Cache
}

// NewCache creates the response cache based on configuration.
func NewCache(i do.Injector) (*CacheService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	storeSvc := do.MustInvoke[*StoreService](i)

	c := cache.New(cache.Config{
		Enabled: cfgSvc.Get().AI.Cache.Enabled(),
	}, storeSvc.Client)

	return &CacheService{Cache: c}, nil
}

// Shutdown implements do.Shutdowner for graceful cache cleanup.
func (c *CacheService) Shutdown() error {
	if c.Cache != nil {
		return c.Cache.Close()
	}
	return nil
}
