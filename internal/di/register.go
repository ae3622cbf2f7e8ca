package di

import "github.com/samber/do/v2"

// RegisterSingletons registers all service providers as singletons.
// Services are registered in dependency order:
// 1. Config (no dependencies)
// 2. Logger (depends on Config)
// 3. Store (depends on Config, Logger)
// 4. Limiter (depends on Config, Store)
// 5. Ledger (depends on Config, Store)
// 6. Cache (depends on Config, Store)
// 7. Problems (depends on Config)
// 8. Gateway (depends on all admission services)
// 9. Server (depends on Gateway, Config).
func RegisterSingletons(i do.Injector) {
	do.Provide(i, NewConfig)
	do.Provide(i, NewLogger)
	do.Provide(i, NewStore)
	do.Provide(i, NewLimiter)
	do.Provide(i, NewLedger)
	do.Provide(i, NewCache)
	do.Provide(i, NewProblems)
	do.Provide(i, NewGateway)
	do.Provide(i, NewHTTPServer)
}
