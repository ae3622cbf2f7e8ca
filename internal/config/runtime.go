package config

import "sync/atomic"

// Runtime is the hot-swappable configuration handle. Readers take whole
// snapshots: a request that loaded one config keeps it for its lifetime,
// and the next request observes whatever the watcher swapped in.
//
//	cfg := runtime.Get()
//	limit := cfg.AI.Budgets.ForAction(action)
type Runtime struct {
	ptr atomic.Pointer[Config]
}

var _ RuntimeConfig = (*Runtime)(nil)

// NewRuntime creates a Runtime holding the given initial configuration.
func NewRuntime(initial *Config) *Runtime {
	r := &Runtime{}
	r.ptr.Store(initial)
	return r
}

// Get returns the current configuration snapshot. Lock-free; call once per
// operation and use the snapshot throughout.
func (r *Runtime) Get() *Config {
	return r.ptr.Load()
}

// Store swaps in a new configuration. Readers see either the old snapshot
// or the new one, never a mix.
func (r *Runtime) Store(cfg *Config) {
	r.ptr.Store(cfg)
}
