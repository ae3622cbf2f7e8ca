package config_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/salmon302/DSATrain-sub000/internal/config"
)

func TestRuntimeGetStore(t *testing.T) {
	initial := validConfig()
	runtime := config.NewRuntime(initial)

	assert.Same(t, initial, runtime.Get())

	updated := validConfig()
	updated.AI.Enabled = false
	runtime.Store(updated)

	assert.Same(t, updated, runtime.Get())
	assert.False(t, runtime.Get().AI.Enabled)
}

func TestRuntimeConcurrentAccess(t *testing.T) {
	runtime := config.NewRuntime(validConfig())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 100 {
				cfg := validConfig()
				runtime.Store(cfg)
			}
		}()
		go func() {
			defer wg.Done()
			for range 100 {
				cfg := runtime.Get()
				// Readers always see a complete config, never a torn one.
				assert.NotNil(t, cfg)
				assert.Equal(t, "local", cfg.AI.Provider)
			}
		}()
	}
	wg.Wait()
}
