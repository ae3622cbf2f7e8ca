package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salmon302/DSATrain-sub000/internal/config"
)

const sampleConfig = `
ai:
  enabled: true
  provider: anthropic
  model: claude-sonnet-4-5-20250514
  allow_external: true
  api_key: ${TEST_AIGATE_KEY}
  allow_reset: true
  rate_limit:
    requests: 30
    window_seconds: 60
  budgets:
    hint: 10
    review: 5
    elaborate: 5
  monthly_cost_cap_usd: 10.0
  cache:
    ttl_seconds: 600
backend:
  mode: local
problems:
  driver: memory
server:
  listen: ":8089"
  timeout_ms: 30000
logging:
  level: info
  format: json
`

func TestLoadFromReader(t *testing.T) {
	t.Setenv("TEST_AIGATE_KEY", "sk-test-123")

	cfg, err := config.LoadFromReader(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	assert.True(t, cfg.AI.Enabled)
	assert.Equal(t, "anthropic", cfg.AI.Provider)
	assert.Equal(t, "claude-sonnet-4-5-20250514", cfg.AI.Model)
	assert.True(t, cfg.AI.AllowExternal)
	assert.Equal(t, "sk-test-123", cfg.AI.APIKey, "env vars must be expanded")
	assert.True(t, cfg.AI.AllowReset)
	assert.Equal(t, 30, cfg.AI.RateLimit.Requests)
	assert.Equal(t, 60, cfg.AI.RateLimit.WindowSeconds)
	assert.Equal(t, 10, cfg.AI.Budgets.Hint)
	assert.Equal(t, 5, cfg.AI.Budgets.Review)
	assert.Equal(t, 5, cfg.AI.Budgets.Elaborate)
	assert.InDelta(t, 10.0, cfg.AI.MonthlyCostCapUSD, 1e-9)
	assert.Equal(t, 600, cfg.AI.Cache.TTLSeconds)
	assert.Equal(t, "local", cfg.Backend.Mode)
	assert.Equal(t, "memory", cfg.Problems.Driver)
	assert.Equal(t, ":8089", cfg.Server.Listen)
	assert.Equal(t, 30000, cfg.Server.TimeoutMS)
}

func TestLoadFromReaderDefaults(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader("ai:\n  enabled: false\n"))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultRateLimitRequests, cfg.AI.RateLimit.Requests)
	assert.Equal(t, config.DefaultRateLimitWindow, cfg.AI.RateLimit.WindowSeconds)
	assert.Equal(t, config.DefaultCacheTTLSeconds, cfg.AI.Cache.TTLSeconds)
	assert.Equal(t, config.DefaultListen, cfg.Server.Listen)
	assert.True(t, cfg.AI.Cache.Enabled())

	// Unset budgets mean unlimited, not a default allowance.
	assert.Zero(t, cfg.AI.Budgets.Hint)
}

func TestLoadFromReaderInvalidYAML(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader("ai: [not a map"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.AI.Provider)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
