package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig is a minimal valid configuration for testing.
const validConfig = `
ai:
  enabled: true
  provider: local
  rate_limit:
    requests: 10
    window_seconds: 60
server:
  listen: ":8089"
logging:
  level: info
  format: json
`

// createTempConfigFile creates a temporary config file for testing.
func createTempConfigFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(validConfig), 0o600)
	require.NoError(t, err)
	return path
}

func TestNewContainer(t *testing.T) {
	configPath := createTempConfigFile(t)

	container, err := NewContainer(configPath)
	require.NoError(t, err)
	require.NotNil(t, container)
	assert.NotNil(t, container.Injector())

	err = container.Shutdown()
	assert.NoError(t, err)
}

func TestContainerInvoke(t *testing.T) {
	configPath := createTempConfigFile(t)
	container, err := NewContainer(configPath)
	require.NoError(t, err)
	defer container.Shutdown()

	t.Run("resolves config service", func(t *testing.T) {
		cfgSvc, err := Invoke[*ConfigService](container)
		require.NoError(t, err)
		require.NotNil(t, cfgSvc)
		assert.True(t, cfgSvc.Get().AI.Enabled)
		assert.Equal(t, ":8089", cfgSvc.Get().Server.Listen)
	})

	t.Run("resolves gateway service", func(t *testing.T) {
		gwSvc, err := Invoke[*GatewayService](container)
		require.NoError(t, err)
		require.NotNil(t, gwSvc.Gateway)
	})

	t.Run("resolves server service", func(t *testing.T) {
		srvSvc, err := Invoke[*ServerService](container)
		require.NoError(t, err)
		require.NotNil(t, srvSvc.Server)
	})

	t.Run("health check passes", func(t *testing.T) {
		assert.NoError(t, container.HealthCheck())
	})
}

func TestContainerInvalidConfigPath(t *testing.T) {
	container, err := NewContainer("/nonexistent/config.yaml")
	require.NoError(t, err) // construction is lazy

	_, err = Invoke[*ConfigService](container)
	require.Error(t, err)
}

func TestConfigServiceHotReload(t *testing.T) {
	configPath := createTempConfigFile(t)
	container, err := NewContainer(configPath)
	require.NoError(t, err)
	defer container.Shutdown()

	cfgSvc, err := Invoke[*ConfigService](container)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfgSvc.StartWatching(ctx)

	updated := `
ai:
  enabled: false
  provider: local
server:
  listen: ":8089"
logging:
  level: info
  format: json
`
	require.NoError(t, os.WriteFile(configPath, []byte(updated), 0o600))

	require.Eventually(t, func() bool {
		return !cfgSvc.Get().AI.Enabled
	}, 5*time.Second, 50*time.Millisecond, "config reload not observed")
}

func TestStoreUnreachableFallsBackToLocal(t *testing.T) {
	sharedConfig := `
ai:
  enabled: true
  provider: local
backend:
  mode: shared
  olric:
    addresses:
      - "127.0.0.1:1"
server:
  listen: ":8089"
logging:
  level: info
  format: json
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sharedConfig), 0o600))

	container, err := NewContainer(path)
	require.NoError(t, err)
	defer container.Shutdown()

	storeSvc, err := Invoke[*StoreService](container)
	require.NoError(t, err, "unreachable store must not fail service construction")
	assert.Nil(t, storeSvc.Client, "nil client selects the local backends")

	gwSvc, err := Invoke[*GatewayService](container)
	require.NoError(t, err)
	require.NotNil(t, gwSvc.Gateway)
}

func TestContainerShutdownWithContext(t *testing.T) {
	configPath := createTempConfigFile(t)
	container, err := NewContainer(configPath)
	require.NoError(t, err)

	// Force initialization so shutdown has services to tear down.
	require.NoError(t, container.HealthCheck())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	assert.NoError(t, container.ShutdownWithContext(ctx))
}
