package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salmon302/DSATrain-sub000/internal/config"
)

func writeConfigFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestWatcherReloadOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfigFile(t, path, sampleConfig)

	w, err := config.NewWatcher(path, config.WithDebounceDelay(20*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	reloaded := make(chan *config.Config, 1)
	w.OnReload(func(cfg *config.Config) error {
		select {
		case reloaded <- cfg:
		default:
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Watch(ctx) }()

	// Give the watch loop a moment to start before mutating the file.
	time.Sleep(50 * time.Millisecond)
	writeConfigFile(t, path, "ai:\n  enabled: false\nserver:\n  listen: \":9000\"\n")

	select {
	case cfg := <-reloaded:
		assert.False(t, cfg.AI.Enabled)
		assert.Equal(t, ":9000", cfg.Server.Listen)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfigFile(t, path, sampleConfig)

	w, err := config.NewWatcher(path, config.WithDebounceDelay(20*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	reloaded := make(chan struct{}, 1)
	w.OnReload(func(*config.Config) error {
		select {
		case reloaded <- struct{}{}:
		default:
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Watch(ctx) }()

	time.Sleep(50 * time.Millisecond)
	writeConfigFile(t, filepath.Join(dir, "unrelated.yaml"), "x: 1\n")

	select {
	case <-reloaded:
		t.Fatal("reloaded on unrelated file change")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherInvalidReloadKeepsRunning(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfigFile(t, path, sampleConfig)

	w, err := config.NewWatcher(path, config.WithDebounceDelay(20*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	reloaded := make(chan *config.Config, 4)
	w.OnReload(func(cfg *config.Config) error {
		reloaded <- cfg
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Watch(ctx) }()

	time.Sleep(50 * time.Millisecond)

	// Broken YAML: no callback fires, watcher stays alive.
	writeConfigFile(t, path, "ai: [broken")
	select {
	case <-reloaded:
		t.Fatal("callback fired for unparseable config")
	case <-time.After(300 * time.Millisecond):
	}

	// A subsequent good write still triggers a reload.
	writeConfigFile(t, path, "ai:\n  enabled: true\n")
	select {
	case cfg := <-reloaded:
		assert.True(t, cfg.AI.Enabled)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for recovery reload")
	}
}

func TestWatcherCloseIdempotency(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfigFile(t, path, sampleConfig)

	w, err := config.NewWatcher(path)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), config.ErrWatcherClosed)
}

func TestWatcherPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfigFile(t, path, sampleConfig)

	w, err := config.NewWatcher(path)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	assert.True(t, filepath.IsAbs(w.Path()))
	assert.Equal(t, "config.yaml", filepath.Base(w.Path()))
}
