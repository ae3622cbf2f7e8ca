// Package store manages the shared-state backend connection for the AI gateway.
//
// When DSATrain runs as a single process, all admission state (rate windows,
// session budgets, cost accumulators, cached responses) lives in process memory.
// When it runs horizontally scaled, the same state must be shared across
// instances. The store package provides that shared backend: an Olric
// distributed key-value store, reachable either as an embedded node or as a
// client of an external cluster.
//
// Consumers (ratelimit, ledger, cache) never talk to Olric directly at
// construction time. They receive a *Client and ask for named DMaps; if the
// client is nil or a DMap cannot be created, they fall back to their local
// in-process implementation. Connection failure must never take the gateway
// down - availability is favored over cross-instance accuracy.
package store

import (
	"context"
	"errors"
	"io"
	stdlog "log"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/olric-data/olric"
	olricconfig "github.com/olric-data/olric/config"
	"github.com/rs/zerolog"
)

// Mode selects where admission state lives.
const (
	// ModeLocal keeps all state in process memory.
	ModeLocal = "local"

	// ModeShared keeps state in an Olric store shared across instances.
	ModeShared = "shared"
)

// ErrClosed is returned when operations are attempted on a closed client.
var ErrClosed = errors.New("store: client is closed")

// Config describes the shared-state backend.
type Config struct {
	// Mode is "local" or "shared". Empty defaults to local.
	Mode string `yaml:"mode"`

	// Olric configures the shared backend. Ignored in local mode.
	Olric OlricConfig `yaml:"olric"`
}

// OlricConfig configures the Olric connection.
type OlricConfig struct {
	// Embedded runs a local Olric node inside this process.
	// Useful for single-node deployments and tests.
	Embedded bool `yaml:"embedded"`

	// BindAddr is the bind address for the embedded node (host or host:port).
	BindAddr string `yaml:"bind_addr"`

	// Peers are memberlist peer addresses for embedded cluster discovery.
	Peers []string `yaml:"peers"`

	// Addresses are cluster member addresses for client mode.
	Addresses []string `yaml:"addresses"`
}

// Shared reports whether the config selects the shared backend.
func (c *Config) Shared() bool {
	return c.Mode == ModeShared
}

// Validate checks the backend configuration.
func (c *Config) Validate() error {
	switch c.Mode {
	case "", ModeLocal:
		return nil
	case ModeShared:
		if !c.Olric.Embedded && len(c.Olric.Addresses) == 0 {
			return errors.New("store: shared mode requires embedded=true or cluster addresses")
		}
		return nil
	default:
		return errors.New("store: mode must be \"local\" or \"shared\"")
	}
}

// Client wraps an Olric connection (embedded node or cluster client).
// It hands out named DMaps to the admission components.
type Client struct {
	db     *olric.Olric // embedded node, nil in client mode
	client olric.Client
	log    zerolog.Logger
	closed atomic.Bool
}

// Connect establishes the shared-state backend connection.
// Returns nil (and no error) when the config selects local mode: callers
// treat a nil client as "use the in-process implementation".
func Connect(ctx context.Context, cfg *Config) (*Client, error) {
	if !cfg.Shared() {
		return nil, nil
	}

	log := logger().With().Str("component", "store").Logger()

	if cfg.Olric.Embedded {
		log.Debug().Str("mode", "embedded").Msg("store: starting embedded olric node")
		return connectEmbedded(ctx, &cfg.Olric, log)
	}

	log.Debug().Strs("addresses", cfg.Olric.Addresses).Msg("store: connecting to olric cluster")
	return connectCluster(ctx, &cfg.Olric, log)
}

// connectEmbedded starts an embedded Olric node and returns a client for it.
func connectEmbedded(ctx context.Context, cfg *OlricConfig, log zerolog.Logger) (*Client, error) {
	c := olricconfig.New("local")

	bindAddr, bindPort := parseBindAddr(cfg.BindAddr)
	if bindAddr != "" {
		c.BindAddr = bindAddr
	}
	if bindPort > 0 {
		c.BindPort = bindPort
	}
	if len(cfg.Peers) > 0 {
		c.Peers = cfg.Peers
	}

	// Olric's own logging is noisy; route it to /dev/null and rely on ours.
	c.LogOutput = io.Discard
	c.Logger = stdlog.New(io.Discard, "", 0)

	ready := make(chan struct{})
	c.Started = func() {
		close(ready)
	}

	db, err := olric.New(c)
	if err != nil {
		log.Error().Err(err).Msg("store: failed to create embedded olric instance")
		return nil, err
	}

	startErr := make(chan error, 1)
	go func() {
		if err := db.Start(); err != nil {
			startErr <- err
		}
	}()

	startupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	select {
	case <-ready:
		log.Debug().Msg("store: embedded olric node ready")
	case err := <-startErr:
		log.Error().Err(err).Msg("store: embedded olric node failed to start")
		return nil, err
	case <-startupCtx.Done():
		// The node is still coming up; give the embedded client a moment.
		log.Debug().Msg("store: embedded node startup timeout, proceeding")
		time.Sleep(100 * time.Millisecond)
	}

	log.Info().
		Str("bind_addr", bindAddr).
		Int("bind_port", bindPort).
		Int("peers", len(cfg.Peers)).
		Msg("store: embedded olric node started")

	return &Client{
		db:     db,
		client: db.NewEmbeddedClient(),
		log:    log,
	}, nil
}

// connectCluster connects to an external Olric cluster.
func connectCluster(_ context.Context, cfg *OlricConfig, log zerolog.Logger) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New("store: olric addresses required for client mode")
	}

	client, err := olric.NewClusterClient(cfg.Addresses)
	if err != nil {
		log.Error().Err(err).Strs("addresses", cfg.Addresses).Msg("store: failed to connect to olric cluster")
		return nil, err
	}

	log.Info().Strs("addresses", cfg.Addresses).Msg("store: connected to olric cluster")

	return &Client{
		client: client,
		log:    log,
	}, nil
}

// DMap returns a named distributed map handle.
func (c *Client) DMap(name string) (olric.DMap, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	dm, err := c.client.NewDMap(name)
	if err != nil {
		c.log.Error().Err(err).Str("dmap", name).Msg("store: failed to create dmap")
		return nil, err
	}
	return dm, nil
}

// Ping verifies the store connection is alive by issuing a throwaway read.
// olric.ErrKeyNotFound means the connection is healthy.
func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	dm, err := c.client.NewDMap("aigate-ping")
	if err != nil {
		return err
	}
	_, err = dm.Get(ctx, "__ping__")
	if errors.Is(err, olric.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Close shuts down the embedded node or disconnects the cluster client.
// Close is idempotent.
func (c *Client) Close() error {
	if c == nil || c.closed.Swap(true) {
		return nil
	}

	ctx := context.Background()
	if c.db != nil {
		if err := c.db.Shutdown(ctx); err != nil {
			c.log.Error().Err(err).Msg("store: embedded node shutdown error")
			return err
		}
		c.log.Info().Msg("store: embedded olric node closed")
		return nil
	}
	if c.client != nil {
		if err := c.client.Close(ctx); err != nil {
			c.log.Error().Err(err).Msg("store: client disconnect error")
			return err
		}
		c.log.Info().Msg("store: olric cluster client closed")
	}
	return nil
}

// parseBindAddr splits a bind address that may be host:port or bare host.
func parseBindAddr(addr string) (h string, p int) {
	h, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 0
	}
	p, err = strconv.Atoi(portStr)
	if err != nil {
		return h, 0
	}
	return h, p
}
