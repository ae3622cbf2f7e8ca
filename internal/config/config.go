// Package config provides configuration loading, parsing, and hot-reload
// for the AI gateway.
package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/mo"

	"github.com/salmon302/DSATrain-sub000/internal/ratelimit"
	"github.com/salmon302/DSATrain-sub000/internal/store"
)

// RuntimeConfig defines the interface for accessing runtime configuration that
// supports hot-reload. Components that need to observe config changes should
// use this interface instead of holding a direct *Config pointer, which would
// become stale after hot-reload.
//
// Usage pattern:
//
//	func (g *Gateway) GenerateHint(ctx context.Context, req HintRequest) (*HintResponse, error) {
//		cfg := g.runtime.Get()
//		if !cfg.AI.Enabled { ... }
//		// Use cfg for the whole request...
//	}
type RuntimeConfig interface {
	Get() *Config
}

// Log level constants.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Defaults applied by Load when fields are absent.
const (
	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 60 // seconds
	DefaultCacheTTLSeconds   = 600
	DefaultListen            = ":8089"
)

// Config represents the complete gateway configuration.
type Config struct {
	AI       AIConfig       `yaml:"ai"`
	Backend  store.Config   `yaml:"backend"`
	Problems ProblemsConfig `yaml:"problems"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AIConfig governs the AI-assistance admission core.
type AIConfig struct {
	// Enabled turns the AI surface on. When false every gateway operation
	// fails fast with the Disabled kind.
	Enabled bool `yaml:"enabled"`

	// Provider selects the generation backend: local, mock, or anthropic.
	// Empty defaults to local.
	Provider string `yaml:"provider"`

	// Model is the model identifier passed to the provider. Optional;
	// providers apply their own default.
	Model string `yaml:"model"`

	// AllowExternal permits calls that leave the process. Without it,
	// external providers degrade to the local heuristic.
	AllowExternal bool `yaml:"allow_external"`

	// APIKey authenticates against external providers.
	// Supports ${ENV_VAR} expansion.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the external provider endpoint. Mostly for tests.
	BaseURL string `yaml:"base_url"`

	// AllowReset permits the administrative reset operation.
	AllowReset bool `yaml:"allow_reset"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Budgets   BudgetsConfig   `yaml:"budgets"`

	// MonthlyCostCapUSD caps committed spend per calendar month.
	// Zero means unlimited.
	MonthlyCostCapUSD float64 `yaml:"monthly_cost_cap_usd"`

	Cache CacheConfig `yaml:"cache"`
}

// RateLimitConfig defines the global sliding-window limit.
type RateLimitConfig struct {
	// Requests is the window cap N.
	Requests int `yaml:"requests"`

	// WindowSeconds is the window length W in seconds.
	WindowSeconds int `yaml:"window_seconds"`
}

// Window returns the window length as a duration.
func (r *RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// BudgetsConfig defines per-session action allowances.
// Zero or negative means unlimited for that action.
type BudgetsConfig struct {
	Hint      int `yaml:"hint"`
	Review    int `yaml:"review"`
	Elaborate int `yaml:"elaborate"`
}

// ForAction returns the configured allowance for an action name.
// Unknown actions are unlimited.
func (b *BudgetsConfig) ForAction(action string) int {
	switch action {
	case ratelimit.ActionHint:
		return b.Hint
	case ratelimit.ActionReview:
		return b.Review
	case ratelimit.ActionElaborate:
		return b.Elaborate
	default:
		return 0
	}
}

// CacheConfig defines response caching behavior.
type CacheConfig struct {
	// Disabled turns response caching off entirely.
	Disabled bool `yaml:"disabled"`

	// TTLSeconds is how long a cached response stays servable.
	TTLSeconds int `yaml:"ttl_seconds"`
}

// Enabled reports whether response caching is on.
func (c *CacheConfig) Enabled() bool {
	return !c.Disabled
}

// TTL returns the cache TTL as a duration.
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Problem store driver constants.
const (
	ProblemsMemory = "memory"
	ProblemsSQLite = "sqlite"
)

// ProblemsConfig selects the problem catalog backend.
type ProblemsConfig struct {
	// Driver is "memory" or "sqlite". Empty defaults to memory.
	Driver string `yaml:"driver"`

	// Path is the sqlite database file. Required for the sqlite driver.
	Path string `yaml:"path"`
}

// ServerConfig defines server-level settings.
type ServerConfig struct {
	Listen      string `yaml:"listen"`
	TimeoutMS   int    `yaml:"timeout_ms"`
	EnableHTTP2 bool   `yaml:"enable_http2"` // HTTP/2 cleartext (h2c) support
}

// GetTimeoutOption returns the request timeout as an Option.
// Returns None if TimeoutMS is zero (use default).
func (s *ServerConfig) GetTimeoutOption() mo.Option[time.Duration] {
	if s.TimeoutMS <= 0 {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(s.TimeoutMS) * time.Millisecond)
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console, pretty
	Output string `yaml:"output"` // stdout, stderr, or file path
	Pretty bool   `yaml:"pretty"` // force colored console output
}

// ParseLevel converts a string log level to zerolog.Level.
// Returns zerolog.InfoLevel if the level string is invalid.
func (l *LoggingConfig) ParseLevel() zerolog.Level {
	switch strings.ToLower(l.Level) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
