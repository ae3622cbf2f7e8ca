package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a YAML configuration file from the given path.
// Environment variables in the format ${VAR_NAME} are expanded before parsing.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}

	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", cerr)
		}
	}()

	return LoadFromReader(file)
}

// LoadFromReader reads and parses YAML configuration from an io.Reader.
// Environment variables in the format ${VAR_NAME} are expanded before parsing,
// and absent fields take package defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	expanded := os.ExpandEnv(string(content))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills in absent fields. Budgets are left as parsed: zero
// means unlimited, which is a meaningful value, not an omission.
func applyDefaults(cfg *Config) {
	if cfg.AI.RateLimit.Requests == 0 {
		cfg.AI.RateLimit.Requests = DefaultRateLimitRequests
	}
	if cfg.AI.RateLimit.WindowSeconds == 0 {
		cfg.AI.RateLimit.WindowSeconds = DefaultRateLimitWindow
	}
	if cfg.AI.Cache.TTLSeconds == 0 {
		cfg.AI.Cache.TTLSeconds = DefaultCacheTTLSeconds
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = DefaultListen
	}
}
