package config

import (
	"net"
	"strings"
)

// Valid provider names.
var validProviders = map[string]bool{
	"":          true, // Empty defaults to local
	"local":     true,
	"mock":      true,
	"anthropic": true,
}

// Valid problem store drivers.
var validProblemDrivers = map[string]bool{
	"":             true, // Empty defaults to memory
	ProblemsMemory: true,
	ProblemsSQLite: true,
}

// Valid logging levels.
var validLogLevels = map[string]bool{
	"":      true, // Empty defaults to info
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Valid logging formats.
var validLogFormats = map[string]bool{
	"":        true, // Empty defaults to json
	"json":    true,
	"console": true,
	"text":    true, // Alias for console
	"pretty":  true,
}

// Validate checks the configuration for errors.
// It validates all required fields, valid values, and cross-field constraints.
// Returns a ValidationError containing all errors found, or nil if valid.
func (c *Config) Validate() error {
	errs := &ValidationError{}

	validateAI(c, errs)
	validateBackend(c, errs)
	validateProblems(c, errs)
	validateServer(c, errs)
	validateLogging(c, errs)

	return errs.ToError()
}

// validateAI validates the ai configuration section.
func validateAI(c *Config, errs *ValidationError) {
	ai := &c.AI

	if !validProviders[strings.ToLower(ai.Provider)] {
		errs.Addf("ai.provider is invalid (got %q, valid: local, mock, anthropic)", ai.Provider)
	}

	if ai.RateLimit.Requests < 0 {
		errs.Add("ai.rate_limit.requests must be >= 0")
	}
	if ai.RateLimit.WindowSeconds < 0 {
		errs.Add("ai.rate_limit.window_seconds must be >= 0")
	}
	if ai.RateLimit.Requests > 0 && ai.RateLimit.WindowSeconds == 0 {
		errs.Add("ai.rate_limit.window_seconds is required when requests is set")
	}

	if ai.Budgets.Hint < 0 {
		errs.Add("ai.budgets.hint must be >= 0")
	}
	if ai.Budgets.Review < 0 {
		errs.Add("ai.budgets.review must be >= 0")
	}
	if ai.Budgets.Elaborate < 0 {
		errs.Add("ai.budgets.elaborate must be >= 0")
	}

	if ai.MonthlyCostCapUSD < 0 {
		errs.Add("ai.monthly_cost_cap_usd must be >= 0")
	}
	if ai.Cache.TTLSeconds < 0 {
		errs.Add("ai.cache.ttl_seconds must be >= 0")
	}
}

// validateBackend validates the shared-store configuration section.
func validateBackend(c *Config, errs *ValidationError) {
	if err := c.Backend.Validate(); err != nil {
		errs.Add(err.Error())
	}
}

// validateProblems validates the problem catalog configuration section.
func validateProblems(c *Config, errs *ValidationError) {
	if !validProblemDrivers[c.Problems.Driver] {
		errs.Addf("problems.driver is invalid (got %q, valid: memory, sqlite)", c.Problems.Driver)
		return
	}
	if c.Problems.Driver == ProblemsSQLite && c.Problems.Path == "" {
		errs.Add("problems.path is required for the sqlite driver")
	}
}

// validateServer validates the server configuration section.
func validateServer(c *Config, errs *ValidationError) {
	if c.Server.Listen == "" {
		errs.Add("server.listen is required")
	} else {
		validateListenAddress(c.Server.Listen, errs)
	}

	if c.Server.TimeoutMS < 0 {
		errs.Add("server.timeout_ms must be >= 0")
	}
}

// validateListenAddress validates a listen address in host:port format.
func validateListenAddress(addr string, errs *ValidationError) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		errs.Addf("server.listen must be in host:port format (got %q)", addr)
		return
	}

	// Host can be empty (listen on all interfaces) or a valid IP/hostname
	if host != "" {
		if ip := net.ParseIP(host); ip == nil {
			// Not an IP, treat as hostname - basic validation
			if strings.ContainsAny(host, " \t\n") {
				errs.Add("server.listen host contains invalid characters")
			}
		}
	}

	// Port must be a number (SplitHostPort doesn't validate this)
	if port == "" {
		errs.Add("server.listen port is required")
	}
}

// validateLogging validates the logging configuration section.
func validateLogging(c *Config, errs *ValidationError) {
	if !validLogLevels[c.Logging.Level] {
		errs.Addf("logging.level is invalid (got %q, valid: debug, info, warn, error)",
			c.Logging.Level)
	}

	if !validLogFormats[c.Logging.Format] {
		errs.Addf("logging.format is invalid (got %q, valid: json, console, text, pretty)",
			c.Logging.Format)
	}
}
