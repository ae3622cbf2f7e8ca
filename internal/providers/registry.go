package providers

import "strings"

// Settings is the provider-relevant slice of configuration.
type Settings struct {
	Provider      string
	Model         string
	APIKey        string
	BaseURL       string
	AllowExternal bool
}

// Select resolves configuration to a provider. It never fails: unknown
// names, external providers without a key, and external providers when
// allow_external is off all degrade to the local heuristic provider, with
// the reason logged once at selection time.
func Select(s Settings) Provider {
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case NameAnthropic:
		if !s.AllowExternal {
			logger().Warn().
				Str("provider", s.Provider).
				Msg("external providers disabled, falling back to local")
			return NewLocal()
		}
		if s.APIKey == "" {
			logger().Warn().
				Str("provider", s.Provider).
				Msg("no API key configured, falling back to local")
			return NewLocal()
		}
		model := s.Model
		if model == "" {
			model = "claude-sonnet-4-5-20250514"
		}
		logger().Info().
			Str("provider", NameAnthropic).
			Str("model", model).
			Msg("provider selected")
		return NewAnthropic(model, s.APIKey, s.BaseURL)

	case NameMock:
		return NewMock(s.Model)

	case NameLocal, "":
		return NewLocal()

	default:
		logger().Warn().
			Str("provider", s.Provider).
			Msg("unknown provider, falling back to local")
		return NewLocal()
	}
}
