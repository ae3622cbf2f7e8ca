package providers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salmon302/DSATrain-sub000/internal/providers"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name     string
		settings providers.Settings
		wantName string
	}{
		{
			name:     "empty config selects local",
			settings: providers.Settings{},
			wantName: "local",
		},
		{
			name:     "explicit local",
			settings: providers.Settings{Provider: "local"},
			wantName: "local",
		},
		{
			name:     "mock",
			settings: providers.Settings{Provider: "mock", Model: "m1"},
			wantName: "mock",
		},
		{
			name: "anthropic with key and external allowed",
			settings: providers.Settings{
				Provider:      "anthropic",
				Model:         "claude-sonnet-4-5-20250514",
				APIKey:        "k",
				AllowExternal: true,
			},
			wantName: "anthropic",
		},
		{
			name: "anthropic without external permission falls back",
			settings: providers.Settings{
				Provider: "anthropic",
				APIKey:   "k",
			},
			wantName: "local",
		},
		{
			name: "anthropic without key falls back",
			settings: providers.Settings{
				Provider:      "anthropic",
				AllowExternal: true,
			},
			wantName: "local",
		},
		{
			name:     "unknown provider falls back",
			settings: providers.Settings{Provider: "gemini"},
			wantName: "local",
		},
		{
			name:     "name matching is case insensitive",
			settings: providers.Settings{Provider: "  Anthropic ", APIKey: "k", AllowExternal: true},
			wantName: "anthropic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := providers.Select(tt.settings)
			require.NotNil(t, p, "Select must never return nil")
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestSelectAnthropicDefaultModel(t *testing.T) {
	p := providers.Select(providers.Settings{
		Provider:      "anthropic",
		APIKey:        "k",
		AllowExternal: true,
	})
	assert.NotEmpty(t, p.Model())
}

func TestMockProviderCounters(t *testing.T) {
	m := providers.NewMock("m1")
	ctx := context.Background()

	_, err := m.GenerateHint(ctx, providers.HintRequest{})
	require.NoError(t, err)
	_, err = m.GenerateHint(ctx, providers.HintRequest{})
	require.NoError(t, err)
	_, err = m.ReviewCode(ctx, providers.ReviewRequest{})
	require.NoError(t, err)

	assert.Equal(t, int64(2), m.HintCalls())
	assert.Equal(t, int64(1), m.ReviewCalls())
	assert.Equal(t, int64(0), m.ElaborateCalls())
}

func TestMockProviderCannedError(t *testing.T) {
	m := providers.NewMock("m1")
	m.Err = assert.AnError

	_, err := m.GenerateHint(context.Background(), providers.HintRequest{})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, int64(1), m.HintCalls())
}
