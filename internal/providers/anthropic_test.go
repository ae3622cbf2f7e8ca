package providers_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/salmon302/DSATrain-sub000/internal/providers"
)

// messagesResponse builds a minimal Messages API response body.
func messagesResponse(text string, inputTokens, outputTokens int) string {
	return fmt.Sprintf(`{
		"content": [{"type": "text", "text": %q}],
		"usage": {"input_tokens": %d, "output_tokens": %d}
	}`, text, inputTokens, outputTokens)
}

func TestAnthropicGenerateHint(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		gotBody, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, messagesResponse("1. First nudge\n2. Second nudge\n3. The approach", 100, 50))
	}))
	defer srv.Close()

	p := providers.NewAnthropic("claude-sonnet-4-5-20250514", "test-key", srv.URL)

	res, err := p.GenerateHint(context.Background(), providers.HintRequest{
		Problem: testProblem(),
		Query:   "why does my loop not terminate",
	})
	require.NoError(t, err)

	require.Len(t, res.Hints, 3)
	assert.Equal(t, 1, res.Hints[0].Level)
	assert.Equal(t, "First nudge", res.Hints[0].Text)
	assert.Equal(t, "The approach", res.Hints[2].Text)

	// 100 input + 50 output tokens at sonnet rates.
	cost, ok := res.Cost.Get()
	require.True(t, ok)
	assert.InDelta(t, 100*3.0/1e6+50*15.0/1e6, cost, 1e-12)

	assert.Equal(t, "claude-sonnet-4-5-20250514", gjson.GetBytes(gotBody, "model").String())
	assert.Equal(t, "user", gjson.GetBytes(gotBody, "messages.0.role").String())
	assert.Contains(t, gjson.GetBytes(gotBody, "messages.0.content").String(), "Two Sum")
	assert.Contains(t, gjson.GetBytes(gotBody, "messages.0.content").String(), "loop not terminate")
}

func TestAnthropicReviewCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, messagesResponse("Solid overall.\n1. Consider early return\n2. Missing nil check", 200, 80))
	}))
	defer srv.Close()

	p := providers.NewAnthropic("claude-sonnet-4-5-20250514", "k", srv.URL)

	res, err := p.ReviewCode(context.Background(), providers.ReviewRequest{Code: "func main() {}"})
	require.NoError(t, err)

	assert.Equal(t, "Solid overall.", res.Summary)
	require.Len(t, res.Comments, 2)
	assert.Equal(t, "review", res.Comments[0].Category)
	assert.Equal(t, "Consider early return", res.Comments[0].Text)
}

func TestAnthropicElaboratePrompts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, messagesResponse("1. Prompt one\n2. Prompt two", 50, 30))
	}))
	defer srv.Close()

	p := providers.NewAnthropic("claude-haiku-3-5", "k", srv.URL)

	res, err := p.ElaboratePrompts(context.Background(), providers.ElaborateRequest{Problem: testProblem()})
	require.NoError(t, err)

	assert.Equal(t, []string{"Prompt one", "Prompt two"}, res.Prompts)
	cost, ok := res.Cost.Get()
	require.True(t, ok)
	assert.InDelta(t, 50*0.80/1e6+30*4.0/1e6, cost, 1e-12)
}

func TestAnthropicBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"type": "rate_limit_error", "message": "overloaded"}}`)
	}))
	defer srv.Close()

	p := providers.NewAnthropic("claude-sonnet-4-5-20250514", "k", srv.URL)

	_, err := p.GenerateHint(context.Background(), providers.HintRequest{Problem: testProblem()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "overloaded")
}

func TestAnthropicEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"content": [], "usage": {"input_tokens": 1, "output_tokens": 0}}`)
	}))
	defer srv.Close()

	p := providers.NewAnthropic("claude-sonnet-4-5-20250514", "k", srv.URL)

	_, err := p.GenerateHint(context.Background(), providers.HintRequest{Problem: testProblem()})
	assert.Error(t, err)
}

func TestAnthropicCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := providers.NewAnthropic("claude-sonnet-4-5-20250514", "k", srv.URL)
	req := providers.HintRequest{Problem: testProblem()}

	for range 5 {
		_, err := p.GenerateHint(context.Background(), req)
		require.Error(t, err)
		require.NotErrorIs(t, err, providers.ErrCircuitOpen)
	}

	_, err := p.GenerateHint(context.Background(), req)
	assert.ErrorIs(t, err, providers.ErrCircuitOpen)
}

func TestParseNumberedList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "dot markers",
			input: "1. alpha\n2. beta",
			want:  []string{"alpha", "beta"},
		},
		{
			name:  "paren markers",
			input: "1) alpha\n2) beta",
			want:  []string{"alpha", "beta"},
		},
		{
			name:  "bullets",
			input: "- alpha\n- beta",
			want:  []string{"alpha", "beta"},
		},
		{
			name:  "preamble skipped when markers present",
			input: "Here are the hints:\n1. alpha\n2. beta",
			want:  []string{"alpha", "beta"},
		},
		{
			name:  "no markers falls back to lines",
			input: "alpha\nbeta",
			want:  []string{"alpha", "beta"},
		},
		{
			name:  "blank lines ignored",
			input: "\n1. alpha\n\n2. beta\n",
			want:  []string{"alpha", "beta"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, providers.ParseNumberedList(tt.input))
		})
	}
}

func TestCostUSD(t *testing.T) {
	// Opus family is priced above sonnet; unknown models use the default.
	opus := providers.CostUSD("claude-opus-4-1", 1000, 1000)
	sonnet := providers.CostUSD("claude-sonnet-4-5-20250514", 1000, 1000)
	unknown := providers.CostUSD("some-future-model", 1000, 1000)

	assert.Greater(t, opus, sonnet)
	assert.Equal(t, sonnet, unknown)
	assert.InDelta(t, 1000*3.0/1e6+1000*15.0/1e6, sonnet, 1e-12)
}
