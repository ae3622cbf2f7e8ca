package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
	"github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/time/rate"
)

// DefaultAnthropicBaseURL is the Anthropic API endpoint.
const DefaultAnthropicBaseURL = "https://api.anthropic.com"

// anthropicVersion is the API version header sent with every request.
const anthropicVersion = "2023-06-01"

const (
	anthropicMaxTokens   = 1024
	anthropicHTTPTimeout = 60 * time.Second

	// Outbound pacing: 2 req/s sustained, bursts of 4. The admission
	// limiter governs user-facing quota; this only protects the backend.
	anthropicPaceRate  = 2
	anthropicPaceBurst = 4

	breakerFailureThreshold = 5
	breakerOpenDuration     = 30 * time.Second
	breakerHalfOpenProbes   = 2
)

// ErrCircuitOpen is returned when the backend breaker rejects a call without
// sending it.
var ErrCircuitOpen = errors.New("providers: circuit breaker open")

// anthropicProvider calls the Anthropic Messages API. Cost is computed from
// the usage block of each response using published per-token rates.
type anthropicProvider struct {
	model   string
	apiKey  string
	baseURL string

	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	pace    *rate.Limiter
}

var _ Provider = (*anthropicProvider)(nil)

// NewAnthropic returns a provider backed by the Anthropic Messages API.
// baseURL may be empty to use the public endpoint.
func NewAnthropic(model, apiKey, baseURL string) Provider {
	if baseURL == "" {
		baseURL = DefaultAnthropicBaseURL
	}

	settings := gobreaker.Settings{
		Name:        NameAnthropic,
		MaxRequests: breakerHalfOpenProbes,
		Timeout:     breakerOpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			event := logger().Info()
			if to == gobreaker.StateOpen {
				event = logger().Warn()
			}
			event.
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &anthropicProvider{
		model:   model,
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: anthropicHTTPTimeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		pace:    rate.NewLimiter(rate.Limit(anthropicPaceRate), anthropicPaceBurst),
	}
}

func (p *anthropicProvider) Name() string  { return NameAnthropic }
func (p *anthropicProvider) Model() string { return p.model }

// complete sends one Messages API call and returns the first text block
// along with the computed cost.
func (p *anthropicProvider) complete(ctx context.Context, system, user string) (string, float64, error) {
	if err := p.pace.Wait(ctx); err != nil {
		return "", 0, fmt.Errorf("anthropic: pacing wait: %w", err)
	}

	body, err := p.buildBody(system, user)
	if err != nil {
		return "", 0, err
	}

	respBody, err := p.breaker.Execute(func() ([]byte, error) {
		return p.post(ctx, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", 0, ErrCircuitOpen
		}
		return "", 0, err
	}

	text := gjson.GetBytes(respBody, "content.0.text").String()
	if text == "" {
		return "", 0, fmt.Errorf("anthropic: empty completion for model %s", p.model)
	}

	inputTokens := gjson.GetBytes(respBody, "usage.input_tokens").Int()
	outputTokens := gjson.GetBytes(respBody, "usage.output_tokens").Int()
	cost := costUSD(p.model, inputTokens, outputTokens)

	logger().Debug().
		Str("model", p.model).
		Int64("input_tokens", inputTokens).
		Int64("output_tokens", outputTokens).
		Float64("cost_usd", cost).
		Msg("anthropic completion")

	return text, cost, nil
}

func (p *anthropicProvider) buildBody(system, user string) ([]byte, error) {
	body := []byte(`{}`)
	var err error

	if body, err = sjson.SetBytes(body, "model", p.model); err != nil {
		return nil, fmt.Errorf("anthropic: build body: %w", err)
	}
	if body, err = sjson.SetBytes(body, "max_tokens", anthropicMaxTokens); err != nil {
		return nil, fmt.Errorf("anthropic: build body: %w", err)
	}
	if system != "" {
		if body, err = sjson.SetBytes(body, "system", system); err != nil {
			return nil, fmt.Errorf("anthropic: build body: %w", err)
		}
	}
	if body, err = sjson.SetBytes(body, "messages.0.role", "user"); err != nil {
		return nil, fmt.Errorf("anthropic: build body: %w", err)
	}
	if body, err = sjson.SetBytes(body, "messages.0.content", user); err != nil {
		return nil, fmt.Errorf("anthropic: build body: %w", err)
	}
	return body, nil
}

func (p *anthropicProvider) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("anthropic: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(respBody, "error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("anthropic: backend returned %d: %s", resp.StatusCode, msg)
	}
	return respBody, nil
}

func (p *anthropicProvider) GenerateHint(ctx context.Context, req HintRequest) (*HintResult, error) {
	if req.Problem == nil {
		return nil, fmt.Errorf("anthropic: hint request has no problem")
	}

	system := "You are a coding tutor. Give progressively stronger hints, never a full solution. " +
		"Reply with a numbered list; one hint per line, gentlest first."

	var b strings.Builder
	fmt.Fprintf(&b, "Problem: %s (difficulty: %s)\n", req.Problem.Title, req.Problem.Difficulty)
	if req.Problem.Description != "" {
		fmt.Fprintf(&b, "Statement: %s\n", req.Problem.Description)
	}
	if len(req.Problem.Tags) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(req.Problem.Tags, ", "))
	}
	if req.Query != "" {
		fmt.Fprintf(&b, "Learner question: %s\n", req.Query)
	}
	b.WriteString("Give 3 to 4 hints.")

	text, cost, err := p.complete(ctx, system, b.String())
	if err != nil {
		return nil, err
	}

	items := parseNumberedList(text)
	hints := make([]Hint, 0, len(items))
	for i, item := range items {
		hints = append(hints, Hint{Level: i + 1, Text: item})
	}
	if len(hints) == 0 {
		hints = append(hints, Hint{Level: 1, Text: strings.TrimSpace(text)})
	}

	return &HintResult{Hints: hints, Cost: mo.Some(cost)}, nil
}

func (p *anthropicProvider) ReviewCode(ctx context.Context, req ReviewRequest) (*ReviewResult, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, fmt.Errorf("anthropic: review request has no code")
	}

	system := "You are a code reviewer for practice submissions. " +
		"First line: a one-sentence summary. Then a numbered list of specific observations."

	var b strings.Builder
	if req.Problem != nil {
		fmt.Fprintf(&b, "Problem: %s\n", req.Problem.Title)
	}
	if len(req.Rubric) > 0 {
		fmt.Fprintf(&b, "Rubric:\n- %s\n", strings.Join(req.Rubric, "\n- "))
	}
	fmt.Fprintf(&b, "Code:\n%s\n", req.Code)

	text, cost, err := p.complete(ctx, system, b.String())
	if err != nil {
		return nil, err
	}

	summary := text
	var comments []ReviewComment
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		summary = strings.TrimSpace(text[:idx])
		for _, item := range parseNumberedList(text[idx+1:]) {
			comments = append(comments, ReviewComment{Category: "review", Text: item})
		}
	}

	return &ReviewResult{Summary: summary, Comments: comments, Cost: mo.Some(cost)}, nil
}

func (p *anthropicProvider) ElaboratePrompts(ctx context.Context, req ElaborateRequest) (*ElaborationResult, error) {
	if req.Problem == nil {
		return nil, fmt.Errorf("anthropic: elaborate request has no problem")
	}

	system := "You generate follow-up practice prompts for a coding problem. " +
		"Reply with a numbered list; one self-contained prompt per line."

	var b strings.Builder
	fmt.Fprintf(&b, "Problem: %s (difficulty: %s)\n", req.Problem.Title, req.Problem.Difficulty)
	if len(req.Problem.Patterns) > 0 {
		fmt.Fprintf(&b, "Approaches: %s\n", strings.Join(req.Problem.Patterns, ", "))
	}
	b.WriteString("Generate 4 to 6 prompts.")

	text, cost, err := p.complete(ctx, system, b.String())
	if err != nil {
		return nil, err
	}

	prompts := parseNumberedList(text)
	if len(prompts) == 0 {
		prompts = []string{strings.TrimSpace(text)}
	}

	return &ElaborationResult{Prompts: prompts, Cost: mo.Some(cost)}, nil
}

// parseNumberedList extracts the items of a "1. foo\n2. bar" style list,
// tolerating "1)" markers and leading bullets. Lines without a marker are
// skipped unless no markers were seen at all.
func parseNumberedList(text string) []string {
	var items, plain []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if item, ok := stripListMarker(line); ok {
			items = append(items, item)
		} else {
			plain = append(plain, line)
		}
	}
	if len(items) > 0 {
		return items
	}
	return plain
}

func stripListMarker(line string) (string, bool) {
	if rest, ok := strings.CutPrefix(line, "- "); ok {
		return strings.TrimSpace(rest), true
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) {
		return "", false
	}
	if line[i] != '.' && line[i] != ')' {
		return "", false
	}
	if _, err := strconv.Atoi(line[:i]); err != nil {
		return "", false
	}
	return strings.TrimSpace(line[i+1:]), true
}
