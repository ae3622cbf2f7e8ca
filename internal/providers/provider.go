// Package providers defines the generation capability contract for the AI
// gateway and its built-in implementations.
//
// Every provider answers the same three operations: tiered hints for a
// problem, rubric-driven code review, and prompt elaboration. The gateway
// orchestrates admission, budgets, cost, and caching around these calls;
// providers only generate.
//
// Built-in implementations:
//   - local: deterministic heuristics from problem metadata, zero cost
//   - mock: canned responses with call counters, for tests and development
//   - anthropic: the real external backend over the Messages API
//
// Provider selection (see Select) is a pure function of configuration and
// never fails: anything unusable degrades to the local provider.
package providers

import (
	"context"

	"github.com/samber/mo"

	"github.com/salmon302/DSATrain-sub000/internal/problems"
)

// Built-in provider names accepted in configuration.
const (
	NameLocal     = "local"
	NameMock      = "mock"
	NameAnthropic = "anthropic"
)

// HintRequest asks for tiered hints on one problem.
type HintRequest struct {
	Problem *problems.Problem

	// Query is the learner's free-text question. May be empty.
	Query string

	// Context carries optional request context (e.g. attempted approach,
	// language). Providers may ignore keys they do not understand.
	Context map[string]string
}

// Hint is one tier of guidance, ordered from gentle nudge to approach.
type Hint struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// HintResult is the outcome of a hint generation call.
type HintResult struct {
	Hints []Hint `json:"hints"`

	// Cost is the provider-reported cost in USD, when the backend can
	// report one. The gateway prefers this over its static estimate.
	Cost mo.Option[float64] `json:"-"`
}

// ReviewRequest asks for a code review against a rubric.
type ReviewRequest struct {
	Code   string
	Rubric []string

	// Problem is optional review context.
	Problem *problems.Problem

	Context map[string]string
}

// ReviewComment is one observation from a code review.
type ReviewComment struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// ReviewResult is the outcome of a code review call.
type ReviewResult struct {
	Summary  string             `json:"summary"`
	Comments []ReviewComment    `json:"comments"`
	Cost     mo.Option[float64] `json:"-"`
}

// ElaborateRequest asks for practice prompts elaborated from a problem.
type ElaborateRequest struct {
	Problem *problems.Problem
	Context map[string]string
}

// ElaborationResult is the outcome of a prompt elaboration call.
type ElaborationResult struct {
	Prompts []string           `json:"prompts"`
	Cost    mo.Option[float64] `json:"-"`
}

// Provider is the uniform generation contract.
// Implementations must be safe for concurrent use. Calls may be slow; the
// gateway holds no locks across them, and callers apply their own timeouts
// via ctx.
type Provider interface {
	// Name returns the provider identifier ("local", "mock", "anthropic").
	Name() string

	// Model returns the model identifier this provider generates with.
	Model() string

	// GenerateHint produces tiered hints for a problem.
	GenerateHint(ctx context.Context, req HintRequest) (*HintResult, error)

	// ReviewCode reviews code against a rubric.
	ReviewCode(ctx context.Context, req ReviewRequest) (*ReviewResult, error)

	// ElaboratePrompts expands a problem into practice prompts.
	ElaboratePrompts(ctx context.Context, req ElaborateRequest) (*ElaborationResult, error)
}
