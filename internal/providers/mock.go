package providers

import (
	"context"
	"sync/atomic"

	"github.com/samber/mo"
)

// MockProvider returns canned responses and counts calls. It backs the
// "mock" configuration value and the gateway test suite.
type MockProvider struct {
	model string

	// Canned responses. When nil, a minimal non-empty default is returned.
	HintResponse      *HintResult
	ReviewResponse    *ReviewResult
	ElaborateResponse *ElaborationResult

	// Err, when set, is returned from every call.
	Err error

	hintCalls      atomic.Int64
	reviewCalls    atomic.Int64
	elaborateCalls atomic.Int64
}

var _ Provider = (*MockProvider)(nil)

// NewMock returns a mock provider reporting the given model.
func NewMock(model string) *MockProvider {
	if model == "" {
		model = "mock-model"
	}
	return &MockProvider{model: model}
}

func (p *MockProvider) Name() string  { return NameMock }
func (p *MockProvider) Model() string { return p.model }

// HintCalls returns how many times GenerateHint was invoked.
func (p *MockProvider) HintCalls() int64 { return p.hintCalls.Load() }

// ReviewCalls returns how many times ReviewCode was invoked.
func (p *MockProvider) ReviewCalls() int64 { return p.reviewCalls.Load() }

// ElaborateCalls returns how many times ElaboratePrompts was invoked.
func (p *MockProvider) ElaborateCalls() int64 { return p.elaborateCalls.Load() }

func (p *MockProvider) GenerateHint(_ context.Context, _ HintRequest) (*HintResult, error) {
	p.hintCalls.Add(1)
	if p.Err != nil {
		return nil, p.Err
	}
	if p.HintResponse != nil {
		return p.HintResponse, nil
	}
	return &HintResult{
		Hints: []Hint{{Level: 1, Text: "mock hint"}},
		Cost:  mo.Some(0.001),
	}, nil
}

func (p *MockProvider) ReviewCode(_ context.Context, _ ReviewRequest) (*ReviewResult, error) {
	p.reviewCalls.Add(1)
	if p.Err != nil {
		return nil, p.Err
	}
	if p.ReviewResponse != nil {
		return p.ReviewResponse, nil
	}
	return &ReviewResult{
		Summary:  "mock review",
		Comments: []ReviewComment{{Category: "general", Text: "mock comment"}},
		Cost:     mo.Some(0.001),
	}, nil
}

func (p *MockProvider) ElaboratePrompts(_ context.Context, _ ElaborateRequest) (*ElaborationResult, error) {
	p.elaborateCalls.Add(1)
	if p.Err != nil {
		return nil, p.Err
	}
	if p.ElaborateResponse != nil {
		return p.ElaborateResponse, nil
	}
	return &ElaborationResult{
		Prompts: []string{"mock prompt"},
		Cost:    mo.Some(0.001),
	}, nil
}
