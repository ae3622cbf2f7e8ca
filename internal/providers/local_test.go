package providers_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salmon302/DSATrain-sub000/internal/problems"
	"github.com/salmon302/DSATrain-sub000/internal/providers"
)

func testProblem() *problems.Problem {
	return &problems.Problem{
		ID:         "two-sum",
		Title:      "Two Sum",
		Difficulty: "easy",
		Tags:       []string{"array", "hash-table"},
		Patterns:   []string{"hash map lookup"},
	}
}

func TestLocalProviderIdentity(t *testing.T) {
	p := providers.NewLocal()
	assert.Equal(t, "local", p.Name())
	assert.Equal(t, "heuristic-v1", p.Model())
}

func TestLocalGenerateHint(t *testing.T) {
	p := providers.NewLocal()

	res, err := p.GenerateHint(context.Background(), providers.HintRequest{Problem: testProblem()})
	require.NoError(t, err)

	// One nudge, one from tags, one from patterns, one from difficulty.
	require.Len(t, res.Hints, 4)
	for i, h := range res.Hints {
		assert.Equal(t, i+1, h.Level, "hints must be tiered in order")
		assert.NotEmpty(t, h.Text)
	}
	assert.Contains(t, res.Hints[1].Text, "hash-table")

	cost, ok := res.Cost.Get()
	require.True(t, ok, "local provider always reports a cost")
	assert.Zero(t, cost)
}

func TestLocalGenerateHintSparseMetadata(t *testing.T) {
	p := providers.NewLocal()

	res, err := p.GenerateHint(context.Background(), providers.HintRequest{
		Problem: &problems.Problem{ID: "p1", Title: "Mystery", Difficulty: "hard"},
	})
	require.NoError(t, err)

	// No tags or patterns: nudge plus difficulty guidance only.
	require.Len(t, res.Hints, 2)
	assert.Contains(t, res.Hints[1].Text, "subproblems")
}

func TestLocalGenerateHintNilProblem(t *testing.T) {
	p := providers.NewLocal()

	_, err := p.GenerateHint(context.Background(), providers.HintRequest{})
	assert.Error(t, err)
}

func TestLocalReviewCode(t *testing.T) {
	tests := []struct {
		name         string
		code         string
		rubric       []string
		wantCategory string
	}{
		{
			name:         "long lines flagged",
			code:         strings.Repeat("x", 150),
			wantCategory: "style",
		},
		{
			name:         "deep nesting flagged",
			code:         "a\n\tb\n\t\tc\n\t\t\td\n\t\t\t\te",
			wantCategory: "complexity",
		},
		{
			name:         "rubric items echoed",
			code:         "ok",
			rubric:       []string{"handles empty input"},
			wantCategory: "rubric",
		},
		{
			name:         "clean code gets general comment",
			code:         "short and flat",
			wantCategory: "general",
		},
	}

	p := providers.NewLocal()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.ReviewCode(context.Background(), providers.ReviewRequest{
				Code:   tt.code,
				Rubric: tt.rubric,
			})
			require.NoError(t, err)
			require.NotEmpty(t, res.Comments)

			categories := make([]string, 0, len(res.Comments))
			for _, c := range res.Comments {
				categories = append(categories, c.Category)
			}
			assert.Contains(t, categories, tt.wantCategory)
			assert.NotEmpty(t, res.Summary)
		})
	}
}

func TestLocalReviewEmptyCode(t *testing.T) {
	p := providers.NewLocal()

	_, err := p.ReviewCode(context.Background(), providers.ReviewRequest{Code: "   \n"})
	assert.Error(t, err)
}

func TestLocalElaboratePrompts(t *testing.T) {
	p := providers.NewLocal()

	res, err := p.ElaboratePrompts(context.Background(), providers.ElaborateRequest{Problem: testProblem()})
	require.NoError(t, err)

	// Two base prompts plus one per pattern and one per tag.
	assert.Len(t, res.Prompts, 2+1+2)
	for _, prompt := range res.Prompts {
		assert.NotEmpty(t, prompt)
	}
}

func TestLocalDeterministic(t *testing.T) {
	p := providers.NewLocal()
	req := providers.HintRequest{Problem: testProblem()}

	first, err := p.GenerateHint(context.Background(), req)
	require.NoError(t, err)
	second, err := p.GenerateHint(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Hints, second.Hints)
}
