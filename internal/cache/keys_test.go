package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/salmon302/DSATrain-sub000/internal/cache"
)

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "already normal", in: "how do i start", want: "how do i start"},
		{name: "case folded", in: "How Do I Start", want: "how do i start"},
		{name: "trimmed", in: "  how do i start  ", want: "how do i start"},
		{name: "collapsed whitespace", in: "how\tdo\n i   start", want: "how do i start"},
		{name: "empty", in: "", want: ""},
		{name: "only whitespace", in: " \t\n ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cache.NormalizeQuery(tt.in))
		})
	}
}

func TestResponseKey_EquivalentQueriesCollide(t *testing.T) {
	a := cache.ResponseKey("hint", "local", "heuristic-v1", "two-sum", "How do I start?")
	b := cache.ResponseKey("hint", "local", "heuristic-v1", "two-sum", "  how do i   START?  ")
	assert.Equal(t, a, b)
}

func TestResponseKey_DistinctInputsDiffer(t *testing.T) {
	base := cache.ResponseKey("hint", "local", "heuristic-v1", "two-sum", "q")

	assert.NotEqual(t, base, cache.ResponseKey("elaborate", "local", "heuristic-v1", "two-sum", "q"))
	assert.NotEqual(t, base, cache.ResponseKey("hint", "anthropic", "heuristic-v1", "two-sum", "q"))
	assert.NotEqual(t, base, cache.ResponseKey("hint", "local", "claude-sonnet-4-5", "two-sum", "q"))
	assert.NotEqual(t, base, cache.ResponseKey("hint", "local", "heuristic-v1", "three-sum", "q"))
	assert.NotEqual(t, base, cache.ResponseKey("hint", "local", "heuristic-v1", "two-sum", "other"))
}

func TestResponseKey_IsDeterministic(t *testing.T) {
	a := cache.ResponseKey("review", "mock", "m", "p", "some query")
	b := cache.ResponseKey("review", "mock", "m", "p", "some query")
	assert.Equal(t, a, b)
}
