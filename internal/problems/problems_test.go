package problems_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salmon302/DSATrain-sub000/internal/problems"
)

var twoSum = &problems.Problem{
	ID:          "two-sum",
	Title:       "Two Sum",
	Difficulty:  "easy",
	Tags:        []string{"array", "hash-table"},
	Patterns:    []string{"hash-map-lookup"},
	Description: "Find two numbers that add up to a target.",
}

// storeUnderTest runs the same contract tests against both implementations.
func storeUnderTest(t *testing.T) map[string]problems.Store {
	t.Helper()

	sqliteStore, err := problems.NewSQLite(filepath.Join(t.TempDir(), "problems.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	memStore := problems.NewMemory()
	t.Cleanup(func() { _ = memStore.Close() })

	return map[string]problems.Store{
		"memory": memStore,
		"sqlite": sqliteStore,
	}
}

func TestStore_PutGet(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.Put(ctx, twoSum))

			got, err := s.Get(ctx, "two-sum")
			require.NoError(t, err)
			assert.Equal(t, twoSum, got)
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(context.Background(), "no-such-problem")
			assert.ErrorIs(t, err, problems.ErrNotFound)
		})
	}
}

func TestStore_PutReplaces(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.Put(ctx, twoSum))

			updated := *twoSum
			updated.Difficulty = "medium"
			require.NoError(t, s.Put(ctx, &updated))

			got, err := s.Get(ctx, "two-sum")
			require.NoError(t, err)
			assert.Equal(t, "medium", got.Difficulty)
		})
	}
}

func TestStore_List(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.Put(ctx, twoSum))
			require.NoError(t, s.Put(ctx, &problems.Problem{
				ID: "three-sum", Title: "3Sum", Difficulty: "medium",
			}))

			all, err := s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 2)
		})
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := problems.NewMemory(twoSum)

	got, err := s.Get(ctx, "two-sum")
	require.NoError(t, err)
	got.Tags[0] = "mutated"

	again, err := s.Get(ctx, "two-sum")
	require.NoError(t, err)
	assert.Equal(t, "array", again.Tags[0])
}
