package problems

import (
	"context"
	"sync"

	"github.com/samber/lo"
)

// memoryStore is the in-process catalog used by tests and by deployments
// that seed problems from configuration.
type memoryStore struct {
	mu       sync.RWMutex
	problems map[string]*Problem
}

var _ Store = (*memoryStore)(nil)

// NewMemory creates an in-memory store seeded with the given problems.
func NewMemory(seed ...*Problem) Store {
	m := &memoryStore{
		problems: make(map[string]*Problem, len(seed)),
	}
	for _, p := range seed {
		m.problems[p.ID] = clone(p)
	}
	return m
}

func (m *memoryStore) Get(ctx context.Context, id string) (*Problem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	p, ok := m.problems[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return clone(p), nil
}

func (m *memoryStore) Put(ctx context.Context, p *Problem) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.problems[p.ID] = clone(p)
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) List(ctx context.Context) ([]*Problem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Map(lo.Values(m.problems), func(p *Problem, _ int) *Problem {
		return clone(p)
	}), nil
}

func (m *memoryStore) Close() error {
	return nil
}

// clone copies a problem so callers cannot mutate stored state.
func clone(p *Problem) *Problem {
	cp := *p
	cp.Tags = append([]string(nil), p.Tags...)
	cp.Patterns = append([]string(nil), p.Patterns...)
	return &cp
}
