// Package problems provides the problem catalog the AI gateway consults.
//
// The gateway only needs enough of a problem to anchor hint generation and
// to distinguish "unknown problem" from "known problem": id, title,
// difficulty, topic tags, and algorithmic patterns. Full problem CRUD lives
// elsewhere in DSATrain; this package is the read-mostly collaborator the
// admission core depends on.
package problems

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a problem id is not in the catalog.
var ErrNotFound = errors.New("problems: problem not found")

// Problem is the catalog entry the gateway works with.
type Problem struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Difficulty  string   `json:"difficulty" yaml:"difficulty"` // easy | medium | hard
	Tags        []string `json:"tags" yaml:"tags"`
	Patterns    []string `json:"patterns" yaml:"patterns"`
	Description string   `json:"description" yaml:"description"`
}

// Store is the catalog access contract.
// All implementations must be safe for concurrent use.
type Store interface {
	// Get returns one problem by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Problem, error)

	// Put inserts or replaces a problem.
	Put(ctx context.Context, p *Problem) error

	// List returns all problems in unspecified order.
	List(ctx context.Context) ([]*Problem, error)

	// Close releases store resources. Close is idempotent.
	Close() error
}
