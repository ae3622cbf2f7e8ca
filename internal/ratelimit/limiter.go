// Package ratelimit provides admission control for AI-backed operations.
//
// Two independent resources are tracked:
//
//   - Global throughput: an exact sliding window per (provider, model) bucket.
//     Unlike fixed buckets, the window moves continuously, so bursts cannot
//     double the effective rate at window boundaries.
//   - Session budgets: named per-session action counters ("hint", "review",
//     "elaborate") checked against configured allowances. Budgets use a
//     two-phase protocol: CheckBudget before the guarded work, CommitUsage
//     only after it succeeded.
//
// Two interchangeable backends share identical semantics: a process-local one
// (mutex + time-ordered queue) and an Olric-backed one for horizontally scaled
// deployments. Backend choice is a construction-time decision; callers only
// see the Limiter interface.
//
// Basic usage:
//
//	lim := ratelimit.NewLocal(ratelimit.Config{Requests: 30, Window: time.Minute})
//
//	if err := lim.CheckAndIncrement(ctx, ratelimit.Key{Provider: "anthropic", Model: "claude-sonnet-4-5"}); err != nil {
//		var exceeded *ratelimit.ExceededError
//		if errors.As(err, &exceeded) {
//			// surface exceeded.RetryAfter to the caller
//		}
//	}
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Action names tracked against per-session budgets.
const (
	ActionHint      = "hint"
	ActionReview    = "review"
	ActionElaborate = "elaborate"
)

// Actions lists every budgeted action name.
// The shared backend iterates this to assemble session usage snapshots.
var Actions = []string{ActionHint, ActionReview, ActionElaborate}

// Common errors returned by limiters.
var (
	// ErrBudgetExceeded is returned when a session's allowance for an
	// action is exhausted. Distinct from the global throughput limit so
	// callers can react differently (no retry hint applies).
	ErrBudgetExceeded = errors.New("ratelimit: session budget exceeded")

	// ErrClosed is returned when operations are attempted on a closed limiter.
	ErrClosed = errors.New("ratelimit: limiter is closed")
)

// ExceededError is returned when the global sliding-window limit is hit.
// RetryAfter is the duration until the oldest in-window admission expires,
// never less than one second.
type ExceededError struct {
	RetryAfter time.Duration
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("ratelimit: rate limit exceeded, retry after %s", e.RetryAfter)
}

// Key identifies one sliding-window bucket.
type Key struct {
	Provider string
	Model    string
}

// String returns the bucket key in "provider:model" form.
func (k Key) String() string {
	return k.Provider + ":" + k.Model
}

// Status is a non-mutating snapshot of one bucket's window.
type Status struct {
	// Used is the number of admissions inside the current window.
	Used int `json:"used"`

	// Limit is the window cap.
	Limit int `json:"limit"`

	// WindowSeconds is the window length.
	WindowSeconds int `json:"window_seconds"`

	// ResetSeconds is the time until the oldest in-window admission
	// expires. Zero when the window is empty.
	ResetSeconds int `json:"reset_seconds"`
}

// Config holds sliding-window parameters shared by both backends.
type Config struct {
	// Requests is the window cap N. Zero or negative means unlimited.
	Requests int

	// Window is the sliding window length W.
	Window time.Duration

	// SessionTTL bounds how long abandoned session counters live in the
	// shared backend. Defaults to one week. The local backend keeps
	// counters until reset or process restart.
	SessionTTL time.Duration
}

// DefaultSessionTTL is applied when Config.SessionTTL is zero.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Limiter is the admission-control contract.
// All implementations must be safe for concurrent use, and the two backends
// must be behaviorally indistinguishable to callers.
type Limiter interface {
	// CheckAndIncrement admits the current call into the bucket's sliding
	// window or fails with *ExceededError carrying a retry-after hint.
	// Eviction of expired window entries happens lazily on each call.
	CheckAndIncrement(ctx context.Context, bucket Key) error

	// Status returns used/limit/window/reset for a bucket without
	// mutating window state.
	Status(ctx context.Context, bucket Key) (Status, error)

	// CheckBudget is a read-only precheck of a session's allowance for an
	// action. Fails with ErrBudgetExceeded when the consumed count is
	// already at or above limit. A limit <= 0 means unlimited.
	CheckBudget(ctx context.Context, session, action string, limit int) error

	// CommitUsage increments a session's consumed count for an action by
	// exactly one. Only call this after the guarded operation succeeded.
	CommitUsage(ctx context.Context, session, action string) error

	// SessionUsage returns the consumed count per action for one session.
	// Actions with no usage are reported as zero.
	SessionUsage(ctx context.Context, session string) (map[string]int, error)

	// Reset clears one session's counters (when session is non-empty)
	// and/or all window state (when global is true).
	Reset(ctx context.Context, session string, global bool) error

	// Close releases backend resources. Close is idempotent.
	Close() error
}
