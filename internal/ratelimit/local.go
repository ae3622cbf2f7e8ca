package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// localLimiter implements Limiter with in-process state.
// Windows are time-ordered timestamp queues per bucket; session counters are
// a nested map. One mutex guards all state: lock scope covers only the
// bookkeeping, never the guarded operation itself.
type localLimiter struct {
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
	mu       sync.Mutex
	windows  map[string][]time.Time
	sessions map[string]map[string]int
	closed   atomic.Bool
}

var _ Limiter = (*localLimiter)(nil)

// NewLocal creates a process-local limiter.
func NewLocal(cfg Config) Limiter {
	return newLocal(cfg)
}

func newLocal(cfg Config) *localLimiter {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}

	log := logger().With().Str("backend", "local").Logger()
	log.Debug().
		Int("requests", cfg.Requests).
		Dur("window", cfg.Window).
		Msg("local limiter created")

	return &localLimiter{
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		windows:  make(map[string][]time.Time),
		sessions: make(map[string]map[string]int),
	}
}

// CheckAndIncrement admits or rejects a call against the bucket's window.
func (l *localLimiter) CheckAndIncrement(ctx context.Context, bucket Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.closed.Load() {
		return ErrClosed
	}
	if l.cfg.Requests <= 0 {
		return nil // unlimited
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := bucket.String()
	now := l.now()
	window := pruneWindow(l.windows[key], now, l.cfg.Window)

	if len(window) >= l.cfg.Requests {
		l.windows[key] = window
		retry := retryAfter(window[0], now, l.cfg.Window)
		l.log.Debug().
			Str("bucket", key).
			Int("used", len(window)).
			Int("limit", l.cfg.Requests).
			Dur("retry_after", retry).
			Msg("rate limit exceeded")
		return &ExceededError{RetryAfter: retry}
	}

	l.windows[key] = append(window, now)
	return nil
}

// Status reports the bucket's window without mutating it.
func (l *localLimiter) Status(ctx context.Context, bucket Key) (Status, error) {
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}
	if l.closed.Load() {
		return Status{}, ErrClosed
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	window := pruneWindow(l.windows[bucket.String()], now, l.cfg.Window)
	return windowStatus(window, now, l.cfg), nil
}

// CheckBudget is the read-only half of the two-phase budget protocol.
func (l *localLimiter) CheckBudget(ctx context.Context, session, action string, limit int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.closed.Load() {
		return ErrClosed
	}
	if limit <= 0 {
		return nil // unlimited
	}

	l.mu.Lock()
	used := l.sessions[session][action]
	l.mu.Unlock()

	if used >= limit {
		l.log.Debug().
			Str("session", session).
			Str("action", action).
			Int("used", used).
			Int("limit", limit).
			Msg("session budget exceeded")
		return ErrBudgetExceeded
	}
	return nil
}

// CommitUsage records one successful guarded operation.
func (l *localLimiter) CommitUsage(ctx context.Context, session, action string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.closed.Load() {
		return ErrClosed
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	counts, ok := l.sessions[session]
	if !ok {
		counts = make(map[string]int, len(Actions))
		l.sessions[session] = counts
	}
	counts[action]++
	return nil
}

// SessionUsage returns a copy of one session's counters.
func (l *localLimiter) SessionUsage(ctx context.Context, session string) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.closed.Load() {
		return nil, ErrClosed
	}

	l.mu.Lock()
	counts := l.sessions[session]
	usage := lo.SliceToMap(Actions, func(action string) (string, int) {
		return action, counts[action]
	})
	l.mu.Unlock()

	return usage, nil
}

// Reset clears one session's counters and/or all window state.
func (l *localLimiter) Reset(ctx context.Context, session string, global bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.closed.Load() {
		return ErrClosed
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if session != "" {
		delete(l.sessions, session)
	}
	if global {
		l.windows = make(map[string][]time.Time)
	}

	l.log.Info().
		Str("session", session).
		Bool("global", global).
		Msg("limiter reset")
	return nil
}

// Close marks the limiter closed. Idempotent.
func (l *localLimiter) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	l.log.Debug().Msg("local limiter closed")
	return nil
}

// pruneWindow drops timestamps older than now-window, preserving order.
func pruneWindow(window []time.Time, now time.Time, length time.Duration) []time.Time {
	cutoff := now.Add(-length)
	i := 0
	for i < len(window) && !window[i].After(cutoff) {
		i++
	}
	return window[i:]
}

// retryAfter computes the wait until the oldest in-window admission expires.
// Clamped to a minimum of one second so callers always get a usable hint.
func retryAfter(oldest, now time.Time, window time.Duration) time.Duration {
	retry := window - now.Sub(oldest)
	if retry < time.Second {
		retry = time.Second
	}
	return retry
}

// windowStatus assembles a Status snapshot from a pruned window.
func windowStatus(window []time.Time, now time.Time, cfg Config) Status {
	st := Status{
		Used:          len(window),
		Limit:         cfg.Requests,
		WindowSeconds: int(cfg.Window.Seconds()),
	}
	if len(window) > 0 {
		reset := cfg.Window - now.Sub(window[0])
		if reset < 0 {
			reset = 0
		}
		st.ResetSeconds = int(reset.Seconds() + 0.5)
	}
	return st
}
