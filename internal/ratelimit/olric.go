package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/olric-data/olric"
	"github.com/rs/zerolog"
)

// Shared-backend tuning. The lock guards one bucket's evict-count-append
// cycle; it is held only for the bookkeeping round-trips, never across
// provider work.
const (
	// lockHold is the auto-release timeout for a bucket lock, so a
	// crashed holder cannot wedge the bucket.
	lockHold = 2 * time.Second

	// lockAcquire is how long we wait to acquire a bucket lock before
	// degrading to the local shadow limiter.
	lockAcquire = 500 * time.Millisecond
)

// sharedLimiter implements Limiter on an Olric DMap.
//
// The sliding window for each bucket is a time-ordered list of admission
// timestamps stored under one key with TTL equal to the window length, so
// idle buckets clean themselves up. Window mutation happens under a
// per-bucket distributed lock (evict, count, append must be atomic across
// instances). Session counters use Olric's server-side atomic Incr with a
// long expiry so abandoned sessions do not leak.
//
// Any store error degrades the affected call to a process-local shadow
// limiter instead of failing the request: availability is favored over
// perfect cross-instance accuracy.
type sharedLimiter struct {
	cfg      Config
	dmap     olric.DMap
	shadow   *localLimiter
	log      zerolog.Logger
	degraded atomic.Uint64

	// seen tracks bucket keys this instance has touched. Global reset
	// falls back to it when the cluster-wide scan fails.
	seenMu sync.Mutex
	seen   map[string]struct{}

	closed atomic.Bool
}

var _ Limiter = (*sharedLimiter)(nil)

// newShared creates an Olric-backed limiter over an existing DMap handle.
func newShared(cfg Config, dmap olric.DMap) *sharedLimiter {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}

	log := logger().With().Str("backend", "olric").Logger()
	log.Info().
		Int("requests", cfg.Requests).
		Dur("window", cfg.Window).
		Dur("session_ttl", cfg.SessionTTL).
		Msg("shared limiter created")

	return &sharedLimiter{
		cfg:    cfg,
		dmap:   dmap,
		shadow: newLocal(cfg),
		log:    log,
		seen:   make(map[string]struct{}),
	}
}

// DegradedCalls reports how many calls fell back to the local shadow
// limiter because of store errors.
func (l *sharedLimiter) DegradedCalls() uint64 {
	return l.degraded.Load()
}

func (l *sharedLimiter) windowKey(bucket Key) string {
	return "win:" + bucket.String()
}

func sessionKey(session, action string) string {
	return "sess:" + session + ":" + action
}

// degrade records a store failure and routes the call to the shadow limiter.
func (l *sharedLimiter) degrade(op string, err error) {
	l.degraded.Add(1)
	l.log.Warn().Err(err).Str("op", op).Msg("store error, degrading to local limiter")
}

// CheckAndIncrement admits or rejects a call against the shared window.
func (l *sharedLimiter) CheckAndIncrement(ctx context.Context, bucket Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.closed.Load() {
		return ErrClosed
	}
	if l.cfg.Requests <= 0 {
		return nil // unlimited
	}

	key := l.windowKey(bucket)
	l.rememberBucket(key)

	lock, err := l.dmap.LockWithTimeout(ctx, key+".lock", lockHold, lockAcquire)
	if err != nil {
		l.degrade("lock", err)
		return l.shadow.CheckAndIncrement(ctx, bucket)
	}
	defer func() {
		if uerr := lock.Unlock(ctx); uerr != nil {
			l.log.Debug().Err(uerr).Str("bucket", key).Msg("bucket unlock failed")
		}
	}()

	now := time.Now()
	window, err := l.loadWindow(ctx, key, now)
	if err != nil {
		l.degrade("get", err)
		return l.shadow.CheckAndIncrement(ctx, bucket)
	}

	if len(window) >= l.cfg.Requests {
		retry := retryAfter(window[0], now, l.cfg.Window)
		l.log.Debug().
			Str("bucket", key).
			Int("used", len(window)).
			Int("limit", l.cfg.Requests).
			Dur("retry_after", retry).
			Msg("rate limit exceeded")
		return &ExceededError{RetryAfter: retry}
	}

	window = append(window, now)
	if err := l.storeWindow(ctx, key, window); err != nil {
		l.degrade("put", err)
		return l.shadow.CheckAndIncrement(ctx, bucket)
	}
	return nil
}

// Status reports the shared window without mutating it.
func (l *sharedLimiter) Status(ctx context.Context, bucket Key) (Status, error) {
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}
	if l.closed.Load() {
		return Status{}, ErrClosed
	}

	now := time.Now()
	window, err := l.loadWindow(ctx, l.windowKey(bucket), now)
	if err != nil {
		l.degrade("status", err)
		return l.shadow.Status(ctx, bucket)
	}
	return windowStatus(window, now, l.cfg), nil
}

// CheckBudget reads a session counter without mutating it.
func (l *sharedLimiter) CheckBudget(ctx context.Context, session, action string, limit int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.closed.Load() {
		return ErrClosed
	}
	if limit <= 0 {
		return nil // unlimited
	}

	used, err := l.counter(ctx, sessionKey(session, action))
	if err != nil {
		l.degrade("budget_get", err)
		return l.shadow.CheckBudget(ctx, session, action, limit)
	}
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

// CommitUsage increments a session counter via the store's atomic Incr.
func (l *sharedLimiter) CommitUsage(ctx context.Context, session, action string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.closed.Load() {
		return ErrClosed
	}

	key := sessionKey(session, action)
	if _, err := l.dmap.Incr(ctx, key, 1); err != nil {
		l.degrade("incr", err)
		return l.shadow.CommitUsage(ctx, session, action)
	}

	// Refreshing the expiry is best-effort; a failure only means the
	// counter lives until the previous expiry.
	if err := l.dmap.Expire(ctx, key, l.cfg.SessionTTL); err != nil {
		l.log.Debug().Err(err).Str("key", key).Msg("session counter expire failed")
	}
	return nil
}

// SessionUsage assembles per-action counts for one session.
func (l *sharedLimiter) SessionUsage(ctx context.Context, session string) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.closed.Load() {
		return nil, ErrClosed
	}

	usage := make(map[string]int, len(Actions))
	for _, action := range Actions {
		used, err := l.counter(ctx, sessionKey(session, action))
		if err != nil {
			l.degrade("usage_get", err)
			return l.shadow.SessionUsage(ctx, session)
		}
		usage[action] = used
	}
	return usage, nil
}

// Reset clears one session's counters and/or all window state. A global
// reset scans the store for window keys, so buckets created by other
// instances clear too; if the scan fails it falls back to the buckets this
// instance has touched, and the rest drain on their TTL within one window
// length.
func (l *sharedLimiter) Reset(ctx context.Context, session string, global bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.closed.Load() {
		return ErrClosed
	}

	if session != "" {
		for _, action := range Actions {
			if _, err := l.dmap.Delete(ctx, sessionKey(session, action)); err != nil && !errors.Is(err, olric.ErrKeyNotFound) {
				l.degrade("reset_session", err)
				break
			}
		}
		if err := l.shadow.Reset(ctx, session, false); err != nil {
			return err
		}
	}

	if global {
		if err := l.clearAllWindows(ctx); err != nil {
			l.degrade("reset_global", err)
			l.clearSeenWindows(ctx)
		}
		if err := l.shadow.Reset(ctx, "", true); err != nil {
			return err
		}
	}

	l.log.Info().
		Str("session", session).
		Bool("global", global).
		Msg("limiter reset")
	return nil
}

// clearAllWindows deletes every window key in the store, including buckets
// created by other instances.
func (l *sharedLimiter) clearAllWindows(ctx context.Context) error {
	it, err := l.dmap.Scan(ctx, olric.Match("^win:"))
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		if _, err := l.dmap.Delete(ctx, it.Key()); err != nil && !errors.Is(err, olric.ErrKeyNotFound) {
			return err
		}
	}
	return nil
}

// clearSeenWindows deletes the buckets this instance has touched. Fallback
// for when a cluster-wide scan is unavailable.
func (l *sharedLimiter) clearSeenWindows(ctx context.Context) {
	l.seenMu.Lock()
	keys := make([]string, 0, len(l.seen))
	for k := range l.seen {
		keys = append(keys, k)
	}
	l.seenMu.Unlock()

	for _, k := range keys {
		if _, err := l.dmap.Delete(ctx, k); err != nil && !errors.Is(err, olric.ErrKeyNotFound) {
			l.degrade("reset_global_seen", err)
			break
		}
	}
}

// Close marks the limiter closed. The DMap handle is owned by the store
// client, which closes the underlying connection.
func (l *sharedLimiter) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	l.log.Debug().Msg("shared limiter closed")
	return l.shadow.Close()
}

// loadWindow reads and prunes a bucket's timestamp list.
// A missing key is an empty window.
func (l *sharedLimiter) loadWindow(ctx context.Context, key string, now time.Time) ([]time.Time, error) {
	resp, err := l.dmap.Get(ctx, key)
	if errors.Is(err, olric.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	raw, err := resp.Byte()
	if err != nil {
		return nil, err
	}

	var millis []int64
	if err := json.Unmarshal(raw, &millis); err != nil {
		// A corrupt window is unrecoverable state; start fresh rather
		// than rejecting traffic forever.
		l.log.Warn().Err(err).Str("key", key).Msg("corrupt window entry, resetting bucket")
		return nil, nil
	}

	window := make([]time.Time, 0, len(millis))
	for _, m := range millis {
		window = append(window, time.UnixMilli(m))
	}
	return pruneWindow(window, now, l.cfg.Window), nil
}

// storeWindow writes a bucket's timestamp list with TTL = window length,
// so idle buckets expire on their own.
func (l *sharedLimiter) storeWindow(ctx context.Context, key string, window []time.Time) error {
	millis := make([]int64, 0, len(window))
	for _, ts := range window {
		millis = append(millis, ts.UnixMilli())
	}
	raw, err := json.Marshal(millis)
	if err != nil {
		return err
	}
	return l.dmap.Put(ctx, key, raw, olric.EX(l.cfg.Window))
}

// counter reads an Incr-maintained counter; a missing key is zero.
func (l *sharedLimiter) counter(ctx context.Context, key string) (int, error) {
	resp, err := l.dmap.Get(ctx, key)
	if errors.Is(err, olric.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return resp.Int()
}

func (l *sharedLimiter) rememberBucket(key string) {
	l.seenMu.Lock()
	l.seen[key] = struct{}{}
	l.seenMu.Unlock()
}
