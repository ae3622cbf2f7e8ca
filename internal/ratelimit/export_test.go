package ratelimit

import "time"

// SetNow overrides the local limiter's clock for deterministic window tests.
func SetNow(l Limiter, now func() time.Time) {
	if ll, ok := l.(*localLimiter); ok {
		ll.now = now
	}
}

// PruneWindow exposes window eviction for unit tests.
var PruneWindow = pruneWindow

// RetryAfter exposes retry-after computation for unit tests.
var RetryAfter = retryAfter
