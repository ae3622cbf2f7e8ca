package ledger

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"time"

	"github.com/olric-data/olric"
	"github.com/rs/zerolog"
)

// periodTTL bounds how long a period accumulator lives in the store.
// Comfortably longer than one calendar month so the current period never
// expires mid-month; old periods clean themselves up.
const periodTTL = 40 * 24 * time.Hour

// microPerUSD converts between USD floats and the integer micro-USD the
// store's atomic Incr works on.
const microPerUSD = 1_000_000

// sharedLedger implements Ledger on an Olric DMap.
//
// Period totals are integer micro-USD counters mutated with the store's
// server-side atomic Incr, so concurrent commits from multiple instances
// never lose updates. Store errors degrade the affected call to a local
// shadow ledger rather than failing the request.
type sharedLedger struct {
	cfg      Config
	dmap     olric.DMap
	shadow   Ledger
	log      zerolog.Logger
	degraded atomic.Uint64
	closed   atomic.Bool
}

var _ Ledger = (*sharedLedger)(nil)

// newShared creates an Olric-backed ledger over an existing DMap handle.
func newShared(cfg Config, dmap olric.DMap) *sharedLedger {
	log := logger().With().Str("backend", "olric").Logger()
	log.Info().Float64("cap_usd", cfg.MonthlyCapUSD).Msg("shared ledger created")

	return &sharedLedger{
		cfg:    cfg,
		dmap:   dmap,
		shadow: NewLocal(cfg),
		log:    log,
	}
}

// DegradedCalls reports how many calls fell back to the local shadow ledger.
func (l *sharedLedger) DegradedCalls() uint64 {
	return l.degraded.Load()
}

func periodKey(period string) string {
	return "cost:" + period
}

func (l *sharedLedger) degrade(op string, err error) {
	l.degraded.Add(1)
	l.log.Warn().Err(err).Str("op", op).Msg("store error, degrading to local ledger")
}

func (l *sharedLedger) Status(ctx context.Context) (PeriodStatus, error) {
	if err := ctx.Err(); err != nil {
		return PeriodStatus{}, err
	}
	if l.closed.Load() {
		return PeriodStatus{}, ErrClosed
	}

	period := CurrentPeriod()
	micro, err := l.counter(ctx, periodKey(period))
	if err != nil {
		l.degrade("status", err)
		return l.shadow.Status(ctx)
	}

	return PeriodStatus{
		Period:  period,
		UsedUSD: float64(micro) / microPerUSD,
		CapUSD:  l.cfg.MonthlyCapUSD,
	}, nil
}

func (l *sharedLedger) CanSpend(ctx context.Context, estimate float64) bool {
	return l.Precheck(ctx, estimate) == nil
}

func (l *sharedLedger) Precheck(ctx context.Context, estimate float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.closed.Load() {
		return ErrClosed
	}
	if l.cfg.MonthlyCapUSD <= 0 {
		return nil // unlimited
	}

	period := CurrentPeriod()
	micro, err := l.counter(ctx, periodKey(period))
	if err != nil {
		l.degrade("precheck", err)
		return l.shadow.Precheck(ctx, estimate)
	}

	used := float64(micro) / microPerUSD
	if used+estimate > l.cfg.MonthlyCapUSD {
		l.log.Debug().
			Str("period", period).
			Float64("used_usd", used).
			Float64("estimate_usd", estimate).
			Float64("cap_usd", l.cfg.MonthlyCapUSD).
			Msg("cost cap exceeded")
		return ErrCostCapExceeded
	}
	return nil
}

func (l *sharedLedger) Commit(ctx context.Context, actual float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.closed.Load() {
		return ErrClosed
	}
	if actual <= 0 {
		return nil
	}

	key := periodKey(CurrentPeriod())
	micro := int(math.Round(actual * microPerUSD))
	if micro <= 0 {
		micro = 1 // sub-microdollar costs still count
	}

	if _, err := l.dmap.Incr(ctx, key, micro); err != nil {
		l.degrade("commit", err)
		return l.shadow.Commit(ctx, actual)
	}

	// Best-effort TTL refresh so stale periods drain from the store.
	if err := l.dmap.Expire(ctx, key, periodTTL); err != nil {
		l.log.Debug().Err(err).Str("key", key).Msg("period expire failed")
	}

	l.log.Debug().
		Str("key", key).
		Float64("cost_usd", actual).
		Msg("cost committed")
	return nil
}

func (l *sharedLedger) ResetPeriod(ctx context.Context, period string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.closed.Load() {
		return ErrClosed
	}
	if period == "" {
		period = CurrentPeriod()
	}

	if _, err := l.dmap.Delete(ctx, periodKey(period)); err != nil && !errors.Is(err, olric.ErrKeyNotFound) {
		l.degrade("reset", err)
	}
	if err := l.shadow.ResetPeriod(ctx, period); err != nil {
		return err
	}

	l.log.Info().Str("period", period).Msg("ledger period reset")
	return nil
}

func (l *sharedLedger) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	l.log.Debug().Msg("shared ledger closed")
	return l.shadow.Close()
}

// counter reads an Incr-maintained micro-USD counter; missing keys are zero.
func (l *sharedLedger) counter(ctx context.Context, key string) (int, error) {
	resp, err := l.dmap.Get(ctx, key)
	if errors.Is(err, olric.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return resp.Int()
}
