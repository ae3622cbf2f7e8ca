package ledger

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// localLedger implements Ledger with an in-process accumulator per period.
type localLedger struct {
	cfg     Config
	log     zerolog.Logger
	mu      sync.Mutex
	periods map[string]float64
	closed  atomic.Bool
}

var _ Ledger = (*localLedger)(nil)

// NewLocal creates a process-local ledger.
func NewLocal(cfg Config) Ledger {
	log := logger().With().Str("backend", "local").Logger()
	log.Debug().Float64("cap_usd", cfg.MonthlyCapUSD).Msg("local ledger created")

	return &localLedger{
		cfg:     cfg,
		log:     log,
		periods: make(map[string]float64),
	}
}

func (l *localLedger) Status(ctx context.Context) (PeriodStatus, error) {
	if err := ctx.Err(); err != nil {
		return PeriodStatus{}, err
	}
	if l.closed.Load() {
		return PeriodStatus{}, ErrClosed
	}

	period := CurrentPeriod()
	l.mu.Lock()
	used := l.periods[period]
	l.mu.Unlock()

	return PeriodStatus{Period: period, UsedUSD: used, CapUSD: l.cfg.MonthlyCapUSD}, nil
}

func (l *localLedger) CanSpend(ctx context.Context, estimate float64) bool {
	return l.Precheck(ctx, estimate) == nil
}

func (l *localLedger) Precheck(ctx context.Context, estimate float64) error {
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
	l.mu.Lock()
	used := l.periods[period]
	l.mu.Unlock()

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

func (l *localLedger) Commit(ctx context.Context, actual float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.closed.Load() {
		return ErrClosed
	}
	if actual <= 0 {
		return nil
	}

	period := CurrentPeriod()
	l.mu.Lock()
	l.periods[period] += actual
	total := l.periods[period]
	l.mu.Unlock()

	l.log.Debug().
		Str("period", period).
		Float64("cost_usd", actual).
		Float64("total_usd", total).
		Msg("cost committed")
	return nil
}

func (l *localLedger) ResetPeriod(ctx context.Context, period string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.closed.Load() {
		return ErrClosed
	}
	if period == "" {
		period = CurrentPeriod()
	}

	l.mu.Lock()
	delete(l.periods, period)
	l.mu.Unlock()

	l.log.Info().Str("period", period).Msg("ledger period reset")
	return nil
}

func (l *localLedger) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	l.log.Debug().Msg("local ledger closed")
	return nil
}
