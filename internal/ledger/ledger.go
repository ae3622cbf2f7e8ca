// Package ledger tracks monthly AI spend against a configurable cap.
//
// The ledger runs a two-phase protocol: Precheck rejects a request whose
// estimated cost would push the current calendar month over the cap, before
// any provider work happens; Commit records the actual cost (which a provider
// may report more precisely than the estimate) after the work succeeded.
// Splitting the phases avoids systematic over- or under-charging from static
// estimates.
//
// Totals are best-effort: in process memory for the local backend, in the
// shared Olric store for scaled deployments. Neither is durable across a
// full restart - a documented non-goal.
package ledger

import (
	"context"
	"errors"
	"time"
)

// ErrCostCapExceeded is returned by Precheck when the estimated cost would
// push the current period's total over the cap.
var ErrCostCapExceeded = errors.New("ledger: monthly cost cap exceeded")

// ErrClosed is returned when operations are attempted on a closed ledger.
var ErrClosed = errors.New("ledger: ledger is closed")

// PeriodStatus is a snapshot of the current accounting period.
type PeriodStatus struct {
	// Period is the calendar-month key, e.g. "2026-08".
	Period string `json:"period"`

	// UsedUSD is the committed spend in the period.
	UsedUSD float64 `json:"used_usd"`

	// CapUSD is the configured monthly cap. Zero means unlimited.
	CapUSD float64 `json:"cap_usd"`
}

// Config holds ledger parameters shared by both backends.
type Config struct {
	// MonthlyCapUSD is the spend cap per calendar month.
	// Zero or negative means unlimited.
	MonthlyCapUSD float64
}

// Ledger is the monthly-spend accounting contract.
// All implementations must be safe for concurrent use.
type Ledger interface {
	// Status returns the current period key, committed spend, and cap.
	Status(ctx context.Context) (PeriodStatus, error)

	// CanSpend reports whether an estimated cost fits under the cap.
	CanSpend(ctx context.Context, estimate float64) bool

	// Precheck fails with ErrCostCapExceeded iff used + estimate > cap
	// and the cap is positive.
	Precheck(ctx context.Context, estimate float64) error

	// Commit atomically adds an actual cost to the current period's
	// total. Costs <= 0 are a no-op.
	Commit(ctx context.Context, actual float64) error

	// ResetPeriod clears one period's accumulator. An empty key targets
	// the current period. Administrative use only.
	ResetPeriod(ctx context.Context, period string) error

	// Close releases backend resources. Close is idempotent.
	Close() error
}

// CurrentPeriod returns the calendar-month key for now, in UTC.
func CurrentPeriod() string {
	return PeriodOf(time.Now())
}

// PeriodOf returns the calendar-month key for a point in time, in UTC.
func PeriodOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}
