package gateway

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies gateway failures so transport adapters can map them to
// status codes without string matching. Kinds are stable: adding one is
// fine, renumbering is not.
type Kind int

const (
	// KindUnknown is returned by KindOf for non-gateway errors.
	KindUnknown Kind = iota

	// KindDisabled: the AI surface is turned off in configuration.
	KindDisabled

	// KindRateLimited: the global sliding-window limit rejected the call.
	// The error carries a retry-after hint.
	KindRateLimited

	// KindBudgetExceeded: the session's allowance for this action is
	// exhausted.
	KindBudgetExceeded

	// KindCostCapExceeded: admitting this call would push monthly spend
	// over the cap.
	KindCostCapExceeded

	// KindNotFound: the referenced problem does not exist.
	KindNotFound

	// KindInternal: the provider or a collaborator failed.
	KindInternal

	// KindInvalid: the caller's request is malformed (a missing reset
	// target, for example).
	KindInvalid
)

// String returns the kind's wire name.
func (k Kind) String() string {
	switch k {
	case KindDisabled:
		return "disabled"
	case KindRateLimited:
		return "rate_limited"
	case KindBudgetExceeded:
		return "budget_exceeded"
	case KindCostCapExceeded:
		return "cost_cap_exceeded"
	case KindNotFound:
		return "not_found"
	case KindInternal:
		return "internal"
	case KindInvalid:
		return "invalid_request"
	default:
		return "unknown"
	}
}

// Error is the typed failure every gateway operation returns.
// RetryAfter is populated only for KindRateLimited.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("gateway: %s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("gateway: %s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf extracts the kind from an error chain.
// Returns KindUnknown for nil and non-gateway errors.
func KindOf(err error) Kind {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return KindUnknown
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func errDisabled() *Error {
	return newError(KindDisabled, "AI assistance is disabled", nil)
}

func errRateLimited(retryAfter time.Duration, cause error) *Error {
	e := newError(KindRateLimited, "rate limit exceeded", cause)
	e.RetryAfter = retryAfter
	return e
}

func errBudgetExceeded(action string, cause error) *Error {
	return newError(KindBudgetExceeded, fmt.Sprintf("session budget for %q exhausted", action), cause)
}

func errCostCapExceeded(cause error) *Error {
	return newError(KindCostCapExceeded, "monthly cost cap reached", cause)
}

func errNotFound(problemID string) *Error {
	return newError(KindNotFound, fmt.Sprintf("problem %q not found", problemID), nil)
}

func errInternal(message string, cause error) *Error {
	return newError(KindInternal, message, cause)
}

func errInvalid(message string) *Error {
	return newError(KindInvalid, message, nil)
}
