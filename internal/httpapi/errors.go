package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/salmon302/DSATrain-sub000/internal/gateway"
)

// Remaining-quota headers attached to rate-limit responses.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Type  string      `json:"type"`
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable kind and a human message.
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// statusFor maps gateway error kinds to HTTP status codes.
func statusFor(kind gateway.Kind) int {
	switch kind {
	case gateway.KindDisabled:
		return http.StatusServiceUnavailable
	case gateway.KindRateLimited, gateway.KindBudgetExceeded:
		return http.StatusTooManyRequests
	case gateway.KindCostCapExceeded:
		return http.StatusPaymentRequired
	case gateway.KindNotFound:
		return http.StatusNotFound
	case gateway.KindInternal:
		return http.StatusBadGateway
	case gateway.KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteGatewayError maps a gateway error onto the wire: status code, kind,
// and for rate limits the Retry-After header.
func WriteGatewayError(w http.ResponseWriter, err error) {
	kind := gateway.KindOf(err)
	status := statusFor(kind)

	var gerr *gateway.Error
	if errors.As(err, &gerr) && gerr.Kind == gateway.KindRateLimited {
		setRetryAfter(w, gerr.RetryAfter)
	}

	message := "internal error"
	if gerr != nil {
		message = gerr.Message
	}

	WriteError(w, status, kind.String(), message)
}

// setRetryAfter sets the Retry-After header (RFC 6585), minimum one second.
func setRetryAfter(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
}

// WriteError writes a JSON error response in the gateway envelope.
func WriteError(w http.ResponseWriter, statusCode int, kind, message string) {
	response := ErrorResponse{
		Type: "error",
		Error: ErrorDetail{
			Kind:    kind,
			Message: message,
		},
	}

	writeJSON(w, statusCode, response)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
