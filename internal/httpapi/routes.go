package httpapi

import (
	"net/http"

	"github.com/salmon302/DSATrain-sub000/internal/gateway"
)

// SetupRoutes creates the HTTP handler with all routes configured.
// Routes:
//   - POST /v1/ai/hint - tiered hints for a problem
//   - POST /v1/ai/review - code review
//   - POST /v1/ai/elaborate - practice prompt elaboration
//   - GET /v1/ai/status - admission state snapshot (session query param)
//   - POST /v1/ai/reset - administrative reset (gated by allow_reset)
//   - GET /health - liveness plus anomaly counters
func SetupRoutes(gw *gateway.Gateway) http.Handler {
	h := NewHandler(gw)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/ai/hint", h.Hint)
	mux.HandleFunc("POST /v1/ai/review", h.Review)
	mux.HandleFunc("POST /v1/ai/elaborate", h.Elaborate)
	mux.HandleFunc("GET /v1/ai/status", h.Status)
	mux.HandleFunc("POST /v1/ai/reset", h.Reset)
	mux.HandleFunc("GET /health", h.Health)

	// Middleware in order: request ID first so logging includes it.
	var handler http.Handler = mux
	handler = LoggingMiddleware()(handler)
	handler = RequestIDMiddleware()(handler)

	return handler
}
