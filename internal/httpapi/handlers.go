package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/salmon302/DSATrain-sub000/internal/gateway"
	"github.com/salmon302/DSATrain-sub000/internal/ratelimit"
)

// maxRequestBody bounds request payloads. Code submissions are the largest
// legitimate input and stay well under this.
const maxRequestBody = 1 << 20

// Handler serves the gateway's operations over HTTP.
type Handler struct {
	gw *gateway.Gateway
}

// NewHandler wraps a gateway for HTTP exposure.
func NewHandler(gw *gateway.Gateway) *Handler {
	return &Handler{gw: gw}
}

// decode parses a JSON request body into dst.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("request body rejected")
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON request body")
		return false
	}
	return true
}

// setQuotaHeaders exposes the sliding-window state as response headers.
func setQuotaHeaders(w http.ResponseWriter, st ratelimit.Status) {
	remaining := st.Limit - st.Used
	if remaining < 0 {
		remaining = 0
	}
	w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(st.Limit))
	w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(remaining))
	w.Header().Set(HeaderRateLimitReset, strconv.Itoa(st.ResetSeconds))
}

// fail writes a gateway error, adding quota headers for rate limits so
// clients can back off intelligently.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, sessionID string, err error) {
	if gateway.KindOf(err) == gateway.KindRateLimited {
		if snap, serr := h.gw.Status(r.Context(), sessionID); serr == nil {
			setQuotaHeaders(w, snap.RateLimit)
		}
	}
	WriteGatewayError(w, err)
}

// Hint handles POST /v1/ai/hint.
func (h *Handler) Hint(w http.ResponseWriter, r *http.Request) {
	var req gateway.HintRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.gw.GenerateHint(r.Context(), req)
	if err != nil {
		h.fail(w, r, req.SessionID, err)
		return
	}

	setQuotaHeaders(w, resp.Usage.RateLimit)
	writeJSON(w, http.StatusOK, resp)
}

// Review handles POST /v1/ai/review.
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	var req gateway.ReviewRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Code == "" {
		WriteError(w, http.StatusBadRequest, "bad_request", "code is required")
		return
	}

	resp, err := h.gw.ReviewCode(r.Context(), req)
	if err != nil {
		h.fail(w, r, req.SessionID, err)
		return
	}

	setQuotaHeaders(w, resp.Usage.RateLimit)
	writeJSON(w, http.StatusOK, resp)
}

// Elaborate handles POST /v1/ai/elaborate.
func (h *Handler) Elaborate(w http.ResponseWriter, r *http.Request) {
	var req gateway.ElaborateRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.gw.ElaboratePrompts(r.Context(), req)
	if err != nil {
		h.fail(w, r, req.SessionID, err)
		return
	}

	setQuotaHeaders(w, resp.Usage.RateLimit)
	writeJSON(w, http.StatusOK, resp)
}

// Status handles GET /v1/ai/status. The session is passed as a query
// parameter; an absent session reports the anonymous bucket.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	snap, err := h.gw.Status(r.Context(), r.URL.Query().Get("session"))
	if err != nil {
		WriteGatewayError(w, err)
		return
	}

	setQuotaHeaders(w, snap.RateLimit)
	writeJSON(w, http.StatusOK, snap)
}

// resetRequest is the POST /v1/ai/reset payload.
type resetRequest struct {
	SessionID string `json:"session_id"`
	Global    bool   `json:"global"`
}

// Reset handles POST /v1/ai/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.gw.Reset(r.Context(), req.SessionID, req.Global); err != nil {
		WriteGatewayError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"anomalies": h.gw.Anomalies(),
	})
}
