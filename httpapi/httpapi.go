// Package httpapi is the HTTP boundary: it binds the router, guards, and
// rate limiter around the order workflow and renders every result in the
// wire envelope {success, data|error, meta}.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/tallpine/shopcore"
	"github.com/tallpine/shopcore/middleware"
)

const maxBodyBytes = 1 << 20

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
	Meta    *meta      `json:"meta,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type meta struct {
	RequestID  string `json:"request_id,omitempty"`
	RetryAfter int64  `json:"retry_after_seconds,omitempty"`
	ResetAt    int64  `json:"reset_at,omitempty"`
}

type requestIDKey struct{}

// withRequestID tags every request with an id, honoring an inbound
// X-Request-ID so callers can correlate across services.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: true,
		Data:    data,
		Meta:    &meta{RequestID: requestID(r.Context())},
	})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = io.NopCloser(io.LimitReader(r.Body, maxBodyBytes))
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", shopcore.ErrValidation, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: multiple JSON objects in body", shopcore.ErrValidation)
	}
	return nil
}

// statusOf maps an error to its HTTP status through the category sentinels,
// so a new component error never needs a new case here.
func statusOf(err error) int {
	switch {
	case errors.Is(err, shopcore.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, shopcore.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, shopcore.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, shopcore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shopcore.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, shopcore.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func codeOf(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_failed"
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		return "internal_error"
	}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)

	m := &meta{RequestID: requestID(r.Context())}
	var rle *middleware.RateLimitError
	if errors.As(err, &rle) {
		retry := int64(rle.Decision.RetryAfter.Seconds())
		if retry < 1 {
			retry = 1
		}
		m.RetryAfter = retry
		m.ResetAt = rle.Decision.ResetAt.Unix()
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		// Internal detail stays in the log, not on the wire.
		a.log.ErrorContext(r.Context(), "request failed",
			"request_id", m.RequestID, "path", r.URL.Path, "error", err)
		message = "internal error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: false,
		Error:   &errorBody{Code: codeOf(status), Message: message},
		Meta:    m,
	})
}

// tokenPair is the login/refresh response payload.
type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
