package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/tallpine/shopcore"
	"github.com/tallpine/shopcore/internal/rate"
	"github.com/tallpine/shopcore/metrics"
)

// RateLimitError carries the limiter decision for a rejected request so the
// boundary can render retry-after guidance. It wraps
// [shopcore.ErrRateLimited].
type RateLimitError struct {
	Decision rate.Decision
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.Decision.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return shopcore.ErrRateLimited }

// RateLimit wraps next with per-client admission control. Every response
// carries X-RateLimit-Limit/Remaining/Reset; rejections additionally carry
// Retry-After and are rendered through onError. metrics may be nil.
func RateLimit(limiter rate.Limiter, m *metrics.Metrics, onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := limiter.Allow(r.Context(), ClientIP(r))
			if err != nil {
				// Fail open on limiter backend trouble: admission control
				// must not take the API down with it.
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			m.ObserveAdmission(decision.Allowed)
			if !decision.Allowed {
				retry := int64(decision.RetryAfter.Seconds())
				if retry < 1 {
					retry = 1
				}
				h.Set("Retry-After", strconv.FormatInt(retry, 10))
				onError(w, r, &RateLimitError{Decision: decision})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP derives the rate-limit client identifier for a request: the
// first X-Forwarded-For hop when present, else the remote address host.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
