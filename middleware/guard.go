package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tallpine/shopcore"
	"github.com/tallpine/shopcore/metrics"
	"github.com/tallpine/shopcore/token"
)

var (
	// ErrMissingToken marks a request without a "Bearer " authorization
	// header. Any other scheme or an empty header is treated identically.
	ErrMissingToken = fmt.Errorf("%w: missing bearer token", shopcore.ErrAuthentication)
	// ErrForbidden marks an authenticated principal lacking the required
	// capability.
	ErrForbidden = fmt.Errorf("%w: insufficient capability", shopcore.ErrAuthorization)
)

type principalContextKey struct{}

// PrincipalFromContext returns the principal stored by [Guard.Require] or
// [ContextWithPrincipal].
func PrincipalFromContext(ctx context.Context) (*shopcore.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*shopcore.Principal)
	return p, ok
}

// ContextWithPrincipal stores an authenticated principal, for callers that
// run Authenticate themselves instead of using Require.
func ContextWithPrincipal(ctx context.Context, p *shopcore.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// Guard authenticates bearer tokens and enforces the admin capability.
// It is stateless per call and safe for unlimited concurrent use.
type Guard struct {
	tokens  *token.Manager
	metrics *metrics.Metrics
}

// NewGuard creates a Guard over the token manager. metrics may be nil.
func NewGuard(tokens *token.Manager, m *metrics.Metrics) *Guard {
	return &Guard{tokens: tokens, metrics: m}
}

// Authenticate verifies the raw Authorization header and returns the
// principal derived from the claims. It never returns a partially
// authenticated principal: any failure yields a nil principal and an error
// wrapping [shopcore.ErrAuthentication] or [shopcore.ErrAuthorization].
func (g *Guard) Authenticate(rawHeader string, requireAdmin bool) (*shopcore.Principal, error) {
	raw, ok := bearerToken(rawHeader)
	if !ok {
		g.metrics.ObserveAuthFailure()
		return nil, ErrMissingToken
	}

	claims, err := g.tokens.Decode(raw)
	if err != nil {
		g.metrics.ObserveAuthFailure()
		return nil, err
	}
	if claims.TokenType != token.TypeAccess {
		// Refresh tokens must never authenticate a protected resource.
		g.metrics.ObserveAuthFailure()
		return nil, token.ErrWrongTokenType
	}

	subjectID, err := claims.SubjectID()
	if err != nil {
		g.metrics.ObserveAuthFailure()
		return nil, err
	}

	p := shopcore.NewPrincipal(subjectID, claims.Username, claims.Admin)
	if requireAdmin && !p.Admin {
		return nil, ErrForbidden
	}
	return p, nil
}

// Require wraps next with bearer authentication. onError renders the
// failure; a nil onError falls back to plain http.Error.
func (g *Guard) Require(requireAdmin bool, onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, err error) {
			status := http.StatusUnauthorized
			if errors.Is(err, shopcore.ErrAuthorization) {
				status = http.StatusForbidden
			}
			http.Error(w, http.StatusText(status), status)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := g.Authenticate(r.Header.Get("Authorization"), requireAdmin)
			if err != nil {
				onError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	tok := value[len(bearer):]
	if tok == "" {
		return "", false
	}

	return tok, true
}
