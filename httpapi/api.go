package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tallpine/shopcore/internal/audit"
	"github.com/tallpine/shopcore/internal/password"
	"github.com/tallpine/shopcore/internal/rate"
	"github.com/tallpine/shopcore/internal/store"
	"github.com/tallpine/shopcore/metrics"
	"github.com/tallpine/shopcore/middleware"
	"github.com/tallpine/shopcore/order"
	"github.com/tallpine/shopcore/router"
	"github.com/tallpine/shopcore/token"
)

// UserStore is the credential lookup the auth handlers need.
type UserStore interface {
	FindUserByUsername(ctx context.Context, username string) (*store.User, error)
	FindUserByID(ctx context.Context, id int64) (*store.User, error)
}

// API owns the HTTP surface. Construct with New, then mount Handler.
type API struct {
	log       *slog.Logger
	tokens    *token.Manager
	guard     *middleware.Guard
	limiter   rate.Limiter
	orders    *order.Service
	users     UserStore
	passwords *password.Hasher
	metrics   *metrics.Metrics
	audit     *audit.Dispatcher
}

// New wires the boundary. log must not be nil; limiter, metrics, and
// auditor may be nil, which disables the corresponding concern.
func New(
	log *slog.Logger,
	tokens *token.Manager,
	limiter rate.Limiter,
	orders *order.Service,
	users UserStore,
	passwords *password.Hasher,
	m *metrics.Metrics,
	auditor *audit.Dispatcher,
) *API {
	if log == nil {
		log = slog.Default()
	}
	return &API{
		log:       log,
		tokens:    tokens,
		guard:     middleware.NewGuard(tokens, m),
		limiter:   limiter,
		orders:    orders,
		users:     users,
		passwords: passwords,
		metrics:   m,
		audit:     auditor,
	}
}

// Handler builds the full middleware-wrapped route table.
func (a *API) Handler() http.Handler {
	rt := router.New()

	rt.Handle(http.MethodGet, "/health", a.handleHealth)

	rt.Handle(http.MethodPost, "/auth/login", a.handleLogin)
	rt.Handle(http.MethodPost, "/auth/refresh", a.handleRefresh)

	rt.Handle(http.MethodGet, "/products", a.handleListProducts)
	rt.Handle(http.MethodGet, "/products/{id}", a.handleGetProduct)
	rt.Handle(http.MethodPost, "/products", a.authed(true, a.handleCreateProduct))

	rt.Handle(http.MethodPost, "/orders", a.authed(false, a.handlePlaceOrder))
	rt.Handle(http.MethodGet, "/orders", a.authed(false, a.handleListOrders))
	rt.Handle(http.MethodGet, "/orders/{id}", a.authed(false, a.handleGetOrder))
	rt.Handle(http.MethodPost, "/orders/{id}/cancel", a.authed(false, a.handleCancelOrder))
	rt.Handle(http.MethodPatch, "/orders/{id}/status", a.authed(true, a.handleUpdateOrderStatus))

	rt.NotFound(func(w http.ResponseWriter, r *http.Request, _ []string) {
		a.writeError(w, r, router.ErrRouteNotFound)
	})

	var h http.Handler = rt
	if a.limiter != nil {
		h = middleware.RateLimit(a.limiter, a.metrics, a.rateLimited)(h)
	}
	return withRequestID(h)
}

// authed wraps a route handler with bearer authentication, storing the
// principal in the request context.
func (a *API) authed(requireAdmin bool, next router.HandlerFunc) router.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params []string) {
		principal, err := a.guard.Authenticate(r.Header.Get("Authorization"), requireAdmin)
		if err != nil {
			a.emitAudit(r, audit.Event{
				EventType: audit.EventAuthFailure,
				Error:     err.Error(),
			})
			a.writeError(w, r, err)
			return
		}
		ctx := middleware.ContextWithPrincipal(r.Context(), principal)
		next(w, r.WithContext(ctx), params)
	}
}

// rateLimited renders limiter rejections and records them in the audit
// stream.
func (a *API) rateLimited(w http.ResponseWriter, r *http.Request, err error) {
	a.emitAudit(r, audit.Event{
		EventType: audit.EventRateLimitRejected,
		Error:     err.Error(),
	})
	a.writeError(w, r, err)
}

func (a *API) emitAudit(r *http.Request, event audit.Event) {
	event.Timestamp = time.Now().UTC()
	event.RequestID = requestID(r.Context())
	event.IP = middleware.ClientIP(r)
	a.audit.Emit(r.Context(), event)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request, _ []string) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
