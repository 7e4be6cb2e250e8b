// Command shopcore runs the order API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/tallpine/shopcore/httpapi"
	"github.com/tallpine/shopcore/internal/audit"
	"github.com/tallpine/shopcore/internal/config"
	"github.com/tallpine/shopcore/internal/observability"
	"github.com/tallpine/shopcore/internal/password"
	"github.com/tallpine/shopcore/internal/rate"
	"github.com/tallpine/shopcore/internal/store"
	"github.com/tallpine/shopcore/metrics"
	"github.com/tallpine/shopcore/order"
	"github.com/tallpine/shopcore/token"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.ServiceName, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("store open failed", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	if err := st.EnsureSchema(ctx); err != nil {
		log.Error("schema setup failed", "error", err)
		os.Exit(1)
	}
	log.Info("store ready", "driver", st.DriverName())

	tokens, err := token.NewManager(token.Config{
		Secret:     []byte(cfg.Token.Secret),
		AccessTTL:  cfg.Token.AccessTTL,
		RefreshTTL: cfg.Token.RefreshTTL,
		Issuer:     cfg.Token.Issuer,
		Leeway:     cfg.Token.Leeway,
	})
	if err != nil {
		log.Error("token manager setup failed", "error", err)
		os.Exit(1)
	}

	limiter, closeLimiter, err := buildLimiter(cfg)
	if err != nil {
		log.Error("rate limiter setup failed", "error", err)
		os.Exit(1)
	}
	defer closeLimiter()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	auditor := audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, audit.NewSlogSink(log))
	defer auditor.Close()
	registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "shopcore_audit_events_dropped_total",
		Help: "Audit events dropped because the dispatcher buffer was full.",
	}, func() float64 { return float64(auditor.Dropped()) }))

	hasher, err := password.NewHasher(password.DefaultParams())
	if err != nil {
		log.Error("password hasher setup failed", "error", err)
		os.Exit(1)
	}

	orders := order.NewService(st, order.Config{RestockOnCancel: cfg.Orders.RestockOnCancel}, log, m, auditor)
	api := httpapi.New(log, tokens, limiter, orders, st, hasher, m, auditor)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", observability.HTTPMiddleware(cfg.ServiceName)(api.Handler()))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	log.Info("listening", "addr", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
	log.Info("stopped")
}

// buildLimiter prefers the shared Redis window when REDIS_URL is set, falling
// back to the in-process limiter for single-node deployments.
func buildLimiter(cfg *config.Config) (rate.Limiter, func(), error) {
	rlCfg := rate.Config{
		MaxRequests: cfg.RateLimit.MaxRequests,
		Window:      cfg.RateLimit.Window,
	}
	if cfg.RedisURL == "" {
		l := rate.NewMemoryLimiter(rlCfg)
		return l, l.Close, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	return rate.NewRedisLimiter(client, rlCfg), func() { _ = client.Close() }, nil
}
