package rate

import (
	"context"
	"time"
)

const (
	// DefaultMaxRequests is the per-window request budget.
	DefaultMaxRequests = 100
	// DefaultWindow is the trailing window length.
	DefaultWindow = time.Hour

	defaultSweepInterval = 5 * time.Minute
)

// Config holds sliding-window tuning parameters.
type Config struct {
	MaxRequests   int
	Window        time.Duration
	SweepInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRequests <= 0 {
		c.MaxRequests = DefaultMaxRequests
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = defaultSweepInterval
	}
	return c
}

// Decision is the outcome of one admission check, including the
// observability fields surfaced as X-RateLimit-* headers.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter admits or rejects a request for one client identifier.
// Implementations must apply eviction, the count check, and the append
// atomically per client.
type Limiter interface {
	Allow(ctx context.Context, clientID string) (Decision, error)
}
