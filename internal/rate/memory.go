package rate

import (
	"context"
	"sync"
	"time"
)

type clientWindow struct {
	mu       sync.Mutex
	times    []time.Time
	lastSeen time.Time
}

// MemoryLimiter is the in-process sliding window for single-instance
// deployments. Each client's window is guarded by its own lock so two
// concurrent requests from one client cannot both observe remaining quota.
type MemoryLimiter struct {
	config Config

	mu      sync.Mutex
	clients map[string]*clientWindow

	done      chan struct{}
	closeOnce sync.Once

	now func() time.Time
}

// NewMemoryLimiter creates a [MemoryLimiter] and starts its background
// sweep of idle clients. Callers must Close it when done.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	l := &MemoryLimiter{
		config:  cfg.withDefaults(),
		clients: make(map[string]*clientWindow),
		done:    make(chan struct{}),
		now:     time.Now,
	}
	go l.sweepLoop()
	return l
}

// Allow applies the sliding-window check for clientID.
func (l *MemoryLimiter) Allow(_ context.Context, clientID string) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	w, ok := l.clients[clientID]
	if !ok {
		w = &clientWindow{}
		l.clients[clientID] = w
	}
	l.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.lastSeen = now
	w.evict(now.Add(-l.config.Window))

	if len(w.times) >= l.config.MaxRequests {
		resetAt := w.times[0].Add(l.config.Window)
		return Decision{
			Allowed:    false,
			Limit:      l.config.MaxRequests,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}, nil
	}

	w.times = append(w.times, now)
	return Decision{
		Allowed:   true,
		Limit:     l.config.MaxRequests,
		Remaining: l.config.MaxRequests - len(w.times),
		ResetAt:   w.times[0].Add(l.config.Window),
	}, nil
}

// Close stops the background sweeper.
func (l *MemoryLimiter) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

func (w *clientWindow) evict(cutoff time.Time) {
	i := 0
	for i < len(w.times) && !w.times[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.times = append(w.times[:0], w.times[i:]...)
	}
}

func (l *MemoryLimiter) sweepLoop() {
	ticker := time.NewTicker(l.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep(l.now())
		case <-l.done:
			return
		}
	}
}

// sweep drops clients whose whole window has aged out, bounding memory for
// inactive identifiers.
func (l *MemoryLimiter) sweep(now time.Time) {
	cutoff := now.Add(-l.config.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	for id, w := range l.clients {
		w.mu.Lock()
		idle := w.lastSeen.Before(cutoff)
		w.mu.Unlock()
		if idle {
			delete(l.clients, id)
		}
	}
}
