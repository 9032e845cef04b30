package signal

import (
	"sync"
	"time"
)

// rateLimiter is a per-connection fixed-window counter. The window resets
// entirely on the first event after expiry; this is a deliberate
// approximation, not a rolling average.
type rateLimiter struct {
	max    int
	window time.Duration
	clock  func() time.Time

	mu   sync.Mutex
	wins map[string]*rateWindow
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

func newRateLimiter(max int, window time.Duration, clock func() time.Time) *rateLimiter {
	if clock == nil {
		clock = time.Now
	}
	return &rateLimiter{
		max:    max,
		window: window,
		clock:  clock,
		wins:   map[string]*rateWindow{},
	}
}

// Allow counts one event against connID's current window and reports whether
// it is within budget.
func (l *rateLimiter) Allow(connID string) bool {
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.wins[connID]
	if w == nil || now.After(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(l.window)}
		l.wins[connID] = w
	}
	w.count++
	return w.count <= l.max
}

// Forget drops connID's window. Called on disconnect.
func (l *rateLimiter) Forget(connID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.wins, connID)
}
