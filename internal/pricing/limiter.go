package pricing

import (
	"sync"
	"time"
)

// DefaultRequestInterval is the minimum spacing between outbound
// Scryfall requests, matching its published rate-limit guidance.
const DefaultRequestInterval = 100 * time.Millisecond

// Limiter enforces a minimum interval between events. The calling
// goroutine blocks for the remainder of the interval rather than
// failing; the sleep is bounded by the interval itself.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
	sleep    func(time.Duration)
}

// NewLimiter builds a limiter with the given minimum interval. A zero
// interval selects DefaultRequestInterval. The clock and sleep
// functions default to the real ones; tests substitute both.
func NewLimiter(interval time.Duration, now func() time.Time, sleep func(time.Duration)) *Limiter {
	if interval <= 0 {
		interval = DefaultRequestInterval
	}
	if now == nil {
		now = time.Now
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Limiter{interval: interval, now: now, sleep: sleep}
}

// Wait blocks until at least the configured interval has passed since
// the previous Wait returned, then records the new event time.
func (l *Limiter) Wait() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.last.IsZero() {
		if remaining := l.interval - l.now().Sub(l.last); remaining > 0 {
			l.sleep(remaining)
		}
	}
	l.last = l.now()
}
