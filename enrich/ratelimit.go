package enrich

import (
	"log/slog"
	"sync"
	"time"
)

// RateLimiter enforces a sliding-window request budget plus a minimum
// delay between consecutive requests, mirroring the enrichment API's
// published hourly limit and its undocumented velocity detection.
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	minDelay    time.Duration
	clock       Clock

	// The mutex is held across waits on purpose: it serializes
	// concurrent callers into a single consistently-ordered stream of
	// requests, which is what the window accounting assumes.
	mu       sync.Mutex
	requests []time.Time
	last     time.Time
}

// NewRateLimiter builds a limiter for maxRequests per window with at
// least minDelay between requests.
func NewRateLimiter(maxRequests int, window, minDelay time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		minDelay:    minDelay,
		clock:       systemClock{},
	}
}

// WithClock overrides the limiter's clock. Test hook.
func (rl *RateLimiter) WithClock(clock Clock) *RateLimiter {
	rl.clock = clock
	return rl
}

// Acquire blocks until one more request may be issued, then records it.
func (rl *RateLimiter) Acquire() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	rl.pruneLocked(now)

	if len(rl.requests) >= rl.maxRequests {
		oldest := rl.requests[0]
		wait := rl.window - now.Sub(oldest) + time.Second
		if wait > 0 {
			slog.Warn("rate limit window full, waiting",
				slog.Int("max_requests", rl.maxRequests),
				slog.Duration("wait", wait),
			)
			rl.clock.Sleep(wait)
			// The wait outlasted every recorded request, so the window
			// starts fresh rather than being re-pruned.
			rl.requests = rl.requests[:0]
			rl.last = rl.clock.Now()
		}
	}

	now = rl.clock.Now()
	if !rl.last.IsZero() {
		if since := now.Sub(rl.last); since < rl.minDelay {
			rl.clock.Sleep(rl.minDelay - since)
			now = rl.clock.Now()
		}
	}

	rl.requests = append(rl.requests, now)
	rl.last = now
}

// Remaining reports how many requests are left in the current window.
func (rl *RateLimiter) Remaining() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.pruneLocked(rl.clock.Now())
	return rl.maxRequests - len(rl.requests)
}

// Reset clears the window. Called after an abuse cooldown, where the
// wait already satisfied the constraint for every prior entry.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.requests = rl.requests[:0]
	rl.last = rl.clock.Now()
}

func (rl *RateLimiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-rl.window)
	keep := rl.requests[:0]
	for _, t := range rl.requests {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	rl.requests = keep
}
