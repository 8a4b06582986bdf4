package enrich

import (
	"testing"
	"time"
)

func TestRateLimiterMinDelay(t *testing.T) {
	clock := newFakeClock()
	rl := NewRateLimiter(100, time.Hour, 2*time.Second).WithClock(clock)

	rl.Acquire()
	first := clock.Now()
	rl.Acquire()

	if got := clock.Now().Sub(first); got < 2*time.Second {
		t.Fatalf("gap between requests = %v, want >= 2s", got)
	}
	sleeps := clock.sleeps()
	if len(sleeps) != 1 || sleeps[0] != 2*time.Second {
		t.Fatalf("sleeps = %v, want [2s]", sleeps)
	}
}

func TestRateLimiterWindowFullWaitsAndClears(t *testing.T) {
	clock := newFakeClock()
	rl := NewRateLimiter(2, time.Hour, 0).WithClock(clock)

	rl.Acquire()
	rl.Acquire()
	if got := rl.Remaining(); got != 0 {
		t.Fatalf("remaining = %d, want 0", got)
	}

	rl.Acquire()

	sleeps := clock.sleeps()
	if len(sleeps) != 1 {
		t.Fatalf("sleeps = %v, want exactly one window wait", sleeps)
	}
	// Window fully elapsed plus the safety second.
	if sleeps[0] != time.Hour+time.Second {
		t.Fatalf("window wait = %v, want %v", sleeps[0], time.Hour+time.Second)
	}
	// The wait cleared the window, so only the new request counts.
	if got := rl.Remaining(); got != 1 {
		t.Fatalf("remaining after wait = %d, want 1", got)
	}
}

func TestRateLimiterPrunesExpiredRequests(t *testing.T) {
	clock := newFakeClock()
	rl := NewRateLimiter(2, time.Hour, 0).WithClock(clock)

	rl.Acquire()
	rl.Acquire()
	clock.advance(time.Hour + time.Minute)

	rl.Acquire()

	if sleeps := clock.sleeps(); len(sleeps) != 0 {
		t.Fatalf("sleeps = %v, want none after window expiry", sleeps)
	}
	if got := rl.Remaining(); got != 1 {
		t.Fatalf("remaining = %d, want 1", got)
	}
}

func TestRateLimiterNeverExceedsWindowBudget(t *testing.T) {
	clock := newFakeClock()
	const maxRequests = 5
	rl := NewRateLimiter(maxRequests, time.Hour, 0).WithClock(clock)

	var stamps []time.Time
	for i := 0; i < 17; i++ {
		rl.Acquire()
		stamps = append(stamps, clock.Now())
	}

	// No hour-long window may contain more than maxRequests stamps.
	for i := range stamps {
		inWindow := 0
		for j := i; j < len(stamps); j++ {
			if stamps[j].Sub(stamps[i]) < time.Hour {
				inWindow++
			}
		}
		if inWindow > maxRequests {
			t.Fatalf("window starting at %v holds %d requests, want <= %d",
				stamps[i], inWindow, maxRequests)
		}
	}
}

func TestRateLimiterReset(t *testing.T) {
	clock := newFakeClock()
	rl := NewRateLimiter(2, time.Hour, 0).WithClock(clock)

	rl.Acquire()
	rl.Acquire()
	rl.Reset()

	if got := rl.Remaining(); got != 2 {
		t.Fatalf("remaining after reset = %d, want 2", got)
	}
	rl.Acquire()
	if sleeps := clock.sleeps(); len(sleeps) != 0 {
		t.Fatalf("sleeps = %v, want none after reset", sleeps)
	}
}
