package enrich

import (
	"log/slog"
	"time"
)

// Clock abstracts time so limiter and client waits can be faked in tests.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// progressInterval controls how often long sleeps report remaining time.
const progressInterval = time.Minute

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Sleep waits for d, logging remaining time at a coarse interval so that
// multi-hour cooldowns show signs of life in the output.
func (systemClock) Sleep(d time.Duration) {
	if d <= 5*progressInterval {
		time.Sleep(d)
		return
	}
	remaining := d
	for remaining > 0 {
		step := progressInterval
		if step > remaining {
			step = remaining
		}
		time.Sleep(step)
		remaining -= step
		if remaining > 0 {
			slog.Info("still waiting", slog.Duration("remaining", remaining))
		}
	}
}

// SystemClock returns the real wall clock.
func SystemClock() Clock { return systemClock{} }
