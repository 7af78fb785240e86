package monitor

import (
	"time"

	"github.com/oshokin/docker-watchman/internal/domain/watch"
)

// maxBackoffLevel bounds the exponent so the shift below never overflows.
const maxBackoffLevel = 30

// armBackoff opens the next mute window after an alert fires: the window
// doubles with each consecutive alert, capped at max, and the level advances.
// The level returns to zero only through the tracker's healthy reset.
func armBackoff(rec *watch.ContainerRecord, now time.Time, base, max time.Duration) {
	level := rec.BackoffLevel
	if level > maxBackoffLevel {
		level = maxBackoffLevel
	}

	delay := base << level
	if delay > max || delay <= 0 {
		delay = max
	}

	rec.MutedUntil = now.Add(delay)

	if rec.BackoffLevel < maxBackoffLevel {
		rec.BackoffLevel++
	}
}
