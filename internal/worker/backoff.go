package worker

import (
	"math/rand"
	"time"
)

const (
	backoffBase   = 5 * time.Minute
	backoffCap    = 2 * time.Hour
	backoffJitter = 0.2
)

// Backoff returns the delay before a work item becomes eligible again after
// its nth failed attempt (1-based). The schedule doubles per attempt from a
// five minute base, with ±20% jitter so requeued items from a burst failure
// do not become eligible in lockstep, capped at two hours.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := backoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= backoffCap {
			d = backoffCap
			break
		}
	}
	jitter := 1 + backoffJitter*(2*rand.Float64()-1)
	out := time.Duration(float64(d) * jitter)
	if out > backoffCap {
		out = backoffCap
	}
	return out
}

// startOfDayUTC truncates t to midnight UTC, the boundary at which daily
// submission ceilings reset.
func startOfDayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// nextMidnightUTC is when a ceiling-deferred item becomes eligible again.
func nextMidnightUTC(t time.Time) time.Time {
	return startOfDayUTC(t).Add(24 * time.Hour)
}
