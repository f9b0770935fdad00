package worker

import (
	"time"
)

// defaultRetryDelays is the escalating backoff table: attempt 1 retries
// after 60s, attempt 2 after 5m, attempt 3 after 15m, anything beyond
// after 1h.
var defaultRetryDelays = []time.Duration{
	60 * time.Second,
	300 * time.Second,
	900 * time.Second,
	3600 * time.Second,
}

// BackoffPolicy maps an attempt count to the delay before the next
// attempt. Pure and table-based; attempts past the table are capped at
// the last entry.
type BackoffPolicy struct {
	delays []time.Duration
}

func NewBackoffPolicy(delays []time.Duration) BackoffPolicy {
	if len(delays) == 0 {
		delays = defaultRetryDelays
	}
	return BackoffPolicy{delays: delays}
}

// Delay returns the wait after the given 1-based attempt number.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > len(p.delays) {
		attempt = len(p.delays)
	}
	return p.delays[attempt-1]
}

// NextAttemptAt computes the reschedule time after a failed attempt.
func (p BackoffPolicy) NextAttemptAt(now time.Time, attempt int) time.Time {
	return now.Add(p.Delay(attempt))
}
