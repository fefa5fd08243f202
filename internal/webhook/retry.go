package webhook

import (
	"math/rand/v2"
	"time"
)

// Retry delays for exponential backoff. Attempts beyond the table reuse
// the last entry.
var retryDelays = []time.Duration{
	1 * time.Second,
	5 * time.Second,
	30 * time.Second,
	2 * time.Minute,
}

const (
	// DefaultMaxAttempts is the default maximum delivery attempts.
	DefaultMaxAttempts = 5

	// JitterFactor is the ±percentage of jitter applied to delays.
	JitterFactor = 0.2
)

// NextRetryDelay calculates next retry delay with exponential backoff + jitter.
// attemptCount is 0-indexed (after first failed attempt, attemptCount = 0).
func NextRetryDelay(attemptCount int) time.Duration {
	if attemptCount < 0 {
		attemptCount = 0
	}
	if attemptCount >= len(retryDelays) {
		attemptCount = len(retryDelays) - 1
	}

	base := retryDelays[attemptCount]

	jitterRange := float64(base) * JitterFactor
	jitter := (rand.Float64()*2 - 1) * jitterRange

	return time.Duration(float64(base) + jitter)
}

// IsExhausted returns true if max attempts have been reached.
func IsExhausted(attemptCount, maxAttempts int) bool {
	return attemptCount >= maxAttempts
}
