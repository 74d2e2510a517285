// ABOUTME: Exponential backoff with jitter for responder retries
// ABOUTME: Delay doubles per attempt, capped, with symmetric random jitter
package llm

import (
	"math/rand/v2"
	"time"
)

const (
	// maxBackoff caps a single retry delay regardless of attempt count
	maxBackoff = 30 * time.Second

	// jitterFraction spreads each delay by ±25% so concurrent retries
	// against the same endpoint don't synchronize
	jitterFraction = 4

	// maxShift bounds the doubling exponent before the cap applies
	maxShift = 30
)

// backoffDelay returns the pause before the given retry attempt.
// Attempt 0 is the initial try and waits nothing.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 || base <= 0 {
		return 0
	}
	if attempt > maxShift {
		attempt = maxShift
	}
	delay := base * time.Duration(1<<uint(attempt))
	if delay > maxBackoff || delay <= 0 {
		delay = maxBackoff
	}
	jitter := time.Duration(rand.Int64N(int64(delay)/2)) - delay/jitterFraction
	return delay + jitter
}
