package resilience

import (
	"math"
	"math/rand/v2"
	"time"
)

// maxBackoff caps any computed retry delay.
const maxBackoff = 5 * time.Minute

// Backoff computes the delay before retry number attempt (0-based). Fixed
// policies return base unchanged; exponential policies double per attempt
// with ±25% jitter. The result is capped at five minutes.
func Backoff(exponential bool, base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 5 * time.Second
	}
	if !exponential {
		return base
	}

	delay := float64(base) * math.Pow(2, float64(attempt))
	if delay > float64(maxBackoff) {
		delay = float64(maxBackoff)
	}

	// ±25% jitter so retries from a burst of failures spread out.
	jitterRange := delay * 0.25
	delay += (rand.Float64()*2 - 1) * jitterRange

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
