// Package retry implements the backoff calculator and error classifier used
// by the adapter runner. Both are pure: no sleeping, no I/O.
package retry

import (
	"math"
	"math/rand"
	"time"

	"github.com/vietddude/ara/internal/core/domain"
)

// NextDelay computes the delay before the next attempt, given the 1-based
// attempt that just failed. The second return is false once the attempt
// budget is exhausted (attempt >= maxAttempts).
func NextDelay(p domain.RetryPolicy, attempt int) (time.Duration, bool) {
	return NextDelayRand(p, attempt, nil)
}

// NextDelayRand is NextDelay with an explicit jitter source, for
// deterministic tests. A nil rnd falls back to the shared source.
func NextDelayRand(p domain.RetryPolicy, attempt int, rnd *rand.Rand) (time.Duration, bool) {
	if attempt >= p.MaxAttempts {
		return 0, false
	}

	exp := attempt - 1
	if exp < 0 {
		exp = 0
	}
	delay := float64(p.BaseDelayMs) * math.Pow(p.BackoffMultiplier, float64(exp))
	if delay > float64(p.MaxDelayMs) {
		delay = float64(p.MaxDelayMs)
	}

	if p.Jitter {
		// Sample [0.5x, 1.0x] of the capped delay to avoid herd retries.
		f := rand.Float64
		if rnd != nil {
			f = rnd.Float64
		}
		delay = delay * (0.5 + f()*0.5)
	}

	return time.Duration(math.Round(delay)) * time.Millisecond, true
}
