package readiness

import (
	"context"
	"time"
)

// Check reports whether the awaited condition currently holds. It must be
// side-effect free: the gate may invoke it up to maxAttempts times.
type Check func() bool

// Await polls check every interval until it returns true or maxAttempts
// evaluations have failed. The first evaluation happens immediately, so a
// condition that already holds costs no sleep. Total wait never exceeds
// interval times maxAttempts. A cancelled context ends the wait early with
// a false result.
func Await(ctx context.Context, check Check, interval time.Duration, maxAttempts int) bool {
	if check == nil || maxAttempts <= 0 {
		return false
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if check() {
			return true
		}
		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
	}
	return false
}
