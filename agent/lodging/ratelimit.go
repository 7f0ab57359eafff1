package lodging

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spaces upstream calls. One instance is shared by every
// conversation in the process.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter admits at most burst permits in any window, spaced
// window/burst apart. The bucket holds a single token so no rolling window
// can see more than burst grants.
func NewRateLimiter(window time.Duration, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if window <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(window/time.Duration(burst)), 1)}
}

// Acquire blocks until a permit is available. It only fails when ctx ends
// first.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	if l == nil {
		return ctx.Err()
	}
	if err := l.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// Wait also refuses when the deadline is closer than the next
		// permit; that is still the caller's deadline.
		return context.DeadlineExceeded
	}
	return nil
}
