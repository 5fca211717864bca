package resilience

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter throttles operations to a sustained rate with a burst allowance.
type Limiter struct {
	rl *rate.Limiter
}

// NewLimiter admits ratePerSecond sustained operations with bursts up to
// burst. A non-positive rate disables throttling.
func NewLimiter(ratePerSecond float64, burst int) *Limiter {
	if ratePerSecond <= 0 {
		return &Limiter{rl: rate.NewLimiter(rate.Inf, 0)}
	}
	return &Limiter{rl: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Wait blocks until the limiter admits one operation or the context ends.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.rl.Wait(ctx)
}

// Allow reports whether one operation may proceed right now.
func (l *Limiter) Allow() bool {
	return l.rl.Allow()
}
