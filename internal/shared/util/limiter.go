package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket used to throttle repeated work such as
// watch-mode re-runs.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter allows r events per second with bursts of b.
func NewLimiter(r float64, b int) *Limiter {
	return &Limiter{
		inner: rate.NewLimiter(rate.Limit(r), b),
	}
}

// Allow reports whether n events may happen now, consuming tokens if so.
func (l *Limiter) Allow(n int) bool {
	return l.inner.AllowN(time.Now(), n)
}

// Wait blocks until n tokens are available or ctx is done.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	return l.inner.WaitN(ctx, n)
}

// SetLimit changes the rate; a non-positive r blocks every event.
func (l *Limiter) SetLimit(r float64) {
	l.inner.SetLimit(rate.Limit(r))
}
