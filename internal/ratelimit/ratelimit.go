package ratelimit

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outbound catalog API calls to a requests-per-second ceiling
// with no burst allowance: each permitted call is spaced at least 1/rate from
// the previous one. A single instance is shared process-wide.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter for the given requests-per-second ceiling.
func New(requestsPerSecond float64) (*Limiter, error) {
	if requestsPerSecond <= 0 {
		return nil, errors.New("requests per second must be positive")
	}
	interval := time.Duration(float64(time.Second) / requestsPerSecond)
	return &Limiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}, nil
}

// Wait blocks until the next call is permitted or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
