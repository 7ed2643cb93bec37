package provider

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket shared by every call a provider makes.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter that holds at most maxTokens and regains
// one token every refillInterval.
func NewRateLimiter(maxTokens int, refillInterval time.Duration) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(refillInterval), maxTokens)}
}

// Wait blocks until a token is available or ctx is cancelled. It returns
// early when the wait would outlive ctx's deadline.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
