package restclient

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles outgoing requests with a token bucket.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter holding up to maxTokens tokens and adding
// one token every refillRate.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	limit := rate.Inf
	if refillRate > 0 {
		limit = rate.Every(refillRate)
	}
	return NewRateLimiterWithLimit(limit, maxTokens)
}

// NewRateLimiterWithLimit creates a limiter allowing limit events per second
// with the given burst.
func NewRateLimiterWithLimit(limit rate.Limit, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Allow reports whether a request may proceed now, consuming a token if so.
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// Tokens returns the number of tokens currently available.
func (rl *RateLimiter) Tokens() float64 {
	return rl.limiter.Tokens()
}
