package http

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiterConfig defines client-side request throttling.
type RateLimiterConfig struct {
	// RequestsPerSecond is the sustained request rate (0 = unlimited).
	RequestsPerSecond float64
	// Burst is the token bucket burst size.
	Burst int
}

// DefaultRateLimiterConfig returns sensible defaults (throttling disabled).
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{RequestsPerSecond: 0, Burst: 1}
}

// RateLimiter throttles outgoing requests to the backend using a token
// bucket. The backend is a single host, so one bucket suffices.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a rate limiter from the given configuration.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		return &RateLimiter{}
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)}
}

// Wait blocks until a request may proceed or the context is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil || rl.limiter == nil {
		return nil
	}
	return rl.limiter.Wait(ctx)
}
