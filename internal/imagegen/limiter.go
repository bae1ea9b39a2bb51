package imagegen

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

type rateLimited struct {
	next    Generator
	limiter *rate.Limiter
}

// RateLimited throttles calls to next with a token bucket. A non-positive
// perSecond disables limiting.
func RateLimited(next Generator, perSecond float64, burst int) Generator {
	if perSecond <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (r *rateLimited) Generate(ctx context.Context, prompt string, opts Options) ([]Image, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.next.Generate(ctx, prompt, opts)
}

type withTimeout struct {
	next    Generator
	timeout time.Duration
}

// WithTimeout bounds every call to next. A non-positive timeout disables it.
func WithTimeout(next Generator, timeout time.Duration) Generator {
	if timeout <= 0 {
		return next
	}
	return &withTimeout{next: next, timeout: timeout}
}

func (w *withTimeout) Generate(ctx context.Context, prompt string, opts Options) ([]Image, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	return w.next.Generate(ctx, prompt, opts)
}
