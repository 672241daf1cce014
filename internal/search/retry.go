package search

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Retry policy defaults, applied to the secondary HTTP-search provider.
const (
	DefaultRetryAttempts = 3
	DefaultRetryBase     = 1 * time.Second
	DefaultRetryCap      = 10 * time.Second
)

// WithRetry wraps p with bounded retries and exponential backoff. attempts
// is the total try count; non-positive knobs fall back to the defaults
// above. Only connection and timeout failures are retried; auth, rate-limit,
// and parse failures surface immediately. Backoff sleeps double from base up
// to cap and abort on caller cancellation. After the last attempt the most
// recent failure surfaces as a single error.
func WithRetry(p Provider, attempts int, base, cap time.Duration) Provider {
	if attempts < 1 {
		attempts = DefaultRetryAttempts
	}
	if base <= 0 {
		base = DefaultRetryBase
	}
	if cap <= 0 {
		cap = DefaultRetryCap
	}
	if cap < base {
		cap = base
	}
	return &retryProvider{Provider: p, attempts: attempts, base: base, cap: cap}
}

type retryProvider struct {
	Provider
	attempts int
	base     time.Duration
	cap      time.Duration
}

func (r *retryProvider) Search(ctx context.Context, q Query) ([]Result, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(r.backoff(attempt - 2))
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			}
			log.Debug().
				Str("provider", r.Name()).
				Int("attempt", attempt).
				Msg("retrying provider after transient failure")
		}
		res, err := r.Provider.Search(ctx, q)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// backoff returns the sleep before retry number n (zero-based): base,
// 2*base, 4*base, ... capped.
func (r *retryProvider) backoff(n int) time.Duration {
	d := r.base
	for i := 0; i < n && d < r.cap; i++ {
		d *= 2
	}
	if d > r.cap {
		d = r.cap
	}
	return d
}
