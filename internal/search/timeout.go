package search

import (
	"context"
	"errors"
	"time"
)

// Per-attempt deadlines. Classic web-search calls get the longer budget;
// grounding and other LLM-backed calls the shorter one.
const (
	WebSearchTimeout = 30 * time.Second
	GroundingTimeout = 20 * time.Second
)

// WithTimeout wraps p so that every Search attempt runs under its own
// deadline of d. An attempt exceeding d fails with a timeout *ProviderError;
// the caller's context is untouched, so the cascade simply advances. A
// non-positive d returns p unwrapped.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &timeoutProvider{Provider: p, d: d}
}

type timeoutProvider struct {
	Provider
	d time.Duration
}

func (t *timeoutProvider) Search(ctx context.Context, q Query) ([]Result, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	res, err := t.Provider.Search(attemptCtx, q)
	if err == nil {
		return res, nil
	}
	if IsTimeout(err) {
		return nil, err
	}
	// Report the attempt deadline as a timeout only when the caller's own
	// context is still live; otherwise this is an operation-level
	// cancellation and must propagate as such.
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, &ProviderError{Provider: t.Name(), Kind: KindTimeout, Err: context.DeadlineExceeded}
	}
	return nil, err
}
