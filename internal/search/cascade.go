package search

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Cascade tries a registry's providers in priority order until one
// succeeds. The primary provider system and the legacy fallback chain are
// both instances of this one type; the cascade itself never retries a
// provider.
type Cascade struct {
	name string
	reg  *Registry
}

func NewCascade(name string, reg *Registry) *Cascade {
	return &Cascade{name: name, reg: reg}
}

func (c *Cascade) Name() string { return c.name }

// Registry exposes the cascade's provider table, for status reporting.
func (c *Cascade) Registry() *Registry { return c.reg }

// Resolve runs q through the providers in ascending priority order and
// returns the first success. Providers unavailable at invocation time are
// skipped without counting as failures. An empty result set is a success and
// halts the cascade. When every provider fails, Resolve returns the failed
// attempts together with an error wrapping ErrAllProvidersExhausted. A
// cancelled context aborts with the context error, which is not exhaustion.
func (c *Cascade) Resolve(ctx context.Context, q Query) ([]Result, []Attempt, error) {
	var attempts []Attempt
	for _, p := range c.reg.Providers() {
		if err := ctx.Err(); err != nil {
			return nil, attempts, err
		}
		if !p.Available() {
			log.Debug().
				Str("cascade", c.name).
				Str("provider", p.Name()).
				Str("query", q.Text).
				Msg("provider unavailable, skipping")
			continue
		}

		start := time.Now()
		res, err := p.Search(ctx, q)
		elapsed := time.Since(start)
		if err == nil {
			log.Debug().
				Str("cascade", c.name).
				Str("provider", p.Name()).
				Str("query", q.Text).
				Dur("elapsed", elapsed).
				Int("results", len(res)).
				Msg("provider succeeded")
			return res, attempts, nil
		}
		if ctx.Err() != nil {
			return nil, attempts, ctx.Err()
		}
		attempts = append(attempts, Attempt{
			Cascade:  c.name,
			Provider: p.Name(),
			Err:      err,
			Elapsed:  elapsed,
		})
		log.Warn().
			Str("cascade", c.name).
			Str("provider", p.Name()).
			Str("query", q.Text).
			Dur("elapsed", elapsed).
			Err(err).
			Msg("provider failed")
	}
	return nil, attempts, fmt.Errorf("%s cascade: %w", c.name, ErrAllProvidersExhausted)
}
