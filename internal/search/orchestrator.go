package search

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Operation phases, emitted as structured events for observability.
const (
	phaseAcquiring = "acquiring_bulkhead"
	phasePrimary   = "primary_cascade"
	phaseLegacy    = "legacy_cascade"
	phaseSucceeded = "succeeded"
	phaseFailed    = "failed"
)

// Orchestrator is the search subsystem's single entry point. It owns the
// bulkhead and both cascades for the process lifetime; everything else is
// per-call state.
type Orchestrator struct {
	Primary  *Cascade
	Legacy   *Cascade
	Bulkhead *Bulkhead
}

// ExecuteSearch resolves q through the primary cascade and, only if that
// cascade exhausts, the legacy chain. It returns the first successful result
// set. When both cascades exhaust it fails with *UnavailableError carrying
// every failed attempt; a cancelled context fails with the context error.
// The bulkhead permit is released exactly once on every exit path.
func (o *Orchestrator) ExecuteSearch(ctx context.Context, q Query) ([]Result, error) {
	logger := log.With().
		Str("op", uuid.NewString()).
		Str("query", q.Text).
		Logger()
	if q.Section != "" {
		logger = logger.With().Str("section", q.Section).Logger()
	}

	logger.Debug().Str("phase", phaseAcquiring).Msg("search operation")
	token, err := o.Bulkhead.Acquire(ctx)
	if err != nil {
		logger.Debug().Str("phase", phaseFailed).Err(err).Msg("cancelled while awaiting bulkhead")
		return nil, err
	}
	defer token.Release()

	logger.Debug().Str("phase", phasePrimary).Msg("search operation")
	res, primaryAttempts, err := o.Primary.Resolve(ctx, q)
	if err == nil {
		logSucceeded(logger, o.Primary.Name(), len(res))
		return res, nil
	}
	if !errors.Is(err, ErrAllProvidersExhausted) {
		logger.Debug().Str("phase", phaseFailed).Err(err).Msg("search operation aborted")
		return nil, err
	}

	logger.Debug().Str("phase", phaseLegacy).Msg("search operation")
	res, legacyAttempts, err := o.Legacy.Resolve(ctx, q)
	if err == nil {
		logSucceeded(logger, o.Legacy.Name(), len(res))
		return res, nil
	}
	if !errors.Is(err, ErrAllProvidersExhausted) {
		logger.Debug().Str("phase", phaseFailed).Err(err).Msg("search operation aborted")
		return nil, err
	}

	attempts := make([]Attempt, 0, len(primaryAttempts)+len(legacyAttempts))
	attempts = append(attempts, primaryAttempts...)
	attempts = append(attempts, legacyAttempts...)
	logger.Warn().
		Str("phase", phaseFailed).
		Int("attempts", len(attempts)).
		Msg("all cascades exhausted")
	return nil, &UnavailableError{Query: q.Text, Attempts: attempts}
}

func logSucceeded(logger zerolog.Logger, cascade string, results int) {
	logger.Info().
		Str("phase", phaseSucceeded).
		Str("cascade", cascade).
		Int("results", results).
		Msg("search operation")
}

// ProviderStatus reports current availability per provider, primary cascade
// taking precedence where the legacy chain repeats a name.
func (o *Orchestrator) ProviderStatus() map[string]bool {
	out := o.Legacy.Registry().Status()
	for name, ok := range o.Primary.Registry().Status() {
		out[name] = ok
	}
	return out
}
