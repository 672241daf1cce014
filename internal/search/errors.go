package search

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a provider failure.
type Kind int

const (
	KindAuth Kind = iota + 1
	KindRateLimit
	KindConnection
	KindTimeout
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindParse:
		return "parse"
	}
	return "unknown"
}

// ProviderError is a single provider failure. The cascade recovers from it
// by advancing to the next provider; it never reaches the caller raw.
type ProviderError struct {
	Provider string
	Kind     Kind
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool { return hasKind(err, KindAuth) }

// IsRateLimit reports whether err is a rate-limit rejection.
func IsRateLimit(err error) bool { return hasKind(err, KindRateLimit) }

// IsConnection reports whether err is a transport-level failure.
func IsConnection(err error) bool { return hasKind(err, KindConnection) }

// IsTimeout reports whether err is a per-attempt deadline failure.
func IsTimeout(err error) bool { return hasKind(err, KindTimeout) }

// IsParse reports whether err is a malformed-response failure.
func IsParse(err error) bool { return hasKind(err, KindParse) }

func hasKind(err error, k Kind) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == k
}

// retryable reports whether err is transient at the transport level. Only
// these failures qualify for the retry policy.
func retryable(err error) bool { return IsConnection(err) || IsTimeout(err) }

// ErrAllProvidersExhausted signals that every provider in one cascade
// failed. The orchestrator recovers from the primary cascade's exhaustion by
// trying the legacy chain; only double exhaustion is terminal.
var ErrAllProvidersExhausted = errors.New("all search providers exhausted")

// UnavailableError is the terminal failure of ExecuteSearch: both cascades
// exhausted. Attempts holds every failed provider invocation from both
// cascades, for diagnostics only.
type UnavailableError struct {
	Query    string
	Attempts []Attempt
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("search unavailable for %q: %d provider attempts failed", e.Query, len(e.Attempts))
}

func (e *UnavailableError) Unwrap() error { return ErrAllProvidersExhausted }

// classifyStatus maps an HTTP response status to a failure kind. Anything
// that is neither an auth rejection, a throttle, nor a request timeout reads
// as the backend being unusable.
func classifyStatus(status int) Kind {
	switch status {
	case 401, 403:
		return KindAuth
	case 429:
		return KindRateLimit
	case 408:
		return KindTimeout
	}
	return KindConnection
}

// classifyTransport maps an error from the HTTP client or an SDK transport
// to a failure kind.
func classifyTransport(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindConnection
}
