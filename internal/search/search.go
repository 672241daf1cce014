package search

import (
	"context"
	"time"
)

// Query is one search request. Text is the opaque query string; Section
// optionally names the originating report section and is used only for log
// correlation. Queries are immutable once issued.
type Query struct {
	Text    string
	Section string
}

// Result represents a single result document from any provider.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"` // provenance: name of the provider that produced it
}

// Provider is one external search or grounding backend.
//
// Available must be cheap and synchronous: it reports credential presence
// and last-known health without any network I/O. Search returns documents on
// success; an empty slice with a nil error means "no results found" and is a
// success, not a failure. Failures are reported as *ProviderError.
type Provider interface {
	Name() string
	Priority() int // lower is tried first
	Available() bool
	Search(ctx context.Context, q Query) ([]Result, error)
}

// Attempt records one failed provider invocation. Attempts feed logging and
// the terminal UnavailableError for diagnostics; callers must not use them
// for control flow.
type Attempt struct {
	Cascade  string
	Provider string
	Err      error
	Elapsed  time.Duration
}
