package search

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// stubProvider is an in-memory provider for cascade and orchestrator tests.
type stubProvider struct {
	name      string
	priority  int
	available bool
	results   []Result
	err       error
	search    func(ctx context.Context, q Query) ([]Result, error)

	mu    sync.Mutex
	calls int
}

func (s *stubProvider) Name() string    { return s.name }
func (s *stubProvider) Priority() int   { return s.priority }
func (s *stubProvider) Available() bool { return s.available }

func (s *stubProvider) Search(ctx context.Context, q Query) ([]Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.search != nil {
		return s.search(ctx, q)
	}
	return s.results, s.err
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newRegistry(t *testing.T, providers ...Provider) *Registry {
	t.Helper()
	reg := &Registry{}
	for _, p := range providers {
		if err := reg.Register(p); err != nil {
			t.Fatalf("register %s: %v", p.Name(), err)
		}
	}
	return reg
}

func connErr(name string) error {
	return &ProviderError{Provider: name, Kind: KindConnection, Err: errors.New("dial refused")}
}

func TestCascade_FirstSuccessWins(t *testing.T) {
	first := &stubProvider{name: "first", priority: 1, available: true, results: []Result{{Title: "hit", URL: "https://example.com", Source: "first"}}}
	second := &stubProvider{name: "second", priority: 2, available: true}

	c := NewCascade("primary", newRegistry(t, first, second))
	res, attempts, err := c.Resolve(context.Background(), Query{Text: "q"})
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if len(res) != 1 || res[0].Title != "hit" {
		t.Fatalf("unexpected results: %+v", res)
	}
	if len(attempts) != 0 {
		t.Fatalf("expected no failed attempts, got %d", len(attempts))
	}
	if second.callCount() != 0 {
		t.Fatalf("later provider invoked %d times after success", second.callCount())
	}
}

func TestCascade_PriorityOrderSkipsUnavailable(t *testing.T) {
	var order []string
	record := func(name string) func(context.Context, Query) ([]Result, error) {
		return func(context.Context, Query) ([]Result, error) {
			order = append(order, name)
			return nil, connErr(name)
		}
	}
	low := &stubProvider{name: "low", priority: 5, available: true, search: record("low")}
	skipped := &stubProvider{name: "skipped", priority: 2, available: false}
	high := &stubProvider{name: "high", priority: 1, available: true, search: record("high")}

	// Registered out of order; priority decides.
	c := NewCascade("primary", newRegistry(t, low, skipped, high))
	_, attempts, err := c.Resolve(context.Background(), Query{Text: "q"})
	if !errors.Is(err, ErrAllProvidersExhausted) {
		t.Fatalf("expected exhaustion, got %v", err)
	}
	if len(order) != 2 || order[0] != "high" || order[1] != "low" {
		t.Fatalf("unexpected invocation order: %v", order)
	}
	if skipped.callCount() != 0 {
		t.Fatalf("unavailable provider was invoked")
	}
	// Skips are not failures.
	if len(attempts) != 2 {
		t.Fatalf("expected 2 failed attempts, got %d", len(attempts))
	}
}

func TestCascade_TieBrokenByRegistrationOrder(t *testing.T) {
	var order []string
	a := &stubProvider{name: "a", priority: 3, available: true, search: func(context.Context, Query) ([]Result, error) {
		order = append(order, "a")
		return nil, connErr("a")
	}}
	b := &stubProvider{name: "b", priority: 3, available: true, search: func(context.Context, Query) ([]Result, error) {
		order = append(order, "b")
		return nil, connErr("b")
	}}

	c := NewCascade("primary", newRegistry(t, a, b))
	_, _, _ = c.Resolve(context.Background(), Query{Text: "q"})
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("tie not broken by registration order: %v", order)
	}
}

func TestCascade_EmptyResultIsSuccess(t *testing.T) {
	empty := &stubProvider{name: "empty", priority: 1, available: true, results: []Result{}}
	next := &stubProvider{name: "next", priority: 2, available: true}

	c := NewCascade("primary", newRegistry(t, empty, next))
	res, _, err := c.Resolve(context.Background(), Query{Text: "q"})
	if err != nil {
		t.Fatalf("empty result set must be a success, got %v", err)
	}
	if len(res) != 0 {
		t.Fatalf("expected zero documents, got %d", len(res))
	}
	if next.callCount() != 0 {
		t.Fatalf("cascade advanced past an empty success")
	}
}

func TestCascade_ExhaustionCollectsAttempts(t *testing.T) {
	a := &stubProvider{name: "a", priority: 1, available: true, err: connErr("a")}
	b := &stubProvider{name: "b", priority: 2, available: true, err: &ProviderError{Provider: "b", Kind: KindAuth, Err: errors.New("bad key")}}

	c := NewCascade("legacy", newRegistry(t, a, b))
	res, attempts, err := c.Resolve(context.Background(), Query{Text: "q"})
	if res != nil {
		t.Fatalf("expected no results, got %+v", res)
	}
	if !errors.Is(err, ErrAllProvidersExhausted) {
		t.Fatalf("expected ErrAllProvidersExhausted, got %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	if attempts[0].Provider != "a" || attempts[1].Provider != "b" {
		t.Fatalf("unexpected attempt providers: %+v", attempts)
	}
	if attempts[0].Cascade != "legacy" {
		t.Fatalf("attempt missing cascade name: %+v", attempts[0])
	}
	if !IsAuth(attempts[1].Err) {
		t.Fatalf("attempt error kind lost: %v", attempts[1].Err)
	}
}

func TestCascade_CancelledContextAbortsWithoutExhaustion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := &stubProvider{name: "first", priority: 1, available: true, search: func(ctx context.Context, q Query) ([]Result, error) {
		cancel()
		return nil, ctx.Err()
	}}
	second := &stubProvider{name: "second", priority: 2, available: true}

	c := NewCascade("primary", newRegistry(t, first, second))
	_, _, err := c.Resolve(ctx, Query{Text: "q"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrAllProvidersExhausted) {
		t.Fatalf("cancellation must not read as exhaustion")
	}
	if second.callCount() != 0 {
		t.Fatalf("cascade advanced after cancellation")
	}
}
