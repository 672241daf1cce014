package search

import (
	"context"
	"sync"
)

// DefaultBulkheadSize bounds concurrent in-flight search operations across
// the whole process.
const DefaultBulkheadSize = 3

// Bulkhead is a counting semaphore isolating the search subsystem's outbound
// concurrency from the rest of the process. Acquire suspends the caller, not
// the runtime, so unrelated work keeps running while an operation waits.
type Bulkhead struct {
	permits chan struct{}
}

// NewBulkhead returns a bulkhead with n permits; n below 1 is raised to 1.
func NewBulkhead(n int) *Bulkhead {
	if n < 1 {
		n = 1
	}
	return &Bulkhead{permits: make(chan struct{}, n)}
}

// Acquire obtains a permit, suspending until one frees up or ctx is done.
// On cancellation no permit is held and there is nothing to release.
func (b *Bulkhead) Acquire(ctx context.Context) (*Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case b.permits <- struct{}{}:
		return &Token{bulkhead: b}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Token is a scoped bulkhead permit.
type Token struct {
	bulkhead *Bulkhead
	once     sync.Once
}

// Release returns the permit. It must run exactly once per acquisition on
// every exit path; calls after the first are no-ops.
func (t *Token) Release() {
	t.once.Do(func() { <-t.bulkhead.permits })
}
