package search

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBulkhead_SuspendsWhenFull(t *testing.T) {
	b := NewBulkhead(1)
	token, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		second, err := b.Acquire(context.Background())
		if err != nil {
			t.Errorf("second acquire: %v", err)
			return
		}
		second.Release()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatalf("second acquire did not suspend while full")
	case <-time.After(50 * time.Millisecond):
	}

	token.Release()
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatalf("second acquire never resumed after release")
	}
}

func TestBulkhead_AcquireObservesCancellation(t *testing.T) {
	b := NewBulkhead(1)
	token, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer token.Release()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := b.Acquire(ctx)
		done <- err
	}()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cancelled acquire never returned")
	}

	// The cancelled waiter must not have consumed the permit.
	token.Release()
	fresh, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire after cancellation: %v", err)
	}
	fresh.Release()
}

func TestBulkhead_ReleaseIsIdempotent(t *testing.T) {
	b := NewBulkhead(2)
	token, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	token.Release()
	token.Release()

	// Both permits must be obtainable; a double release must not have
	// freed a phantom one.
	first, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire 1: %v", err)
	}
	second, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire 2: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := b.Acquire(ctx); err == nil {
		t.Fatalf("third acquire succeeded on a bulkhead of 2")
	}
	first.Release()
	second.Release()
}
