// Package semaphore bounds the number of accepted connections that are still
// waiting for their handshake.
package semaphore

import (
	"context"
)

// Semaphore is a counting semaphore backed by a buffered channel.
// A nil *Semaphore never blocks.
type Semaphore struct {
	sem chan struct{}
}

// New creates a semaphore with n free slots.
func New(n int) *Semaphore {
	sem := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		sem <- struct{}{}
	}
	return &Semaphore{sem: sem}
}

// Acquire blocks until a slot is free or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	if s == nil {
		return nil
	}

	select {
	case <-s.sem:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot if one is free without blocking.
func (s *Semaphore) TryAcquire() bool {
	if s == nil {
		return true
	}

	select {
	case <-s.sem:
		return true
	default:
		return false
	}
}

// Release frees a slot. Releasing more slots than were acquired is a no-op.
func (s *Semaphore) Release() {
	if s == nil {
		return
	}

	select {
	case s.sem <- struct{}{}:
	default:
	}
}

// InUse returns the number of slots currently held.
func (s *Semaphore) InUse() int {
	if s == nil {
		return 0
	}
	return cap(s.sem) - len(s.sem)
}
