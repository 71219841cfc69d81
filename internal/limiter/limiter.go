// Package limiter provides named counting semaphores bounding simultaneous
// network fetches and in-memory repository reads. Capacity is fixed at
// construction; capacity 0 means unbounded.
package limiter

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter is a counting semaphore. The zero capacity form imposes no bound.
type Limiter struct {
	name string
	sem  *semaphore.Weighted // nil when unbounded
}

// New creates a limiter with the given capacity. capacity <= 0 is unbounded.
func New(name string, capacity int) *Limiter {
	l := &Limiter{name: name}
	if capacity > 0 {
		l.sem = semaphore.NewWeighted(int64(capacity))
	}
	return l
}

// Name returns the limiter's name (fetch, read).
func (l *Limiter) Name() string { return l.name }

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l == nil || l.sem == nil {
		return ctx.Err()
	}
	return l.sem.Acquire(ctx, 1)
}

// Release frees a slot previously acquired.
func (l *Limiter) Release() {
	if l == nil || l.sem == nil {
		return
	}
	l.sem.Release(1)
}

// With runs fn holding a slot, releasing it on every exit path.
func (l *Limiter) With(ctx context.Context, fn func() error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn()
}
