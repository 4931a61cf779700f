// Package admission implements the byte-weighted admission gate that bounds
// how much file content may be resident on primary storage at once.
//
// The budget is the only shared mutable state in a verification run. Workers
// hold no lock during file I/O or release-command execution; the mutex here
// guards only the counter and the waiter queue.
package admission

import (
	"context"
	"fmt"
	"sync"
)

// Admissible reports whether a candidate of n bytes may start while active
// bytes are already in flight under the given limit.
//
// The second clause is the single-oversized-file relaxation: a candidate
// bigger than the whole budget is still admitted once nothing else is in
// flight, so a run always makes progress.
func Admissible(active, limit, n int64) bool {
	return active+n <= limit || active == 0
}

type waiter struct {
	n     int64
	ready chan struct{} // closed when the budget is handed to this waiter
}

// Budget is a weighted semaphore with byte-sized units and strict FIFO
// hand-off: a release grants the queue head first, so a later, smaller
// request never bypasses an earlier, larger one still waiting.
type Budget struct {
	limit int64

	mu      sync.Mutex
	active  int64
	waiters []*waiter
}

func NewBudget(limit int64) (*Budget, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("budget limit must be > 0 bytes, got %d", limit)
	}
	return &Budget{limit: limit}, nil
}

// Limit returns the configured ceiling in bytes.
func (b *Budget) Limit() int64 {
	return b.limit
}

// Active returns the bytes currently admitted.
func (b *Budget) Active() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Oversized reports whether a candidate of n bytes can only run under the
// single-oversized-file relaxation.
func (b *Budget) Oversized(n int64) bool {
	return n > b.limit
}

// Acquire blocks until n bytes of budget are available (or, for an oversized
// candidate, until the budget is completely idle), then admits the caller.
// Admission order is FIFO. On context cancellation the request is withdrawn
// and ctx.Err() returned; no budget is held.
func (b *Budget) Acquire(ctx context.Context, n int64) error {
	if n <= 0 {
		return fmt.Errorf("acquire size must be > 0 bytes, got %d", n)
	}

	b.mu.Lock()
	if len(b.waiters) == 0 && Admissible(b.active, b.limit, n) {
		b.active += n
		b.mu.Unlock()
		return nil
	}
	w := &waiter{n: n, ready: make(chan struct{})}
	b.waiters = append(b.waiters, w)
	b.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		b.mu.Lock()
		select {
		case <-w.ready:
			// Granted between Done firing and us taking the lock. Give the
			// budget back rather than admitting a canceled caller.
			b.active -= n
			b.grantLocked()
		default:
			b.removeLocked(w)
		}
		b.mu.Unlock()
		return ctx.Err()
	}
}

// Release returns n bytes to the budget and hands freed capacity to queued
// waiters in FIFO order. Releasing more than is held is a caller bug.
func (b *Budget) Release(n int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active -= n
	if b.active < 0 {
		panic("admission: released more budget than held")
	}
	b.grantLocked()
}

// grantLocked admits queued waiters from the front while they fit. Stops at
// the first waiter that does not fit, preserving FIFO fairness.
func (b *Budget) grantLocked() {
	for len(b.waiters) > 0 {
		head := b.waiters[0]
		if !Admissible(b.active, b.limit, head.n) {
			return
		}
		b.active += head.n
		b.waiters = b.waiters[1:]
		close(head.ready)
	}
}

func (b *Budget) removeLocked(w *waiter) {
	for i, cand := range b.waiters {
		if cand == w {
			b.waiters = append(b.waiters[:i], b.waiters[i+1:]...)
			return
		}
	}
}
