// Package pool implements the Thread Pool and Barrier components: a fixed
// worker set draining a FIFO task queue, and a group-completion primitive
// tasks can notify on finish. The locking discipline mirrors
// scoped.Pool's mutex-guarded queue (Baxromumarov-scoped's pool.go), traded
// for an explicit condition variable instead of a buffered channel so the
// drain-on-shutdown and busy-wait semantics spec.md §4.9 describes come
// through unchanged.
package pool

import (
	"errors"
	"sync"
)

// ErrInvalidArgument is returned by NewBarrier for a negative count and by
// New for a non-positive worker count.
var ErrInvalidArgument = errors.New("pool: invalid argument")

// ErrOverCompletion is returned by Barrier.NotifyCompleted once more
// completions have been reported than the barrier was constructed with.
var ErrOverCompletion = errors.New("pool: barrier over-completion")

// Barrier is a non-copyable group-completion object: construct it with the
// number of completions to expect, have cooperating tasks call
// NotifyCompleted exactly once each, and have one or more waiters block in
// WaitForAll until the count reaches zero.
//
// A Barrier's lifetime must exceed every task holding a reference to it;
// callers typically keep it alive with a sync.WaitGroup-style join or by
// retaining it on the stack frame that calls WaitForAll.
type Barrier struct {
	mu        sync.Mutex
	cond      *sync.Cond
	remaining int
}

// NewBarrier constructs a Barrier expecting count completions. count must
// be non-negative; a Barrier built with count 0 is already satisfied.
func NewBarrier(count int) (*Barrier, error) {
	if count < 0 {
		return nil, ErrInvalidArgument
	}
	b := &Barrier{remaining: count}
	b.cond = sync.NewCond(&b.mu)
	return b, nil
}

// NotifyCompleted records one completion. Returns ErrOverCompletion if
// called more times than the barrier's initial count.
func (b *Barrier) NotifyCompleted() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.remaining <= 0 {
		return ErrOverCompletion
	}
	b.remaining--
	if b.remaining == 0 {
		b.cond.Broadcast()
	}
	return nil
}

// WaitForAll blocks until every expected completion has been reported.
func (b *Barrier) WaitForAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.remaining > 0 {
		b.cond.Wait()
	}
}

// Remaining reports the number of completions still outstanding. Intended
// for diagnostics; the value may be stale by the time the caller observes
// it.
func (b *Barrier) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}
