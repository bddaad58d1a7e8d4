package pool

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
)

// ErrPoolShuttingDown is returned by every add_task* submission once
// Shutdown has set running to false.
var ErrPoolShuttingDown = errors.New("pool: shutting down")

// SetupFunc is invoked exactly once by each worker, before it enters its
// task loop, receiving the total worker count and its own index. The
// application uses this to assign names/affinities/priorities and to
// auto-register the worker with a thread registry (spec.md §4.9).
type SetupFunc func(total, index int)

// task is the internal queue entry; every add_task* variant constructs one
// of these and pushes it under the queue mutex.
type task struct {
	run func()
}

// Option configures a Pool at construction. Mirrors profiler.Option's
// functional-options shape.
type Option func(*Pool)

// WithLogger registers a logger used to report a task panicking inside a
// worker, mirroring profiler.WithLogger/trace.WithLogger.
func WithLogger(l logr.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// Pool is a fixed-size worker set draining a FIFO task queue (spec.md
// §4.9). Workers are spawned at construction and run until Shutdown drains
// the queue and joins them.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []task
	running bool

	inFlight  atomic.Int64
	submitted atomic.Int64
	completed atomic.Int64
	errored   atomic.Int64
	workers   int
	wg        sync.WaitGroup

	logger logr.Logger
}

// PoolStats is a point-in-time snapshot of a Pool's counters, for callers
// that want to monitor queue pressure and error rate without instrumenting
// every task themselves (spec.md §3.4).
type PoolStats struct {
	Submitted  int64
	Completed  int64
	Errored    int64
	InFlight   int64
	QueueDepth int
	Workers    int
}

// Stats returns a snapshot of the pool's submission/completion counters and
// current queue depth. Submitted/Completed/Errored only ever grow; InFlight
// and QueueDepth fluctuate with in-progress work.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	depth := len(p.queue)
	p.mu.Unlock()

	return PoolStats{
		Submitted:  p.submitted.Load(),
		Completed:  p.completed.Load(),
		Errored:    p.errored.Load(),
		InFlight:   p.inFlight.Load(),
		QueueDepth: depth,
		Workers:    p.workers,
	}
}

// New spawns count workers, each running setup(count, index) once before
// entering its task loop. count must be >= 1.
func New(count int, setup SetupFunc, opts ...Option) (*Pool, error) {
	if count < 1 {
		return nil, ErrInvalidArgument
	}

	p := &Pool{running: true, workers: count}
	p.cond = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(count)
	for i := 0; i < count; i++ {
		go p.worker(count, i, setup)
	}
	return p, nil
}

// NewDefault spawns max(1, runtime.NumCPU()-1) workers, on the assumption
// that the spawning thread will also do work (spec.md §4.9).
func NewDefault(setup SetupFunc, opts ...Option) (*Pool, error) {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return New(n, setup, opts...)
}

// logAnomaly reports a worker's recovered panic, mirroring
// profiler/snapshot.go's logAnomaly.
func (p *Pool) logAnomaly(context string, r any) {
	if p.logger == nil {
		return
	}
	p.logger.Error(fmt.Errorf("%v", r), context)
}

func (p *Pool) worker(total, index int, setup SetupFunc) {
	defer p.wg.Done()
	if setup != nil {
		setup(total, index)
	}

	for {
		p.mu.Lock()
		for p.running && len(p.queue) == 0 {
			p.cond.Wait()
		}
		if !p.running && len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		t := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.inFlight.Add(1)
		panicked, r := runTask(t.run)
		p.inFlight.Add(-1)

		p.completed.Add(1)
		if panicked {
			p.errored.Add(1)
			p.logAnomaly("task panicked", r)
		}
	}
}

// runTask executes fn with panic recovery; a panicking task only fails
// itself, the worker loop continues. It reports whether fn panicked, and
// the recovered value, so the caller can fold that into the pool's error
// counter and anomaly log.
func runTask(fn func()) (panicked bool, recovered any) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			recovered = r
		}
	}()
	fn()
	return false, nil
}

func (p *Pool) enqueue(t task) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return ErrPoolShuttingDown
	}
	p.queue = append(p.queue, t)
	p.mu.Unlock()
	p.submitted.Add(1)
	p.cond.Signal()
	return nil
}

// AddTask enqueues fn with no result. Returns ErrPoolShuttingDown if the
// pool is draining.
func (p *Pool) AddTask(fn func()) error {
	return p.enqueue(task{run: fn})
}

// AddTaskWithBarrier enqueues fn and notifies b on completion, whether fn
// panicked or returned normally.
func (p *Pool) AddTaskWithBarrier(b *Barrier, fn func()) error {
	return p.enqueue(task{run: func() {
		defer b.NotifyCompleted()
		fn()
	}})
}

// AddTaskWithResult enqueues fn and returns a Future delivering its value
// or error. A panic inside fn is recovered and delivered through the
// future as a *PanicError.
func AddTaskWithResult[R any](p *Pool, fn func() (R, error)) (*Future[R], error) {
	fut := newFuture[R]()

	err := p.enqueue(task{run: func() {
		if runFutureTask(p, fut, fn) {
			p.errored.Add(1)
		}
	}})
	if err != nil {
		return nil, err
	}
	return fut, nil
}

// AddTaskWithResultAndBarrier combines AddTaskWithResult and
// AddTaskWithBarrier: the barrier is notified after the future is
// delivered.
func AddTaskWithResultAndBarrier[R any](p *Pool, b *Barrier, fn func() (R, error)) (*Future[R], error) {
	fut := newFuture[R]()

	err := p.enqueue(task{run: func() {
		defer b.NotifyCompleted()
		if runFutureTask(p, fut, fn) {
			p.errored.Add(1)
		}
	}})
	if err != nil {
		return nil, err
	}
	return fut, nil
}

// runFutureTask runs fn, recovering a panic into a *PanicError delivered
// through fut and logged via p, and reports whether the task ended in an
// error (including a recovered panic) so the caller can fold that into the
// pool's counters.
func runFutureTask[R any](p *Pool, fut *Future[R], fn func() (R, error)) (errored bool) {
	var zero R
	defer func() {
		if r := recover(); r != nil {
			fut.deliver(zero, newPanicError(r))
			p.logAnomaly("task panicked", r)
			errored = true
		}
	}()
	v, err := fn()
	fut.deliver(v, err)
	return err != nil
}

// Shutdown sets running to false, wakes every worker, and blocks until all
// workers have exited. Tasks already enqueued before Shutdown is called
// are drained and executed before any worker exits. Safe to call more
// than once.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.running {
		p.running = false
	}
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
}

// WaitForAll busy-loops on the in-flight counter until it reaches zero. It
// does not guarantee the queue is empty, only that no task was executing
// at the observation instant (spec.md §4.9, a documented limitation
// carried forward rather than papered over with a condition variable).
func (p *Pool) WaitForAll() {
	for p.inFlight.Load() != 0 {
		runtime.Gosched()
	}
}

// WorkerCount returns the number of workers spawned at construction.
func (p *Pool) WorkerCount() int { return p.workers }

// RemainingTaskCount returns the current queue depth under lock.
func (p *Pool) RemainingTaskCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}
