package pool

// Future is the handle add_task_with_result returns (spec.md §4.9):
// a single-value channel that the worker running the task publishes to
// exactly once, mirroring Baxromumarov-scoped's Result[T].
type Future[R any] struct {
	ch chan outcome[R]
}

type outcome[R any] struct {
	val R
	err error
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{ch: make(chan outcome[R], 1)}
}

func (f *Future[R]) deliver(val R, err error) {
	f.ch <- outcome[R]{val: val, err: err}
}

// Get blocks until the task completes and returns its value and error. A
// panicking task surfaces its recovered value wrapped in a *PanicError.
// Get is not safe to call more than once: the delivery channel carries a
// single value.
func (f *Future[R]) Get() (R, error) {
	o := <-f.ch
	return o.val, o.err
}
