package pool

import (
	"fmt"
	"runtime"
)

// PanicError wraps a recovered task panic together with the stack trace
// captured at the point of the panic, mirroring Baxromumarov-scoped's
// PanicError. A panicking task terminates only itself; the worker that ran
// it resumes pulling from the queue.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("pool: task panicked: %v\n\n%s", e.Value, e.Stack)
}

func newPanicError(v any) *PanicError {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{Value: v, Stack: string(buf[:n])}
}
