package profiler

// activeStackReserve is the initial capacity reserved for a thread's active
// stack, to avoid reallocation in the hot path of deeply (but boundedly)
// nested scopes (spec.md §3, Per-Thread State).
const activeStackReserve = 64

// RecordedEvent is a Timed Object augmented with the scope it belongs to,
// the call-stack depth it was entered at, and (when cookies are enabled) a
// per-thread monotonically increasing cookie.
type RecordedEvent struct {
	Key    ScopeKey
	Depth  int32
	Start  int64
	End    int64
	Cookie uint64
}

// Complete reports whether the event's exit has been recorded.
func (e RecordedEvent) Complete() bool { return e.Start < e.End }

// Valid reports whether the event is not a sentinel (start == end).
func (e RecordedEvent) Valid() bool { return e.Start != e.End }

// Duration is only meaningful for a Complete event.
func (e RecordedEvent) Duration() int64 { return e.End - e.Start }

// threadState is the per-thread recorder state: current call-stack depth,
// the in-progress active stack, and the queue of events whose scope_exit
// has already run (spec.md §3, §4.3).
type threadState struct {
	lock spinlock

	name string

	depth       int32
	activeStack []RecordedEvent

	completedEvents []RecordedEvent

	cookie uint64
}

func newThreadState() *threadState {
	return &threadState{
		depth:       -1,
		activeStack: make([]RecordedEvent, 0, activeStackReserve),
	}
}

// enter pushes a new RecordedEvent for key onto the active stack at the
// next depth. spec.md §4.3 permits skipping the
// clock read while recording is off; this implementation always reads it,
// to keep depth/time bookkeeping uniform.
func (t *threadState) enter(key ScopeKey, start int64, withCookie bool) {
	t.depth++

	var cookie uint64
	if withCookie {
		t.cookie++
		cookie = t.cookie
	}

	t.activeStack = append(t.activeStack, RecordedEvent{
		Key:   key,
		Depth: t.depth,
		Start: start,
		Cookie: cookie,
	})
}

// exit pops the top of the active stack, asserting it matches key. If
// recording is on, the popped event is stamped with end and, if valid
// (start != end), pushed onto completedEvents under the thread's own
// spinlock.
func (t *threadState) exit(key ScopeKey, end int64, recording bool) {
	n := len(t.activeStack)
	if n == 0 {
		panic(&AssertionError{Message: "scope_exit with no matching scope_enter"})
	}

	last := t.activeStack[n-1]
	if last.Key != key {
		panic(&AssertionError{Message: "scope_exit key does not match active stack top"})
	}
	t.activeStack = t.activeStack[:n-1]
	t.depth--

	if recording {
		last.End = end
		if last.Valid() {
			t.lock.Lock()
			t.completedEvents = append(t.completedEvents, last)
			t.lock.Unlock()
		}
	}
}

// drain atomically swaps out completedEvents for an empty slice and returns
// the drained contents, along with the thread's name. Used only by the
// snapshot extractor.
func (t *threadState) drain() ([]RecordedEvent, string) {
	t.lock.Lock()
	events := t.completedEvents
	t.completedEvents = nil
	name := t.name
	t.lock.Unlock()
	return events, name
}
