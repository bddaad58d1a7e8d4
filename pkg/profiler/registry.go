package profiler

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// DefaultMaxThreads is the default capacity of a Registry when no
// WithMaxThreads option is supplied. Mirrors spec.md §4.1's MAX_THREADS.
const DefaultMaxThreads = 16

// Registry assigns each participating goroutine a dense, zero-based id and
// a human name. Go has no native thread-local storage, so "thread" here
// means the calling goroutine, identified by the id Go itself prints in
// panic traces and runtime.Stack output; this identity is cached in a
// sync.Map so repeat lookups from the same goroutine skip the mutex that
// guards id assignment, approximating the thread-local cache spec.md §4.1
// describes.
type Registry struct {
	maxThreads int

	mu      sync.Mutex
	names   []string
	nextID  int

	cache sync.Map // goroutineID (int64) -> assigned id (int)
}

// NewRegistry creates a Registry with the given capacity. A capacity <= 0
// uses DefaultMaxThreads.
func NewRegistry(maxThreads int) *Registry {
	if maxThreads <= 0 {
		maxThreads = DefaultMaxThreads
	}
	return &Registry{
		maxThreads: maxThreads,
		names:      make([]string, 0, maxThreads),
	}
}

// MaxThreads returns this registry's capacity.
func (r *Registry) MaxThreads() int {
	return r.maxThreads
}

// CurrentThreadID lazily assigns the next id to the calling goroutine on
// first call, caching the result for subsequent lookups from the same
// goroutine. Returns ErrTooManyThreads if the registry is at capacity.
func (r *Registry) CurrentThreadID() (int, error) {
	gid := goroutineID()
	if v, ok := r.cache.Load(gid); ok {
		return v.(int), nil
	}
	return r.assign(gid, "")
}

// CurrentThreadName returns the name of the calling goroutine, assigning an
// id (with an empty name) as a side effect if one has not been assigned yet.
func (r *Registry) CurrentThreadName() (string, error) {
	id, err := r.CurrentThreadID()
	if err != nil {
		return "", err
	}
	return r.NameOf(id), nil
}

// AssignName assigns a name to the calling goroutine if it has no id yet.
// Returns true if this call performed the assignment; false (with the name
// ignored, not an error) if the goroutine already has an id.
func (r *Registry) AssignName(name string) (bool, error) {
	gid := goroutineID()
	if _, ok := r.cache.Load(gid); ok {
		return false, nil
	}
	if _, err := r.assign(gid, name); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Registry) assign(gid int64, name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.cache.Load(gid); ok {
		return v.(int), nil
	}

	if r.nextID >= r.maxThreads {
		return 0, ErrTooManyThreads
	}

	id := r.nextID
	r.nextID++
	r.names = append(r.names, name)
	r.cache.Store(gid, id)
	return id, nil
}

// RegisteredCount returns the number of goroutines that have registered so
// far.
func (r *Registry) RegisteredCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextID
}

// NameOf returns the name assigned to thread id, or "" if out of range.
func (r *Registry) NameOf(id int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id >= len(r.names) {
		return ""
	}
	return r.names[id]
}

// goroutineID parses the numeric goroutine id out of runtime.Stack.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]

	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if end := bytes.IndexByte(b, ' '); end >= 0 {
		b = b[:end]
	}

	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		// Should be unreachable: runtime.Stack's format is stable. Fall
		// back to 0 so a parsing hiccup degrades to "single thread"
		// rather than panicking the caller.
		return 0
	}
	return id
}
