package profiler

import (
	"sync"
	"sync/atomic"
)

// Profiler is the process-wide (or, for tests, locally scoped) state that
// owns the thread registry, scope catalog, frame ledger, and per-thread
// recorders described in spec.md §4. Create one with New; most
// applications only ever need Default.
type Profiler struct {
	cfg config

	registry *Registry
	catalog  *Catalog
	frames   *frameLedger
	rec      recordingSwitch

	statesMu sync.Mutex
	states   []atomic.Pointer[threadState]
}

// New creates a Profiler. The zero value is not usable; always go through
// New.
func New(opts ...Option) *Profiler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxThreads <= 0 {
		cfg.maxThreads = DefaultMaxThreads
	}

	p := &Profiler{
		cfg:      cfg,
		registry: NewRegistry(cfg.maxThreads),
		catalog:  newCatalog(cfg.hash),
		frames:   newFrameLedger(cfg.clock()),
		states:   make([]atomic.Pointer[threadState], cfg.maxThreads),
	}
	return p
}

var defaultOnce sync.Once
var defaultProfiler *Profiler

// Default returns the process-wide Profiler, created with default options
// on first use. Mirrors spec.md §9's "process-wide singleton profiler".
func Default() *Profiler {
	defaultOnce.Do(func() {
		defaultProfiler = New()
	})
	return defaultProfiler
}

// CurrentThreadID returns the calling goroutine's id, assigning one on
// first call.
func (p *Profiler) CurrentThreadID() (int, error) {
	return p.registry.CurrentThreadID()
}

// CurrentThreadName returns the calling goroutine's name, assigning an id
// with an empty name as a side effect if it has none yet.
func (p *Profiler) CurrentThreadName() (string, error) {
	return p.registry.CurrentThreadName()
}

// RegisteredThreadCount returns the number of goroutines registered so
// far.
func (p *Profiler) RegisteredThreadCount() int {
	return p.registry.RegisteredCount()
}

// AssignThreadName assigns a name to the calling goroutine if it has no id
// yet, mirroring spec.md §4.1's assign_name.
func (p *Profiler) AssignThreadName(name string) (bool, error) {
	assigned, err := p.registry.AssignName(name)
	if err != nil {
		return false, err
	}
	if assigned {
		id, _ := p.registry.CurrentThreadID()
		state := p.stateFor(id)
		state.lock.Lock()
		state.name = name
		state.lock.Unlock()
	}
	return assigned, nil
}

// InsertScopeInfo interns scope metadata, deduplicating by the hash of
// identifier (spec.md §4.2).
func (p *Profiler) InsertScopeInfo(name, identifier, function, file string, line uint32, tag int32) *ScopeInfo {
	return p.catalog.Insert(name, identifier, function, file, line, tag)
}

// SetRecording toggles the recording switch (spec.md §4.5). Never blocks.
func (p *Profiler) SetRecording(on bool) {
	p.rec.set(on)
}

// GetStatus reports whether the profiler is currently recording. Returns
// ErrDisabled if the profiler was constructed with WithDisabled.
func (p *Profiler) GetStatus() (bool, error) {
	if p.cfg.disabled {
		return false, ErrDisabled
	}
	return p.rec.isOn(), nil
}

// MarkNextFrame closes the current frame and, if recording, opens the
// next one (spec.md §4.4).
func (p *Profiler) MarkNextFrame() {
	p.frames.next(p.cfg.clock(), p.rec.isOn())
}

// Guard is the call-site scoped acquisition returned by Enter: its Exit
// (or Close, for io.Closer-style defer) triggers scope_exit exactly once.
// See spec.md §9, "Compile-time scope-instrumentation expanded inline".
type Guard struct {
	p       *Profiler
	state   *threadState
	info    *ScopeInfo
	done    atomic.Bool
	noop    bool
}

// Exit runs scope_exit for this guard. Idempotent: subsequent calls are
// no-ops.
func (g *Guard) Exit() {
	if g == nil || g.noop || !g.done.CompareAndSwap(false, true) {
		return
	}
	g.state.exit(g.info.Key, g.p.cfg.clock(), g.p.rec.isOn())
}

// Close is an alias for Exit that satisfies io.Closer, so callers can
// write `defer guard.Close()`.
func (g *Guard) Close() error {
	g.Exit()
	return nil
}

// Enter runs scope_enter for info on the calling goroutine and returns a
// Guard whose Exit/Close performs the matching scope_exit (spec.md §4.3).
// If the profiler is disabled, Enter returns a no-op Guard.
func (p *Profiler) Enter(info *ScopeInfo) *Guard {
	if p.cfg.disabled {
		return &Guard{noop: true}
	}

	id, err := p.CurrentThreadID()
	if err != nil {
		// TooManyThreads: degrade to a no-op guard rather than panicking
		// a hot call site: callers that care can inspect CurrentThreadID
		// themselves ahead of time.
		return &Guard{noop: true}
	}

	state := p.stateFor(id)
	state.enter(info.Key, p.cfg.clock(), p.cfg.withCookie)

	return &Guard{p: p, state: state, info: info}
}

func (p *Profiler) stateFor(id int) *threadState {
	if s := p.states[id].Load(); s != nil {
		return s
	}

	p.statesMu.Lock()
	defer p.statesMu.Unlock()
	if s := p.states[id].Load(); s != nil {
		return s
	}
	s := newThreadState()
	p.states[id].Store(s)
	return s
}
