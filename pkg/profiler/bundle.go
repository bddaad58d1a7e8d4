package profiler

// Bundle is the immutable results of a single GetResults call: every
// per-thread event queue, the scope and tag tables, and the frame ledger
// at the moment of extraction (spec.md §3, §4.7). Bundles are owned by the
// caller once returned.
type Bundle struct {
	frames            []FrameData
	scopes            map[ScopeKey]*ScopeInfo
	tags              []TagInfo
	threadNames       []string
	threadEvents      [][]RecordedEvent
	threadMaxDepth    []int32
	frameDataMissing  bool
	anyRecords        bool
	withCookie        bool
}

// BundleData is the plain-data form of a Bundle's contents, used by
// pkg/resultio to reconstruct a Bundle when reading a serialized file
// without needing access to Bundle's private fields.
type BundleData struct {
	Frames           []FrameData
	Scopes           map[ScopeKey]*ScopeInfo
	Tags             []TagInfo
	ThreadNames      []string
	ThreadEvents     [][]RecordedEvent
	ThreadMaxDepth   []int32
	FrameDataMissing bool
	AnyRecords       bool
	WithCookie       bool
}

// NewBundle constructs a Bundle from already-decoded data. Used by
// pkg/resultio's reader; application code should obtain Bundles via
// Profiler.GetResults instead.
func NewBundle(d BundleData) *Bundle {
	return &Bundle{
		frames:           d.Frames,
		scopes:           d.Scopes,
		tags:             d.Tags,
		threadNames:      d.ThreadNames,
		threadEvents:     d.ThreadEvents,
		threadMaxDepth:   d.ThreadMaxDepth,
		frameDataMissing: d.FrameDataMissing,
		anyRecords:       d.AnyRecords,
		withCookie:       d.WithCookie,
	}
}

// Frames returns the frame ledger captured in this bundle.
func (b *Bundle) Frames() []FrameData { return b.frames }

// Scopes returns the scope catalog captured in this bundle.
func (b *Bundle) Scopes() map[ScopeKey]*ScopeInfo { return b.scopes }

// Tags returns the tag table captured in this bundle.
func (b *Bundle) Tags() []TagInfo { return b.tags }

// ThreadCount returns the number of threads represented in this bundle.
func (b *Bundle) ThreadCount() int { return len(b.threadNames) }

// ThreadName returns the name of thread id, or "" if out of range.
func (b *Bundle) ThreadName(id int) string {
	if id < 0 || id >= len(b.threadNames) {
		return ""
	}
	return b.threadNames[id]
}

// Events returns the recorded events for thread id, sorted by start time.
func (b *Bundle) Events(id int) []RecordedEvent {
	if id < 0 || id >= len(b.threadEvents) {
		return nil
	}
	return b.threadEvents[id]
}

// MaxDepth returns the deepest nesting level observed on thread id during
// the recorded session. Supplements spec.md's distillation with a
// diagnostic original_source/ThreadProfilerCore.hpp also tracks.
func (b *Bundle) MaxDepth(id int) int32 {
	if id < 0 || id >= len(b.threadMaxDepth) {
		return 0
	}
	return b.threadMaxDepth[id]
}

// IsFrameDataMissing reports whether the extractor had to synthesize frame
// boundaries because none were recorded (spec.md §4.6).
func (b *Bundle) IsFrameDataMissing() bool { return b.frameDataMissing }

// HasAnyRecords reports whether any thread's event queue was non-empty at
// extraction time.
func (b *Bundle) HasAnyRecords() bool { return b.anyRecords }

// WithCookie reports whether events in this bundle carry a per-thread
// cookie.
func (b *Bundle) WithCookie() bool { return b.withCookie }
