package profiler

import "github.com/go-logr/logr"

// Option configures a Profiler. Mirrors the functional-options shape used
// throughout this module's teacher package (trace.TracerOption).
type Option func(*config)

type config struct {
	maxThreads int
	hash       HashFunc
	clock      ClockFunc
	tags       TagProvider
	withCookie bool
	disabled   bool
	logger     logr.Logger
}

func defaultConfig() config {
	return config{
		maxThreads: DefaultMaxThreads,
		hash:       DefaultHashFunc,
		clock:      NanosecondClock,
		tags:       emptyTagProvider{},
	}
}

// WithMaxThreads overrides the registry's capacity (spec.md §6.4,
// MAX_THREADS). Values <= 0 fall back to DefaultMaxThreads.
func WithMaxThreads(n int) Option {
	return func(c *config) { c.maxThreads = n }
}

// WithHashFunc overrides the 32-bit hash function used to derive ScopeKeys
// from scope identifiers. The default is FNV-1a.
func WithHashFunc(h HashFunc) Option {
	return func(c *config) { c.hash = h }
}

// WithClock overrides the monotonic clock adapter. Primarily useful in
// tests, mirroring trace.WithTimestampFn.
func WithClock(clock ClockFunc) Option {
	return func(c *config) { c.clock = clock }
}

// WithTagProvider supplies the application's tag table hooks (spec.md
// §6.4). Without this option every scope is untagged (NoTag only).
func WithTagProvider(tags TagProvider) Option {
	return func(c *config) { c.tags = tags }
}

// WithCookie enables stamping each RecordedEvent with a monotonically
// increasing per-thread cookie, for debugging out-of-order anomalies
// (spec.md §6.4).
func WithCookie() Option {
	return func(c *config) { c.withCookie = true }
}

// WithDisabled models spec.md §6.4's master enable knob: scope operations
// become no-ops and the profiler API returns ErrDisabled. Spec.md ties
// this to a compile-time knob; since this module has no code-generation
// gate, it is a runtime option instead (see DESIGN.md).
func WithDisabled() Option {
	return func(c *config) { c.disabled = true }
}

// WithLogger registers a logger used to report internal anomalies the
// profiler recovers from on its own, such as a tag provider hook panicking
// during a snapshot, mirroring trace.WithLogger.
func WithLogger(l logr.Logger) Option {
	return func(c *config) { c.logger = l }
}
