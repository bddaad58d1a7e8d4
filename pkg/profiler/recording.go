package profiler

import "sync/atomic"

// recordingSwitch is the atomic boolean controlling whether scope exits
// commit their intervals and whether next_frame opens new frames. Go's
// atomic.Bool already gives the acquire/release ordering spec.md §4.5
// requires of reads and writes.
type recordingSwitch struct {
	on atomic.Bool
}

func (r *recordingSwitch) set(v bool) { r.on.Store(v) }
func (r *recordingSwitch) isOn() bool { return r.on.Load() }
