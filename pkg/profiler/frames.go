package profiler

// FrameData is a Timed Object augmented with a sequential, gapless frame
// number (spec.md §3).
type FrameData struct {
	Number uint64
	Start  int64
	End    int64
}

// Complete reports whether the frame has been closed.
func (f FrameData) Complete() bool { return f.End != 0 }

// frameLedger is the sequentially numbered frame sequence described in
// spec.md §4.4. Frame 0 is opened at construction, one of the two choices
// spec.md leaves open (see DESIGN.md).
type frameLedger struct {
	lock spinlock

	current uint64
	frames  []FrameData
}

func newFrameLedger(start int64) *frameLedger {
	return &frameLedger{
		frames: []FrameData{{Number: 0, Start: start}},
	}
}

// next closes the in-progress frame (if its number matches current),
// increments the frame number, and, if recording is on, opens a new frame.
func (l *frameLedger) next(now int64, recording bool) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if n := len(l.frames); n > 0 && l.frames[n-1].Number == l.current {
		l.frames[n-1].End = now
	}

	l.current++

	if recording {
		l.frames = append(l.frames, FrameData{Number: l.current, Start: now})
	}
}

// drainLocked swaps the ledger's frames for an empty slice and returns the
// drained contents. Used only by the snapshot extractor, which must already
// hold l.lock.
func (l *frameLedger) drainLocked() []FrameData {
	frames := l.frames
	l.frames = nil
	return frames
}
