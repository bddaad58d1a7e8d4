package profiler

import (
	"fmt"
	"sort"
)

// GetResults performs the single atomic dump described in spec.md §4.6:
// disable recording, drain every per-thread queue and the frame ledger
// under their locks (catalog before frames, per spec.md §5's lock order),
// reconcile frame boundaries, and populate the tag table. The caller must
// not re-enable recording before GetResults returns, or events may be lost
// or scrambled.
func (p *Profiler) GetResults() (*Bundle, error) {
	if p.cfg.disabled {
		return nil, ErrDisabled
	}

	// Step 1: disable recording (release ordering via recordingSwitch).
	p.rec.set(false)

	// Step 2/3: catalog lock, then frame ledger lock, in that order.
	p.catalog.lock.Lock()
	scopes := p.catalog.snapshotLocked()
	p.catalog.lock.Unlock()

	p.frames.lock.Lock()
	frames := p.frames.drainLocked()
	p.frames.lock.Unlock()

	count := p.registry.RegisteredCount()

	threadNames := make([]string, count)
	threadEvents := make([][]RecordedEvent, count)
	threadMaxDepth := make([]int32, count)
	anyRecords := false

	// Step 4: drain each registered thread's completed-events queue under
	// its own spinlock.
	for i := 0; i < count; i++ {
		state := p.states[i].Load()
		if state == nil {
			continue
		}
		events, name := state.drain()
		threadNames[i] = name
		threadEvents[i] = events
		if len(events) > 0 {
			anyRecords = true
		}

		var maxDepth int32
		for _, e := range events {
			if e.Depth > maxDepth {
				maxDepth = e.Depth
			}
		}
		threadMaxDepth[i] = maxDepth
	}

	// Step 6: populate the tag table by enumerating 0..Count(). A
	// misbehaving TagProvider hook is recovered and logged rather than
	// allowed to crash the extraction in progress.
	tagCount := p.safeTagCount()
	tags := make([]TagInfo, 0, tagCount)
	for id := int32(0); id < tagCount; id++ {
		tags = append(tags, p.safeTagInfo(id))
	}

	// Step 8: reconcile frame data.
	frameDataMissing := false
	now := p.cfg.clock()
	switch {
	case len(frames) == 0 && !anyRecords:
		frames = []FrameData{{Number: 0, Start: 0, End: 1}}
		frameDataMissing = true
	case len(frames) == 0:
		minStart, maxStart := minMaxStart(threadEvents)
		frames = []FrameData{{Number: 0, Start: minStart, End: maxStart}}
		frameDataMissing = true
	default:
		last := &frames[len(frames)-1]
		if !last.Complete() {
			last.End = now
		}
	}

	// Step 10: sort each thread's event queue by start time.
	for i := range threadEvents {
		events := threadEvents[i]
		sort.Slice(events, func(a, b int) bool {
			return events[a].Start < events[b].Start
		})
	}

	return &Bundle{
		frames:           frames,
		scopes:           scopes,
		tags:             tags,
		threadNames:      threadNames,
		threadEvents:     threadEvents,
		threadMaxDepth:   threadMaxDepth,
		frameDataMissing: frameDataMissing,
		anyRecords:       anyRecords,
		withCookie:       p.cfg.withCookie,
	}, nil
}

// safeTagCount calls the configured TagProvider's Count, recovering and
// logging a panic the way trace.Tracer.handleError reports anomalies it
// recovers from internally. A panicking hook degrades to "no tags" rather
// than aborting the snapshot.
func (p *Profiler) safeTagCount() (count int32) {
	defer func() {
		if r := recover(); r != nil {
			p.logAnomaly("tag provider Count panicked", r)
			count = 0
		}
	}()
	return p.cfg.tags.Count()
}

func (p *Profiler) safeTagInfo(id int32) (info TagInfo) {
	info.ID = id
	defer func() {
		if r := recover(); r != nil {
			p.logAnomaly("tag provider hook panicked", r)
			info = TagInfo{ID: id}
		}
	}()
	info.Name = p.cfg.tags.Name(id)
	info.R, info.G, info.B, info.A = p.cfg.tags.Color(id)
	return info
}

func (p *Profiler) logAnomaly(context string, r any) {
	if p.cfg.logger == nil {
		return
	}
	p.cfg.logger.Error(fmt.Errorf("%v", r), context)
}

func minMaxStart(threadEvents [][]RecordedEvent) (min, max int64) {
	first := true
	for _, events := range threadEvents {
		for _, e := range events {
			if first {
				min, max = e.Start, e.Start
				first = false
				continue
			}
			if e.Start < min {
				min = e.Start
			}
			if e.Start > max {
				max = e.Start
			}
		}
	}
	return min, max
}
