package resultio

import (
	"fmt"
	"io"
	"sort"

	"github.com/manvis/IYFThreading/pkg/profiler"
)

// DurationUnit selects how event durations are rendered in a text report.
type DurationUnit int

const (
	// Microseconds renders durations as e.g. "123.45us" and is the default.
	Microseconds DurationUnit = iota
	Nanoseconds
	Milliseconds
)

func (u DurationUnit) label() string {
	switch u {
	case Nanoseconds:
		return "ns"
	case Milliseconds:
		return "ms"
	default:
		return "us"
	}
}

func (u DurationUnit) convert(ns int64) float64 {
	switch u {
	case Nanoseconds:
		return float64(ns)
	case Milliseconds:
		return float64(ns) / 1e6
	default:
		return float64(ns) / 1e3
	}
}

// TextOption configures WriteText.
type TextOption func(*textConfig)

type textConfig struct {
	unit     DurationUnit
	colorize func(name string, tag int32) string
}

// WithDurationUnit selects the unit used to render event and frame
// durations.
func WithDurationUnit(u DurationUnit) TextOption {
	return func(c *textConfig) { c.unit = u }
}

// WithColorize supplies a hook that wraps a scope's rendered name given the
// tag it was inserted with (profiler.NoTag for an untagged scope). Callers
// (e.g. cmd/iyfrdump) use this to apply a terminal color derived from the
// tag's RGBA without this package depending on a color library itself.
func WithColorize(fn func(name string, tag int32) string) TextOption {
	return func(c *textConfig) { c.colorize = fn }
}

// WriteText renders b as a human-readable report grouped by thread, then
// frame by frame, with events indented by 2*depth+4 spaces (spec.md §6.2).
// Events that fall outside every recorded frame's [start, end) are
// labelled "Skipped early/late event".
func WriteText(w io.Writer, b *profiler.Bundle, opts ...TextOption) error {
	cfg := textConfig{unit: Microseconds}
	for _, opt := range opts {
		opt(&cfg)
	}

	frames := b.Frames()
	scopes := b.Scopes()

	for t := 0; t < b.ThreadCount(); t++ {
		events := b.Events(t)

		name := b.ThreadName(t)
		if name == "" {
			name = fmt.Sprintf("thread-%d", t)
		}
		if _, err := fmt.Fprintf(w, "== %s (%d events) ==\n", name, len(events)); err != nil {
			return err
		}

		if err := writeThreadFrames(w, frames, events, scopes, b.WithCookie(), cfg); err != nil {
			return err
		}
	}

	return nil
}

func writeThreadFrames(w io.Writer, frames []profiler.FrameData, events []profiler.RecordedEvent, scopes map[profiler.ScopeKey]*profiler.ScopeInfo, withCookie bool, cfg textConfig) error {
	// events is already sorted by start time by the snapshot extractor.
	idx := 0

	for _, f := range frames {
		if _, err := fmt.Fprintf(w, "  frame %d (%.2f%s)\n", f.Number, cfg.unit.convert(f.End-f.Start), cfg.unit.label()); err != nil {
			return err
		}

		for idx < len(events) && events[idx].Start < f.End {
			e := events[idx]
			if e.Start < f.Start {
				if err := writeSkipped(w, e, scopes); err != nil {
					return err
				}
				idx++
				continue
			}
			if err := writeEvent(w, e, scopes, withCookie, cfg); err != nil {
				return err
			}
			idx++
		}
	}

	for ; idx < len(events); idx++ {
		if err := writeSkipped(w, events[idx], scopes); err != nil {
			return err
		}
	}

	return nil
}

func writeSkipped(w io.Writer, e profiler.RecordedEvent, scopes map[profiler.ScopeKey]*profiler.ScopeInfo) error {
	_, err := fmt.Fprintf(w, "  Skipped early/late event: %s\n", eventLabel(e, scopes))
	return err
}

func writeEvent(w io.Writer, e profiler.RecordedEvent, scopes map[profiler.ScopeKey]*profiler.ScopeInfo, withCookie bool, cfg textConfig) error {
	indent := 2*int(e.Depth) + 4
	info, ok := scopes[e.Key]

	name := "<unknown>"
	function := ""
	tag := profiler.NoTag
	if ok {
		name = info.Name
		function = info.Function
		tag = info.Tag
	}
	if cfg.colorize != nil {
		name = cfg.colorize(name, tag)
	}

	cookie := ""
	if withCookie {
		cookie = fmt.Sprintf(" cookie=%d", e.Cookie)
	}

	_, err := fmt.Fprintf(w, "%*s%s%s (%s) %.2f%s\n",
		indent, "", name, cookie, function,
		cfg.unit.convert(e.Duration()), cfg.unit.label())
	return err
}

func eventLabel(e profiler.RecordedEvent, scopes map[profiler.ScopeKey]*profiler.ScopeInfo) string {
	if info, ok := scopes[e.Key]; ok {
		return info.Name
	}
	return fmt.Sprintf("scope-%d", e.Key)
}

// SortedScopeKeys returns a bundle's scope keys sorted ascending, for
// callers (e.g. cmd/iyfrdump) that want a deterministic iteration order
// over a bundle's scope table.
func SortedScopeKeys(scopes map[profiler.ScopeKey]*profiler.ScopeInfo) []profiler.ScopeKey {
	keys := make([]profiler.ScopeKey, 0, len(scopes))
	for k := range scopes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
