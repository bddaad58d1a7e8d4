package resultio_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/manvis/IYFThreading/pkg/profiler"
	"github.com/manvis/IYFThreading/pkg/resultio"
)

var _ = Describe("WriteText", func() {
	var scopes map[profiler.ScopeKey]*profiler.ScopeInfo

	BeforeEach(func() {
		scopes = map[profiler.ScopeKey]*profiler.ScopeInfo{
			1: {Key: 1, Name: "early", Function: "Early"},
			2: {Key: 2, Name: "inFrame1", Function: "InFrame1"},
			3: {Key: 3, Name: "inFrame2", Function: "InFrame2"},
		}
	})

	It("labels an out-of-window event as skipped without derailing later in-frame events", func() {
		bundle := profiler.NewBundle(profiler.BundleData{
			Frames: []profiler.FrameData{
				{Number: 0, Start: 10, End: 20},
				{Number: 1, Start: 20, End: 30},
			},
			Scopes:      scopes,
			ThreadNames: []string{"main"},
			ThreadEvents: [][]profiler.RecordedEvent{
				{
					{Key: 1, Depth: 0, Start: 5, End: 8},
					{Key: 2, Depth: 0, Start: 15, End: 18},
					{Key: 3, Depth: 0, Start: 25, End: 28},
				},
			},
			AnyRecords: true,
		})

		var buf bytes.Buffer
		Expect(resultio.WriteText(&buf, bundle)).To(Succeed())

		out := buf.String()
		Expect(out).To(ContainSubstring("Skipped early/late event: early"))
		Expect(out).To(ContainSubstring("inFrame1"))
		Expect(out).To(ContainSubstring("inFrame2"))

		// The event inside frame 1 must not be swallowed by the trailing
		// skipped-event loop, and each in-frame event must be listed under
		// its own frame header, not stuck under "Skipped".
		lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
		skippedCount := 0
		for _, line := range lines {
			if strings.Contains(line, "Skipped early/late event") {
				skippedCount++
			}
		}
		Expect(skippedCount).To(Equal(1))

		frame1Idx := indexOfSubstring(lines, "frame 0")
		frame2Idx := indexOfSubstring(lines, "frame 1")
		inFrame1Idx := indexOfSubstring(lines, "inFrame1")
		inFrame2Idx := indexOfSubstring(lines, "inFrame2")

		Expect(inFrame1Idx).To(BeNumerically(">", frame1Idx))
		Expect(inFrame1Idx).To(BeNumerically("<", frame2Idx))
		Expect(inFrame2Idx).To(BeNumerically(">", frame2Idx))
	})

	It("labels a trailing out-of-window event as skipped", func() {
		bundle := profiler.NewBundle(profiler.BundleData{
			Frames: []profiler.FrameData{
				{Number: 0, Start: 0, End: 10},
			},
			Scopes:      scopes,
			ThreadNames: []string{"main"},
			ThreadEvents: [][]profiler.RecordedEvent{
				{
					{Key: 2, Depth: 0, Start: 2, End: 4},
					{Key: 3, Depth: 0, Start: 50, End: 52},
				},
			},
			AnyRecords: true,
		})

		var buf bytes.Buffer
		Expect(resultio.WriteText(&buf, bundle)).To(Succeed())

		out := buf.String()
		Expect(out).To(ContainSubstring("inFrame1"))
		Expect(out).To(ContainSubstring("Skipped early/late event: inFrame2"))
	})

	It("renders plain in-frame events with no skips", func() {
		bundle := profiler.NewBundle(profiler.BundleData{
			Frames: []profiler.FrameData{
				{Number: 0, Start: 0, End: 10},
			},
			Scopes:      scopes,
			ThreadNames: []string{"main"},
			ThreadEvents: [][]profiler.RecordedEvent{
				{{Key: 2, Depth: 0, Start: 1, End: 2}},
			},
			AnyRecords: true,
		})

		var buf bytes.Buffer
		Expect(resultio.WriteText(&buf, bundle, resultio.WithDurationUnit(resultio.Nanoseconds))).To(Succeed())

		out := buf.String()
		Expect(out).NotTo(ContainSubstring("Skipped"))
		Expect(out).To(ContainSubstring("inFrame1"))
		Expect(out).To(ContainSubstring("ns"))
	})

	It("passes each event's scope name and tag through WithColorize", func() {
		scopes[2].Tag = 7

		bundle := profiler.NewBundle(profiler.BundleData{
			Frames: []profiler.FrameData{
				{Number: 0, Start: 0, End: 10},
			},
			Scopes:      scopes,
			ThreadNames: []string{"main"},
			ThreadEvents: [][]profiler.RecordedEvent{
				{{Key: 2, Depth: 0, Start: 1, End: 2}},
			},
			AnyRecords: true,
		})

		var seenName string
		var seenTag int32
		colorize := func(name string, tag int32) string {
			seenName, seenTag = name, tag
			return "<<" + name + ">>"
		}

		var buf bytes.Buffer
		Expect(resultio.WriteText(&buf, bundle, resultio.WithColorize(colorize))).To(Succeed())

		Expect(seenName).To(Equal("inFrame1"))
		Expect(seenTag).To(Equal(int32(7)))
		Expect(buf.String()).To(ContainSubstring("<<inFrame1>>"))
	})
})

func indexOfSubstring(lines []string, substr string) int {
	for i, line := range lines {
		if strings.Contains(line, substr) {
			return i
		}
	}
	return -1
}
