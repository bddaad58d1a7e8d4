package profiler_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/manvis/IYFThreading/pkg/profiler"
)

// fakeClock is an injectable ClockFunc, mirroring mockTimestamp in the
// teacher package's trace_test.go.
type fakeClock struct {
	now int64
}

func (c *fakeClock) advanceTo(t int64) { c.now = t }
func (c *fakeClock) get() int64        { return c.now }

var _ = Describe("Profiler scope nesting", func() {
	var (
		clk *fakeClock
		p   *profiler.Profiler
	)

	JustBeforeEach(func() {
		clk = &fakeClock{}
		p = profiler.New(profiler.WithClock(clk.get))
		p.SetRecording(true)
	})

	When("an outer scope encloses an inner one", func() {
		It("records two events where outer strictly encloses inner at depth 0/1", func() {
			outer := p.InsertScopeInfo("outer", "f.go:1", "Outer", "f.go", 1, 0)
			inner := p.InsertScopeInfo("inner", "f.go:2", "Inner", "f.go", 2, 0)

			clk.advanceTo(0)
			gOuter := p.Enter(outer)

			clk.advanceTo(10)
			gInner := p.Enter(inner)

			clk.advanceTo(20)
			gInner.Exit()

			clk.advanceTo(30)
			gOuter.Exit()

			bundle, err := p.GetResults()
			Expect(err).NotTo(HaveOccurred())

			events := bundle.Events(0)
			Expect(events).To(HaveLen(2))

			var outerEvent, innerEvent profiler.RecordedEvent
			for _, e := range events {
				if e.Key == outer.Key {
					outerEvent = e
				} else {
					innerEvent = e
				}
			}

			Expect(outerEvent.Depth).To(Equal(int32(0)))
			Expect(innerEvent.Depth).To(Equal(int32(1)))
			Expect(outerEvent.Start).To(BeNumerically("<", innerEvent.Start))
			Expect(outerEvent.End).To(BeNumerically(">", innerEvent.End))
		})
	})

	When("a guard's Exit is called more than once", func() {
		It("only commits the interval once", func() {
			scope := p.InsertScopeInfo("once", "f.go:5", "Once", "f.go", 5, 0)

			clk.advanceTo(0)
			g := p.Enter(scope)
			clk.advanceTo(5)
			g.Exit()
			g.Exit()

			bundle, err := p.GetResults()
			Expect(err).NotTo(HaveOccurred())
			Expect(bundle.Events(0)).To(HaveLen(1))
		})
	})

	Describe("recording gate", func() {
		It("produces no records while recording is off", func() {
			p.SetRecording(false)

			scope := p.InsertScopeInfo("ignored", "f.go:9", "Ignored", "f.go", 9, 0)
			g := p.Enter(scope)
			clk.advanceTo(1)
			g.Exit()

			bundle, err := p.GetResults()
			Expect(err).NotTo(HaveOccurred())
			Expect(bundle.HasAnyRecords()).To(BeFalse())
		})
	})

	Describe("frame consecutiveness", func() {
		It("numbers frames with no gaps", func() {
			p.MarkNextFrame()
			p.MarkNextFrame()
			p.MarkNextFrame()

			bundle, err := p.GetResults()
			Expect(err).NotTo(HaveOccurred())

			frames := bundle.Frames()
			for i, f := range frames {
				Expect(f.Number).To(Equal(uint64(i)))
			}
		})
	})

	Describe("extractor drains", func() {
		It("leaves a fresh GetResults with zero events and a synthetic frame", func() {
			scope := p.InsertScopeInfo("x", "f.go:11", "X", "f.go", 11, 0)
			g := p.Enter(scope)
			clk.advanceTo(1)
			g.Exit()

			_, err := p.GetResults()
			Expect(err).NotTo(HaveOccurred())

			p.SetRecording(true)
			bundle, err := p.GetResults()
			Expect(err).NotTo(HaveOccurred())
			Expect(bundle.Events(0)).To(BeEmpty())
			Expect(bundle.IsFrameDataMissing()).To(BeTrue())
		})
	})
})

var _ = Describe("A disabled profiler", func() {
	It("returns ErrDisabled from GetStatus and GetResults", func() {
		p := profiler.New(profiler.WithDisabled())

		_, err := p.GetStatus()
		Expect(err).To(MatchError(profiler.ErrDisabled))

		_, err = p.GetResults()
		Expect(err).To(MatchError(profiler.ErrDisabled))
	})

	It("makes Enter/Exit harmless no-ops", func() {
		p := profiler.New(profiler.WithDisabled())
		info := p.InsertScopeInfo("x", "f.go:1", "X", "f.go", 1, 0)
		g := p.Enter(info)
		Expect(func() { g.Exit() }).NotTo(Panic())
	})
})
