package pool_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/manvis/IYFThreading/pkg/pool"
)

// fakeLogger is a minimal logr.Logger (the pinned v0.2.0 interface shape)
// that records Error calls for assertions, mirroring how profiler_test.go
// would exercise profiler.WithLogger.
type fakeLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeLogger) Enabled() bool { return true }
func (f *fakeLogger) Info(msg string, keysAndValues ...interface{}) {}
func (f *fakeLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
}
func (f *fakeLogger) V(level int) logr.Logger                        { return f }
func (f *fakeLogger) WithValues(keysAndValues ...interface{}) logr.Logger { return f }
func (f *fakeLogger) WithName(name string) logr.Logger                { return f }

func (f *fakeLogger) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.msgs...)
}

var _ = Describe("Pool", func() {
	It("rejects a non-positive worker count", func() {
		_, err := pool.New(0, nil)
		Expect(err).To(MatchError(pool.ErrInvalidArgument))
	})

	It("runs setup exactly once per worker with (total, index)", func() {
		var mu sync.Mutex
		seen := map[int]bool{}

		p, err := pool.New(3, func(total, index int) {
			Expect(total).To(Equal(3))
			mu.Lock()
			seen[index] = true
			mu.Unlock()
		})
		Expect(err).NotTo(HaveOccurred())
		defer p.Shutdown()

		Eventually(func() int {
			mu.Lock()
			defer mu.Unlock()
			return len(seen)
		}).Should(Equal(3))
	})

	It("runs four 10ms tasks on two workers in roughly 20ms", func() {
		p, err := pool.New(2, nil)
		Expect(err).NotTo(HaveOccurred())
		defer p.Shutdown()

		start := time.Now()
		var wg sync.WaitGroup
		wg.Add(4)
		for i := 0; i < 4; i++ {
			Expect(p.AddTask(func() {
				time.Sleep(10 * time.Millisecond)
				wg.Done()
			})).To(Succeed())
		}
		wg.Wait()

		Expect(time.Since(start)).To(BeNumerically("<", 60*time.Millisecond))
	})

	It("notifies a barrier once a submitted task completes", func() {
		p, err := pool.New(2, nil)
		Expect(err).NotTo(HaveOccurred())
		defer p.Shutdown()

		b, err := pool.NewBarrier(1)
		Expect(err).NotTo(HaveOccurred())

		var ran atomic.Bool
		Expect(p.AddTaskWithBarrier(b, func() { ran.Store(true) })).To(Succeed())

		done := make(chan struct{})
		go func() {
			b.WaitForAll()
			close(done)
		}()
		Eventually(done).Should(BeClosed())
		Expect(ran.Load()).To(BeTrue())
	})

	It("delivers a result through a future", func() {
		p, err := pool.New(1, nil)
		Expect(err).NotTo(HaveOccurred())
		defer p.Shutdown()

		fut, err := pool.AddTaskWithResult(p, func() (int, error) {
			return 42, nil
		})
		Expect(err).NotTo(HaveOccurred())

		v, err := fut.Get()
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(42))
	})

	It("surfaces a task error through the future", func() {
		p, err := pool.New(1, nil)
		Expect(err).NotTo(HaveOccurred())
		defer p.Shutdown()

		wantErr := errors.New("divide by zero")
		fut, err := pool.AddTaskWithResult(p, func() (int, error) {
			return 0, wantErr
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = fut.Get()
		Expect(err).To(MatchError(wantErr))
	})

	It("surfaces a panicking task as a *PanicError through the future", func() {
		p, err := pool.New(1, nil)
		Expect(err).NotTo(HaveOccurred())
		defer p.Shutdown()

		fut, err := pool.AddTaskWithResult(p, func() (int, error) {
			panic("boom")
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = fut.Get()
		var pe *pool.PanicError
		Expect(errors.As(err, &pe)).To(BeTrue())
	})

	It("lets a worker resume after a panicking plain task", func() {
		p, err := pool.New(1, nil)
		Expect(err).NotTo(HaveOccurred())
		defer p.Shutdown()

		Expect(p.AddTask(func() { panic("boom") })).To(Succeed())

		var ran atomic.Bool
		var wg sync.WaitGroup
		wg.Add(1)
		Expect(p.AddTask(func() {
			ran.Store(true)
			wg.Done()
		})).To(Succeed())
		wg.Wait()

		Expect(ran.Load()).To(BeTrue())
	})

	It("drains tasks already queued before shutdown", func() {
		p, err := pool.New(1, nil)
		Expect(err).NotTo(HaveOccurred())

		var completed atomic.Int32
		for i := 0; i < 5; i++ {
			Expect(p.AddTask(func() {
				time.Sleep(time.Millisecond)
				completed.Add(1)
			})).To(Succeed())
		}

		p.Shutdown()
		Expect(completed.Load()).To(Equal(int32(5)))
	})

	It("rejects submissions after shutdown", func() {
		p, err := pool.New(1, nil)
		Expect(err).NotTo(HaveOccurred())
		p.Shutdown()

		Expect(p.AddTask(func() {})).To(MatchError(pool.ErrPoolShuttingDown))
	})

	It("reports worker count and queue depth", func() {
		p, err := pool.New(1, nil)
		Expect(err).NotTo(HaveOccurred())
		defer p.Shutdown()

		Expect(p.WorkerCount()).To(Equal(1))

		block := make(chan struct{})
		Expect(p.AddTask(func() { <-block })).To(Succeed())
		Expect(p.AddTask(func() {})).To(Succeed())

		Eventually(p.RemainingTaskCount).Should(Equal(1))
		close(block)
	})

	It("tracks submitted, completed, errored and in-flight counts in Stats", func() {
		p, err := pool.New(1, nil)
		Expect(err).NotTo(HaveOccurred())
		defer p.Shutdown()

		block := make(chan struct{})
		Expect(p.AddTask(func() { <-block })).To(Succeed())
		Expect(p.AddTask(func() {})).To(Succeed())

		Eventually(func() pool.PoolStats { return p.Stats() }).Should(Equal(pool.PoolStats{
			Submitted:  2,
			Completed:  0,
			Errored:    0,
			InFlight:   1,
			QueueDepth: 1,
			Workers:    1,
		}))

		close(block)
		p.WaitForAll()

		Eventually(func() int64 { return p.Stats().Completed }).Should(Equal(int64(2)))
		Expect(p.Stats().Errored).To(Equal(int64(0)))

		fut, err := pool.AddTaskWithResult(p, func() (int, error) {
			return 0, errors.New("boom")
		})
		Expect(err).NotTo(HaveOccurred())
		_, _ = fut.Get()

		Eventually(func() int64 { return p.Stats().Errored }).Should(Equal(int64(1)))
	})

	It("logs a panicking plain task through WithLogger", func() {
		fl := &fakeLogger{}
		p, err := pool.New(1, nil, pool.WithLogger(fl))
		Expect(err).NotTo(HaveOccurred())
		defer p.Shutdown()

		Expect(p.AddTask(func() { panic("boom") })).To(Succeed())

		Eventually(fl.messages).Should(ConsistOf("task panicked"))
	})

	It("logs a panicking future task through WithLogger", func() {
		fl := &fakeLogger{}
		p, err := pool.New(1, nil, pool.WithLogger(fl))
		Expect(err).NotTo(HaveOccurred())
		defer p.Shutdown()

		fut, err := pool.AddTaskWithResult(p, func() (int, error) {
			panic("boom")
		})
		Expect(err).NotTo(HaveOccurred())
		_, _ = fut.Get()

		Eventually(fl.messages).Should(ConsistOf("task panicked"))
	})
})
