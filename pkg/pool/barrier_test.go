package pool_test

import (
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/manvis/IYFThreading/pkg/pool"
)

var _ = Describe("Barrier", func() {
	It("rejects a negative count", func() {
		_, err := pool.NewBarrier(-1)
		Expect(err).To(MatchError(pool.ErrInvalidArgument))
	})

	It("is already satisfied when built with count 0", func() {
		b, err := pool.NewBarrier(0)
		Expect(err).NotTo(HaveOccurred())

		done := make(chan struct{})
		go func() {
			b.WaitForAll()
			close(done)
		}()
		Eventually(done).Should(BeClosed())
	})

	It("releases WaitForAll once every expected completion lands", func() {
		b, err := pool.NewBarrier(3)
		Expect(err).NotTo(HaveOccurred())

		var released atomic.Bool
		done := make(chan struct{})
		go func() {
			b.WaitForAll()
			released.Store(true)
			close(done)
		}()

		Expect(b.NotifyCompleted()).To(Succeed())
		Consistently(done, "20ms").ShouldNot(BeClosed())

		Expect(b.NotifyCompleted()).To(Succeed())
		Consistently(done, "20ms").ShouldNot(BeClosed())

		Expect(b.NotifyCompleted()).To(Succeed())
		Eventually(done).Should(BeClosed())
		Expect(released.Load()).To(BeTrue())
	})

	It("fails with ErrOverCompletion past the initial count", func() {
		b, err := pool.NewBarrier(1)
		Expect(err).NotTo(HaveOccurred())

		Expect(b.NotifyCompleted()).To(Succeed())
		Expect(b.NotifyCompleted()).To(MatchError(pool.ErrOverCompletion))
	})

	It("blocks indefinitely if fewer than N completions arrive", func() {
		b, err := pool.NewBarrier(2)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.NotifyCompleted()).To(Succeed())

		done := make(chan struct{})
		go func() {
			b.WaitForAll()
			close(done)
		}()
		Consistently(done, 50*time.Millisecond).ShouldNot(BeClosed())
	})
})
