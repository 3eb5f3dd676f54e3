package sim

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/flightdyn/internal/controls"
	"github.com/san-kum/flightdyn/internal/dynamo"
)

func TestStepperLifecycle(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Stepper lifecycle")
}

var _ = Describe("Stepper", func() {
	var (
		f      fixture
		s      *Stepper
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		f = trimmedTrainer(GinkgoT())
		s = f.stepper(GinkgoT(), Options{
			Dt:        0.005,
			Unlimited: true,
			Retention: 0.5,
			Realtime:  true,
			TickHz:    400,
		}, nil)
		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(func() {
			cancel()
			_ = s.Wait()
		})
	})

	It("starts stepping and rejects a second start", func() {
		Expect(s.Start(ctx)).To(BeTrue())
		Eventually(func() int { return len(s.OutputLog()) }).Should(BeNumerically(">", 5))
		Expect(s.Phase()).To(Equal(Stepping))
		Expect(s.Start(ctx)).To(BeFalse())
		Expect(s.Running()).To(BeTrue())
	})

	It("freezes the log while paused and continues on resume", func() {
		Expect(s.Start(ctx)).To(BeTrue())
		Eventually(func() int { return len(s.OutputLog()) }).Should(BeNumerically(">", 5))
		Expect(s.Pause()).To(BeTrue())
		Expect(s.Pause()).To(BeFalse())

		time.Sleep(20 * time.Millisecond)
		frozen := len(s.OutputLog())
		Consistently(func() int { return len(s.OutputLog()) }, 100*time.Millisecond).Should(Equal(frozen))

		Expect(s.Resume()).To(BeTrue())
		Eventually(func() int { return len(s.OutputLog()) }).Should(BeNumerically(">", frozen))
	})

	It("resets to the trimmed state only while paused, once per pause", func() {
		Expect(s.Start(ctx)).To(BeTrue())
		Expect(s.Reset()).To(BeFalse())

		f.controls.Set(controls.Elevator, -0.1)
		Eventually(func() float64 {
			r, _ := s.Latest()
			return r.Time()
		}).Should(BeNumerically(">", 0.1))

		Expect(s.Pause()).To(BeTrue())
		Expect(s.Reset()).To(BeTrue())
		Expect(s.Reset()).To(BeFalse())
		Expect(s.Phase()).To(Equal(Idle))

		Eventually(s.OutputLog).Should(HaveLen(1))
		r, ok := s.Latest()
		Expect(ok).To(BeTrue())
		Expect(r.Time()).To(Equal(0.0))
		Expect(r.State[dynamo.Theta]).To(Equal(f.x0[dynamo.Theta]))
		Expect(f.controls.Get(controls.Elevator)).To(Equal(f.trim.Elevator))
		Expect(s.Running()).To(BeTrue())

		Expect(s.Start(ctx)).To(BeTrue())
		Eventually(func() int { return len(s.OutputLog()) }).Should(BeNumerically(">", 1))
	})

	It("owns its initial state", func() {
		want := f.x0.Clone()
		f.x0[dynamo.Theta] += 1
		leaked := s.InitialState()
		leaked[dynamo.Theta] += 1
		Expect(s.InitialState()).To(Equal(want))

		Expect(s.Start(ctx)).To(BeTrue())
		Eventually(func() float64 {
			r, _ := s.Latest()
			return r.Time()
		}).Should(BeNumerically(">", 0.05))
		Expect(s.Pause()).To(BeTrue())
		Expect(s.Reset()).To(BeTrue())

		Eventually(s.OutputLog).Should(HaveLen(1))
		r, _ := s.Latest()
		Expect(r.State).To(Equal(want))
	})

	It("bounds the log by the retention window in unlimited mode", func() {
		Expect(s.Start(ctx)).To(BeTrue())
		Eventually(func() float64 {
			r, _ := s.Latest()
			return r.Time()
		}, 5*time.Second).Should(BeNumerically(">", 0.8))

		recs := s.OutputLog()
		span := recs[len(recs)-1].Time() - recs[0].Time()
		Expect(span).To(BeNumerically("<=", 0.5+1e-9))
	})

	It("stops at a tick boundary and refuses to clear the log afterwards", func() {
		Expect(s.Start(ctx)).To(BeTrue())
		Expect(s.ClearOutputLog()).To(BeTrue())
		s.Stop()
		Expect(s.Wait()).To(Succeed())
		Expect(s.Running()).To(BeFalse())
		Expect(s.Phase()).To(Equal(Idle))
		Expect(s.ClearOutputLog()).To(BeFalse())
	})
})
