package scheduling_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/clustersim/collective"
	"github.com/sarchlab/clustersim/scheduling"
	"github.com/sarchlab/clustersim/streaming"
)

type noopAlgo struct{}

func (noopAlgo) Init(*streaming.Stream)           {}
func (noopAlgo) Run(streaming.Event, interface{}) {}
func (noopAlgo) Exit()                            {}

var _ = Describe("Scheduler", func() {
	It("issues in FIFO arrival order within a single dimension", func() {
		s := scheduling.New(1, 1, scheduling.IntraFIFO, scheduling.InterAscending, scheduling.PolicyNone, collective.Normal)

		first := streaming.New(1, 0, 100, 100, noopAlgo{})
		second := streaming.New(2, 0, 100, 100, noopAlgo{})
		s.Enqueue(0, first)
		s.Enqueue(0, second)

		got, dim, ok := s.Next()
		Expect(ok).To(BeTrue())
		Expect(dim).To(Equal(0))
		Expect(got.ID).To(Equal(int64(1)))

		got, _, ok = s.Next()
		Expect(ok).To(BeTrue())
		Expect(got.ID).To(Equal(int64(2)))

		_, _, ok = s.Next()
		Expect(ok).To(BeFalse())
	})

	It("orders by smallest final data size first under IntraSmallestFirst", func() {
		s := scheduling.New(1, 1, scheduling.IntraSmallestFirst, scheduling.InterAscending, scheduling.PolicyNone, collective.Normal)

		big := streaming.New(1, 0, 100, 1000, noopAlgo{})
		small := streaming.New(2, 0, 100, 10, noopAlgo{})
		s.Enqueue(0, big)
		s.Enqueue(0, small)

		got, _, ok := s.Next()
		Expect(ok).To(BeTrue())
		Expect(got.ID).To(Equal(int64(2)))
	})

	It("round-robins across dimensions under InterRoundRobin", func() {
		s := scheduling.New(2, 1, scheduling.IntraFIFO, scheduling.InterRoundRobin, scheduling.PolicyNone, collective.Normal)

		a := streaming.New(1, 0, 100, 100, noopAlgo{})
		b := streaming.New(2, 0, 100, 100, noopAlgo{})
		s.Enqueue(0, a)
		s.Enqueue(1, b)

		_, dim1, _ := s.Next()
		_, dim2, _ := s.Next()
		Expect([]int{dim1, dim2}).To(ConsistOf(0, 1))
	})

	It("assigns CurrentQueueID on enqueue", func() {
		s := scheduling.New(1, 2, scheduling.IntraFIFO, scheduling.InterAscending, scheduling.PolicyNone, collective.Normal)

		a := streaming.New(1, 0, 100, 100, noopAlgo{})
		b := streaming.New(2, 0, 100, 100, noopAlgo{})
		s.Enqueue(0, a)
		s.Enqueue(0, b)

		Expect(a.CurrentQueueID).To(Equal(0))
		Expect(b.CurrentQueueID).To(Equal(1))
	})
})
