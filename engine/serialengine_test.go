package engine_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/clustersim/engine"
)

var _ = Describe("SerialEngine", func() {
	// runOrder drives order against a fresh engine over q, scheduling three
	// callbacks out of construction order and returning the order they fire
	// in plus the final CurrentTime.
	runOrder := func(e *engine.SerialEngine) ([]string, engine.Tick) {
		var order []string
		e.Schedule(engine.NewCallbackEvent(20, engine.AnonymousHandler, func() { order = append(order, "b") }))
		e.Schedule(engine.NewCallbackEvent(10, engine.AnonymousHandler, func() { order = append(order, "a") }))
		e.Schedule(engine.NewCallbackEvent(20, engine.AnonymousHandler, func() { order = append(order, "c") }))
		Expect(e.Run()).To(Succeed())
		return order, e.CurrentTime()
	}

	It("runs events in (Time, Seq) order over the default heap queue", func() {
		order, now := runOrder(engine.NewSerialEngine())
		Expect(order).To(Equal([]string{"a", "b", "c"}))
		Expect(now).To(Equal(engine.Tick(20)))
	})

	It("runs events in the same (Time, Seq) order over an InsertionQueue", func() {
		order, now := runOrder(engine.NewSerialEngineWithQueue(engine.NewInsertionQueue()))
		Expect(order).To(Equal([]string{"a", "b", "c"}))
		Expect(now).To(Equal(engine.Tick(20)))
	})
})
