package rendezvous_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/clustersim/rendezvous"
)

var _ = Describe("Matcher", func() {
	var m *rendezvous.Matcher

	BeforeEach(func() {
		m = rendezvous.New()
	})

	It("hands out monotone chunk-ids starting at 0 per shape", func() {
		id0 := m.CreateSendChunkID(1, 0, 1, 64)
		id1 := m.CreateSendChunkID(1, 0, 1, 64)
		Expect(id0).To(Equal(int64(0)))
		Expect(id1).To(Equal(int64(1)))

		recvID0 := m.CreateRecvChunkID(1, 0, 1, 64)
		Expect(recvID0).To(Equal(int64(0)))
	})

	It("pairs a recv registered before its matching send (scenario 4)", func() {
		recvFired := false
		chunkID, fireNow := m.SimRecv(1, 0, 1, 64, func() { recvFired = true })
		Expect(fireNow).To(BeFalse())
		Expect(chunkID).To(Equal(int64(0)))

		sendFired := false
		gotID := m.SimSend(1, 0, 1, 64, func() { sendFired = true })
		Expect(gotID).To(Equal(int64(0)))

		Expect(m.EntryCount()).To(Equal(1))

		m.Arrival(1, 0, 1, 64, chunkID)

		Expect(sendFired).To(BeTrue())
		Expect(recvFired).To(BeTrue())
		Expect(m.EntryCount()).To(Equal(0))
	})

	It("fires the send handler immediately when the send precedes the recv", func() {
		sendFired := false
		chunkID := m.SimSend(1, 0, 1, 64, func() { sendFired = true })

		m.Arrival(1, 0, 1, 64, chunkID)
		Expect(sendFired).To(BeTrue())

		recvFired := false
		_, fireNow := m.SimRecv(1, 0, 1, 64, func() { recvFired = true })
		_ = recvFired
		Expect(fireNow).To(BeTrue())
	})

	It("panics on an arrival with no matching entry", func() {
		Expect(func() { m.Arrival(1, 0, 1, 64, 0) }).To(Panic())
	})

	It("handles partial-size arrivals when PacketLevel is enabled (scenario 5)", func() {
		m.PacketLevel = true

		recvFired := false
		chunkID, _ := m.SimRecv(1, 0, 1, 64, func() { recvFired = true })

		m.ArrivalPartial(1, 0, 1, 64, chunkID, 64, 100)
		Expect(recvFired).To(BeTrue())
		Expect(m.StandbyArrival(1, 0, 1, 64)).To(Equal(36))

		taken := m.ConsumeStandby(1, 0, 1, 64, 64)
		Expect(taken).To(Equal(36))
		Expect(m.StandbyArrival(1, 0, 1, 64)).To(Equal(0))
	})

	It("refuses partial-size arrivals when PacketLevel is disabled", func() {
		chunkID, _ := m.SimRecv(1, 0, 1, 64, func() {})
		Expect(func() {
			m.ArrivalPartial(1, 0, 1, 64, chunkID, 64, 100)
		}).To(Panic())
	})
})
