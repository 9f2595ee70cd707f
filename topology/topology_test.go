package topology_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/clustersim/topology"
)

var _ = Describe("RingDimension", func() {
	It("computes modular neighbors", func() {
		d := topology.NewRingDimension(4, false)

		Expect(d.GetReceiver(0, topology.Clockwise)).To(Equal(1))
		Expect(d.GetReceiver(3, topology.Clockwise)).To(Equal(0))
		Expect(d.GetSender(0, topology.Clockwise)).To(Equal(3))

		Expect(d.GetReceiver(0, topology.Anticlockwise)).To(Equal(3))
		Expect(d.GetSender(0, topology.Anticlockwise)).To(Equal(1))
	})

	It("reports the local flag it was constructed with", func() {
		d := topology.NewRingDimension(2, true)
		Expect(d.Local()).To(BeTrue())
	})
})

var _ = Describe("TreeDimension", func() {
	It("assigns node types by array-heap position", func() {
		d := topology.NewTreeDimension(3)

		Expect(d.NodeType(0)).To(Equal(topology.Root))
		Expect(d.NodeType(1)).To(Equal(topology.Leaf))
		Expect(d.NodeType(2)).To(Equal(topology.Leaf))
	})

	It("resolves parent and child links, -1 when absent", func() {
		d := topology.NewTreeDimension(3)

		Expect(d.Parent(0)).To(Equal(-1))
		Expect(d.Parent(1)).To(Equal(0))
		Expect(d.Parent(2)).To(Equal(0))

		Expect(d.LeftChild(0)).To(Equal(1))
		Expect(d.RightChild(0)).To(Equal(2))
		Expect(d.LeftChild(1)).To(Equal(-1))
	})
})
