package hwresource_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/clustersim/hwresource"
)

var _ = Describe("Resource", func() {
	var r *hwresource.Resource

	BeforeEach(func() {
		r = hwresource.New()
	})

	It("starts with every class available", func() {
		Expect(r.Available(hwresource.CPU)).To(BeTrue())
		Expect(r.Available(hwresource.GPUCompute)).To(BeTrue())
		Expect(r.Available(hwresource.GPUComm)).To(BeTrue())
	})

	It("makes an occupied class unavailable until released", func() {
		r.Occupy(hwresource.GPUCompute)
		Expect(r.Available(hwresource.GPUCompute)).To(BeFalse())
		Expect(r.Available(hwresource.CPU)).To(BeTrue())

		r.Release(hwresource.GPUCompute)
		Expect(r.Available(hwresource.GPUCompute)).To(BeTrue())
	})

	It("panics on double occupancy", func() {
		r.Occupy(hwresource.CPU)
		Expect(func() { r.Occupy(hwresource.CPU) }).To(Panic())
	})

	It("panics releasing a free class", func() {
		Expect(func() { r.Release(hwresource.CPU) }).To(Panic())
	})

	It("accumulates busy ticks per class for the report", func() {
		r.AccountBusy(hwresource.CPU, 100)
		r.AccountBusy(hwresource.CPU, 50)
		r.AccountBusy(hwresource.GPUComm, 7)

		cpu, gpuComp, gpuComm := r.Report()
		Expect(cpu).To(Equal(int64(150)))
		Expect(gpuComp).To(Equal(int64(0)))
		Expect(gpuComm).To(Equal(int64(7)))
	})
})
