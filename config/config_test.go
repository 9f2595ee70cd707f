package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/clustersim/collective"
	"github.com/sarchlab/clustersim/config"
	"github.com/sarchlab/clustersim/scheduling"
)

func writeFile(content string) string {
	path := filepath.Join(GinkgoT().TempDir(), "cfg.json")
	Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
	return path
}

var _ = Describe("LoadSystemConfig", func() {
	It("decodes a well-formed file and resolves its named policies", func() {
		path := writeFile(`{
			"ring_dims": [{"size": 4, "local": true}],
			"intra_ordering": "smallest_first",
			"inter_ordering": "round_robin",
			"scheduling_policy": "fifo",
			"injection_policy": "aggressive",
			"queues_per_dim": 2
		}`)

		c, err := config.LoadSystemConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.RingDims).To(HaveLen(1))
		Expect(c.QueuesPerDim).To(Equal(2))
		Expect(c.InjectionPolicy()).To(Equal(collective.Aggressive))
		Expect(c.IntraOrderingPolicy()).To(Equal(scheduling.IntraSmallestFirst))
		Expect(c.InterOrderingPolicy()).To(Equal(scheduling.InterRoundRobin))
		Expect(c.SchedulingPolicyValue()).To(Equal(scheduling.PolicyFIFO))
	})

	It("rejects an unknown field", func() {
		path := writeFile(`{"not_a_real_field": 1}`)

		_, err := config.LoadSystemConfig(path)
		Expect(err).To(HaveOccurred())
	})

	It("defaults unset policy names to the None/FIFO/Normal baseline", func() {
		path := writeFile(`{}`)

		c, err := config.LoadSystemConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.InjectionPolicy()).To(Equal(collective.Normal))
		Expect(c.IntraOrderingPolicy()).To(Equal(scheduling.IntraFIFO))
		Expect(c.InterOrderingPolicy()).To(Equal(scheduling.InterAscending))
		Expect(c.SchedulingPolicyValue()).To(Equal(scheduling.PolicyNone))
	})
})

var _ = Describe("LoadNetworkConfig", func() {
	It("decodes a well-formed file", func() {
		path := writeFile(`{"backend": "analytical", "latency_ns": 50}`)

		c, err := config.LoadNetworkConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Backend).To(Equal("analytical"))
		Expect(c.LatencyNs).To(Equal(int64(50)))
	})
})
