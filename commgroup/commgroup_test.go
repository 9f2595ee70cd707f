package commgroup_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/clustersim/commgroup"
)

var _ = Describe("Load", func() {
	It("returns nil when the filename is the empty sentinel", func() {
		g, err := commgroup.Load("comm_group.empty.json", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(g).To(BeNil())
	})

	It("finds the group a rank belongs to", func() {
		path := filepath.Join(GinkgoT().TempDir(), "groups.json")
		Expect(os.WriteFile(path, []byte(`[[0,1,2],[3,4,5]]`), 0o644)).To(Succeed())

		g, err := commgroup.Load(path, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(g.ID).To(Equal(1))
		Expect(g.Members).To(Equal([]int{3, 4, 5}))
		Expect(g.Contains(4)).To(BeTrue())
		Expect(g.Contains(0)).To(BeFalse())
	})

	It("returns nil when no group contains the rank", func() {
		path := filepath.Join(GinkgoT().TempDir(), "groups.json")
		Expect(os.WriteFile(path, []byte(`[[0,1,2]]`), 0o644)).To(Succeed())

		g, err := commgroup.Load(path, 9)
		Expect(err).NotTo(HaveOccurred())
		Expect(g).To(BeNil())
	})
})
