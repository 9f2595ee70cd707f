package workload_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/clustersim/engine"
	"github.com/sarchlab/clustersim/netio"
	"github.com/sarchlab/clustersim/rendezvous"
	"github.com/sarchlab/clustersim/workload"
)

// fakeDAG is a minimal in-memory NodeIterator: a fixed parent->children
// adjacency list with indegree-tracked issuability, standing in for a real
// trace file's dependency graph.
type fakeDAG struct {
	nodes    map[int64]*workload.Node
	children map[int64][]int64
	indegree map[int64]int
	issuable []int64
}

func newFakeDAG() *fakeDAG {
	return &fakeDAG{
		nodes:    map[int64]*workload.Node{},
		children: map[int64][]int64{},
		indegree: map[int64]int{},
	}
}

func (d *fakeDAG) add(n *workload.Node, deps ...int64) {
	d.nodes[n.ID] = n
	d.indegree[n.ID] = len(deps)
	for _, dep := range deps {
		d.children[dep] = append(d.children[dep], n.ID)
	}
	if len(deps) == 0 {
		d.issuable = append(d.issuable, n.ID)
	}
}

func (d *fakeDAG) GetNextIssuableNode() *workload.Node {
	for len(d.issuable) > 0 {
		id := d.issuable[0]
		d.issuable = d.issuable[1:]
		if n, ok := d.nodes[id]; ok {
			return n
		}
	}
	return nil
}

func (d *fakeDAG) PushBackIssuableNode(id int64) {
	d.issuable = append(d.issuable, id)
}

func (d *fakeDAG) FreeChildrenNodes(id int64) {
	for _, c := range d.children[id] {
		d.indegree[c]--
		if d.indegree[c] == 0 {
			d.issuable = append(d.issuable, c)
		}
	}
}

func (d *fakeDAG) LookupNode(id int64) *workload.Node { return d.nodes[id] }

func (d *fakeDAG) RemoveNode(id int64) { delete(d.nodes, id) }

func (d *fakeDAG) HasNodesToIssue() bool { return len(d.nodes) > 0 }

// syncScheduler fires every event the instant it is scheduled.
type syncScheduler struct{}

func (syncScheduler) Schedule(e engine.Event) { _ = e.Handler().Handle(e) }

// fakeBackend resolves every Send/Recv instantly and records whether the
// rank ever reported itself finished.
type fakeBackend struct {
	finished bool
}

func (b *fakeBackend) Send(_ int, _ netio.MsgType, _, _ int, req netio.RequestHandle, onDone netio.OnDone) int {
	onDone(req)
	return 0
}

func (b *fakeBackend) Recv(_ int, _ netio.MsgType, _, _ int, req netio.RequestHandle, onDone netio.OnDone) int {
	onDone(req)
	return 0
}

func (b *fakeBackend) Schedule(_ engine.Tick, fn func()) { fn() }
func (b *fakeBackend) Now() engine.Tick                  { return 0 }
func (b *fakeBackend) NotifyFinished()                   { b.finished = true }
func (b *fakeBackend) BandwidthAtDimension(int) float64  { return 0 }

var _ = Describe("Engine", func() {
	var (
		backend *fakeBackend
		now     func() engine.Tick
	)

	BeforeEach(func() {
		backend = &fakeBackend{}
		now = func() engine.Tick { return 0 }
	})

	It("drains a single compute node and reports finished", func() {
		dag := newFakeDAG()
		dag.add(&workload.Node{ID: 1, Type: workload.Comp, RuntimeUs: 5})

		eng := workload.New(0, dag, backend, syncScheduler{}, now, nil, nil)
		eng.Start()

		Expect(backend.finished).To(BeTrue())
		Expect(dag.HasNodesToIssue()).To(BeFalse())
	})

	It("propagates completion from a memory node to its dependent send node", func() {
		dag := newFakeDAG()
		dag.add(&workload.Node{ID: 1, Type: workload.MemLoad, TensorSize: 100})
		dag.add(&workload.Node{ID: 2, Type: workload.CommSend, CommSize: 100, CommDst: 1, CommTag: 0}, 1)

		eng := workload.New(0, dag, backend, syncScheduler{}, now, nil, nil)
		eng.Start()

		Expect(backend.finished).To(BeTrue())
	})

	It("skips an invalid node without occupying any resource class", func() {
		dag := newFakeDAG()
		dag.add(&workload.Node{ID: 1, Type: workload.Invalid})
		dag.add(&workload.Node{ID: 2, Type: workload.Comp, RuntimeUs: 1}, 1)

		eng := workload.New(0, dag, backend, syncScheduler{}, now, nil, nil)
		eng.Start()

		Expect(backend.finished).To(BeTrue())
	})

	It("does not report finished while a later node remains in the DAG", func() {
		dag := newFakeDAG()
		dag.add(&workload.Node{ID: 1, Type: workload.Comp, RuntimeUs: 1})
		dag.nodes[2] = &workload.Node{ID: 2, Type: workload.Comp, RuntimeUs: 1}
		// node 2 is never marked issuable, modeling a dependency that never
		// clears; the engine must not report finished while it is present.

		eng := workload.New(0, dag, backend, syncScheduler{}, now, nil, nil)
		eng.Start()

		Expect(backend.finished).To(BeFalse())
	})

	It("pairs a send/recv pair through the rendezvous matcher when enabled", func() {
		dag := newFakeDAG()
		dag.add(&workload.Node{ID: 1, Type: workload.CommSend, CommSize: 64, CommDst: 0, CommTag: 7})
		dag.add(&workload.Node{ID: 2, Type: workload.CommRecv, CommSize: 64, CommSrc: 0, CommTag: 7})

		eng := workload.New(0, dag, backend, syncScheduler{}, now, nil, nil)
		eng.EnableRendezvousProtocol(rendezvous.New())
		eng.Start()

		Expect(backend.finished).To(BeTrue())
	})
})
