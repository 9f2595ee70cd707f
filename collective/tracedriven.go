package collective

import (
	"github.com/sarchlab/clustersim/engine"
	"github.com/sarchlab/clustersim/netio"
	"github.com/sarchlab/clustersim/streaming"
)

// TraceNodeType classifies one node of a trace-driven collective's own
// execution trace, mirroring Chakra's COMM_SEND_NODE/COMM_RECV_NODE/
// COMP_NODE distinction.
type TraceNodeType int

const (
	TraceSend TraceNodeType = iota
	TraceRecv
	TraceComp
)

// TraceNode is one entry of a library-recorded collective implementation
// (e.g. an NCCL ring kernel traced instruction-by-instruction), replayed
// underneath a single Stream instead of being computed analytically the
// way Ring and DoubleBinaryTree are.
type TraceNode struct {
	ID        int64
	Type      TraceNodeType
	CommSize  int
	CommSrc   int
	CommDst   int
	CommTag   int
	RuntimeUs uint64
}

// TraceIterator is a trace-driven algorithm's node source: the same shape
// as workload.NodeIterator (this package cannot import workload, which
// already imports collective, so the contract is restated here against
// TraceNode rather than workload.Node), letting one Chakra-style execution
// trace format back both a rank's top-level workload and a library-
// internal collective implementation replayed underneath one Stream.
type TraceIterator interface {
	GetNextIssuableNode() *TraceNode
	FreeChildrenNodes(id int64)
	LookupNode(id int64) *TraceNode
	RemoveNode(id int64)
	HasNodesToIssue() bool
}

// TraceDriven replays a separately-recorded SEND/RECV/COMP trace as one
// Stream's implementation of a collective, instead of computing the
// schedule from ring or tree adjacency. Every SEND/RECV still goes through
// the rendezvous matcher and the network backend exactly like Ring and
// DoubleBinaryTree's own send/recv paths; COMP nodes advance by their
// recorded runtime, mirroring a reduce step assumed to cost no simulated
// time beyond it.
type TraceDriven struct {
	ctx  Context
	rank int
	iter TraceIterator

	stream *streaming.Stream
}

// NewTraceDriven builds a trace-driven algorithm bound to rank, replaying
// iter underneath whichever Stream it is bound to.
func NewTraceDriven(ctx Context, rank int, iter TraceIterator) *TraceDriven {
	return &TraceDriven{ctx: ctx, rank: rank, iter: iter}
}

func (t *TraceDriven) Init(s *streaming.Stream) {
	t.stream = s
}

// Run issues every currently dep-free trace node once, on StreamInit.
// PacketReceived/General never reach here directly: completion of a SEND
// or RECV loops back through t.complete instead, the same structure
// workload.Engine's own completion loop uses.
func (t *TraceDriven) Run(event streaming.Event, data interface{}) {
	if event == streaming.StreamInit {
		t.issueDepFreeNodes()
	}
}

// Exit has nothing to clean up; the Stream calls this itself as part of
// ProceedToNextVnetBaseline.
func (t *TraceDriven) Exit() {}

func (t *TraceDriven) issueDepFreeNodes() {
	node := t.iter.GetNextIssuableNode()
	for node != nil {
		t.issue(node)
		node = t.iter.GetNextIssuableNode()
	}
}

func (t *TraceDriven) issue(node *TraceNode) {
	switch node.Type {
	case TraceSend:
		t.issueSend(node)
	case TraceRecv:
		t.issueRecv(node)
	case TraceComp:
		t.issueComp(node)
	}
}

func (t *TraceDriven) issueSend(node *TraceNode) {
	chunkID := t.ctx.Matcher.SimSend(node.CommTag, node.CommSrc, node.CommDst, node.CommSize, func() {})
	req := netio.NewRequestHandle()
	t.ctx.Backend.Send(node.CommSize, netio.MsgType(0), node.CommDst, node.CommTag, req, func(netio.RequestHandle) {
		t.ctx.Matcher.Arrival(node.CommTag, node.CommSrc, node.CommDst, node.CommSize, chunkID)
		t.complete(node)
	})
}

func (t *TraceDriven) issueRecv(node *TraceNode) {
	_, fireNow := t.ctx.Matcher.SimRecv(node.CommTag, node.CommSrc, node.CommDst, node.CommSize, func() {
		t.complete(node)
	})
	req := netio.NewRequestHandle()
	t.ctx.Backend.Recv(node.CommSize, netio.MsgType(0), node.CommSrc, node.CommTag, req, func(netio.RequestHandle) {})
	if fireNow {
		t.complete(node)
	}
}

// issueComp advances by the node's recorded runtime, the Chakra reduce-op
// convention of assuming the reduction itself is free beyond replaying its
// traced duration.
func (t *TraceDriven) issueComp(node *TraceNode) {
	runtime := engine.Tick(1)
	if node.RuntimeUs != 0 {
		runtime = engine.Tick(node.RuntimeUs) * 1000
	}

	evt := engine.NewCallbackEvent(t.ctx.Now()+runtime, engine.AnonymousHandler, func() {
		t.complete(node)
	})
	t.ctx.Eng.Schedule(evt)
}

// complete runs the same free-children/issue-more/remove/check-drained
// sequence workload.Engine.complete uses for its own trace, scoped here to
// the collective's internal trace instead of the rank's top-level one.
func (t *TraceDriven) complete(node *TraceNode) {
	t.iter.FreeChildrenNodes(node.ID)
	t.issueDepFreeNodes()
	t.iter.RemoveNode(node.ID)

	if !t.iter.HasNodesToIssue() {
		t.stream.ToZombie()
		t.stream.ProceedToNextVnetBaseline()
	}
}
