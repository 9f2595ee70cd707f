package collective

import (
	"github.com/sarchlab/clustersim/membus"
	"github.com/sarchlab/clustersim/netio"
	"github.com/sarchlab/clustersim/streaming"
	"github.com/sarchlab/clustersim/topology"
)

// dbtState tracks where one rank is in the double-binary-tree reduction
// pass (up the tree) and broadcast pass (back down), independent of its
// NodeType.
type dbtState int

const (
	dbtBegin dbtState = iota
	dbtWaitingForTwoChildData
	dbtWaitingForOneChildData
	dbtWaitingDataFromParent
	dbtEnd
)

// DoubleBinaryTree is the Double-Binary-Tree All-Reduce over a single
// binary tree rooted at rank 0: the full dataSize reduces up the tree and
// is then broadcast back down the same tree. No second tree is built and
// the data is not split between trees.
type DoubleBinaryTree struct {
	ctx Context

	rank     int
	dim      topology.TreeDimension
	dataSize int

	state      dbtState
	reductions int

	parent, left, right int
	nodeType            topology.NodeType

	stream *streaming.Stream
}

// NewDoubleBinaryTree builds a Double-Binary-Tree algorithm rooted per dim,
// bound to rank.
func NewDoubleBinaryTree(ctx Context, rank int, dim topology.TreeDimension, dataSize int) *DoubleBinaryTree {
	return &DoubleBinaryTree{
		ctx:      ctx,
		rank:     rank,
		dim:      dim,
		dataSize: dataSize,
		parent:   dim.Parent(rank),
		left:     dim.LeftChild(rank),
		right:    dim.RightChild(rank),
		nodeType: dim.NodeType(rank),
	}
}

// Init binds the algorithm to s. Every rank except the root owes exactly
// one chunk upward (reduce) and one chunk downward (broadcast); the root
// owes none upward.
func (d *DoubleBinaryTree) Init(s *streaming.Stream) {
	d.stream = s
	if d.nodeType == topology.Root {
		s.SetStreamCount(1)
	} else {
		s.SetStreamCount(2)
	}
}

// Exit has nothing to clean up; the Stream calls this itself as part of
// ProceedToNextVnetBaseline, so a DoubleBinaryTree must never call its own
// Exit directly (that would recurse back into ProceedToNextVnetBaseline).
func (d *DoubleBinaryTree) Exit() {}

// Run dispatches the two events a Double-Binary-Tree pass reacts to: the
// reduction/broadcast data itself arriving over the wire.
func (d *DoubleBinaryTree) Run(event streaming.Event, data interface{}) {
	switch event {
	case streaming.StreamInit:
		d.begin()
	case streaming.PacketReceived:
		d.onPacketReceived()
	}
}

func (d *DoubleBinaryTree) begin() {
	switch d.nodeType {
	case topology.Leaf:
		d.state = dbtWaitingDataFromParent
		d.sendToParent()
		d.awaitFromParent()
	default: // Intermediate, Root
		d.state = dbtWaitingForTwoChildData
		d.awaitFromChildren()
	}
}

// childCount is how many of left/right are present; Leaf is always 0,
// Root and Intermediate are usually 2 but may be 1 at the ragged edge of
// an odd-sized tree.
func (d *DoubleBinaryTree) childCount() int {
	n := 0
	if d.left >= 0 {
		n++
	}
	if d.right >= 0 {
		n++
	}
	return n
}

func (d *DoubleBinaryTree) onPacketReceived() {
	if d.state == dbtWaitingDataFromParent {
		d.state = dbtEnd
		d.broadcastToChildren()
		d.done()
		return
	}

	d.reductions++
	need := d.childCount()
	if need == 2 && d.reductions == 1 {
		d.state = dbtWaitingForOneChildData
		return
	}
	if d.reductions < need {
		return
	}

	d.reductions = 0
	if d.nodeType == topology.Root {
		d.state = dbtEnd
		d.broadcastToChildren()
		d.done()
		return
	}

	d.sendToParent()
	d.state = dbtWaitingDataFromParent
	d.awaitFromParent()
}

func (d *DoubleBinaryTree) done() {
	d.stream.DecrementStreamCount()
	if d.stream.StreamCount() == 0 {
		d.stream.ToZombie()
		d.stream.ProceedToNextVnetBaseline()
	}
}

func (d *DoubleBinaryTree) sendToParent() {
	if d.parent >= 0 {
		d.sendTo(d.parent)
	}
}

func (d *DoubleBinaryTree) broadcastToChildren() {
	if d.left >= 0 {
		d.sendTo(d.left)
	}
	if d.right >= 0 {
		d.sendTo(d.right)
	}
}

func (d *DoubleBinaryTree) awaitFromChildren() {
	if d.left >= 0 {
		d.awaitFrom(d.left)
	}
	if d.right >= 0 {
		d.awaitFrom(d.right)
	}
}

func (d *DoubleBinaryTree) awaitFromParent() {
	if d.parent >= 0 {
		d.awaitFrom(d.parent)
	}
}

// sendTo moves dataSize bytes from NPU to the memory accelerator before
// handing them to the network, same as a Ring's npuToMA packets.
func (d *DoubleBinaryTree) sendTo(to int) {
	bundle := membus.PacketBundle{Size: d.dataSize, Class: membus.Usual}
	d.ctx.Bus.SendToMA(d.ctx.Now(), bundle, streamName{d.stream}, func() {
		d.dispatchSend(to)
	})
}

func (d *DoubleBinaryTree) dispatchSend(to int) {
	tag := int(d.stream.ID)
	chunkID := d.ctx.Matcher.SimSend(tag, d.rank, to, d.dataSize, func() {})
	req := netio.NewRequestHandle()
	d.ctx.Backend.Send(d.dataSize, netio.MsgType(0), to, tag, req, func(netio.RequestHandle) {
		d.ctx.Matcher.Arrival(tag, d.rank, to, d.dataSize, chunkID)
		// The upward chunk is one of the two a non-root rank owes.
		if to == d.parent {
			d.done()
		}
	})
}

// awaitFrom registers this rank's recv side for an inbound transfer from
// src through the rendezvous matcher; once the matcher reports the
// transfer arrived, the payload still has to cross from the memory
// accelerator back to the NPU before onPacketReceived runs.
func (d *DoubleBinaryTree) awaitFrom(src int) {
	tag := int(d.stream.ID)
	_, fireNow := d.ctx.Matcher.SimRecv(tag, src, d.rank, d.dataSize, d.onArrived)
	req := netio.NewRequestHandle()
	d.ctx.Backend.Recv(d.dataSize, netio.MsgType(0), src, tag, req, func(netio.RequestHandle) {})
	if fireNow {
		d.onArrived()
	}
}

// onArrived moves the arrived chunk from the memory accelerator to the
// NPU, reducing it in transit whenever this is the upward reduction pass
// rather than the downward broadcast.
func (d *DoubleBinaryTree) onArrived() {
	bundle := membus.PacketBundle{
		Size:        d.dataSize,
		Class:       membus.Usual,
		ReduceOnNPU: d.state != dbtWaitingDataFromParent,
	}
	d.ctx.Bus.SendToNPU(d.ctx.Now(), bundle, streamName{d.stream}, func() {
		d.Run(streaming.PacketReceived, nil)
	})
}
