package collective

import (
	"fmt"

	"github.com/sarchlab/clustersim/engine"
	"github.com/sarchlab/clustersim/membus"
	"github.com/sarchlab/clustersim/netio"
	"github.com/sarchlab/clustersim/streaming"
	"github.com/sarchlab/clustersim/topology"
)

// ringOps is implemented by Ring and overridden by AllToAll, standing in
// for the handful of methods the original C++ hierarchy made virtual. A
// Ring keeps a reference to self so its own methods dispatch through the
// override when one is embedding it.
type ringOps interface {
	processMaxCount()
	nonZeroLatencyPackets() int
}

// Ring serves All-Reduce, All-Gather, and Reduce-Scatter directly, and is
// the base AllToAll embeds. Every (n-1) step of the ring, a chunk moves to
// the same fixed neighbor pair computed once at construction — the
// classic unrolled ring schedule.
type Ring struct {
	self ringOps

	ctx Context

	comType        ComType
	rank           int
	dim            topology.RingDimension
	direction      topology.Direction
	dataSize       int
	nodesInRing    int
	currSender     int
	currReceiver   int
	parallelReduce int
	injection      InjectionPolicy
	transmission   membus.Class

	msgSize       int
	finalDataSize int

	maxCount                   int
	remainedPacketsPerMessage  int
	remainedPacketsPerMaxCount int

	totalPacketsSent     int
	totalPacketsReceived int
	freePackets          int

	zeroLatencyPackets int
	nonZeroLatencyPkts int
	toggle             bool

	packets       []Packet
	lockedPackets []Packet

	processed bool
	sendBack  bool
	npuToMA   bool

	stream *streaming.Stream
}

// NewRing builds a Ring algorithm bound to rank id over dim, transporting
// dataSize bytes of comType, with chunks flowing in direction under
// injection policy.
func NewRing(
	ctx Context,
	comType ComType,
	rank int,
	dim topology.RingDimension,
	direction topology.Direction,
	dataSize int,
	injection InjectionPolicy,
) *Ring {
	n := dim.Size()
	r := &Ring{
		ctx:                        ctx,
		comType:                    comType,
		rank:                       rank,
		dim:                        dim,
		direction:                  direction,
		dataSize:                   dataSize,
		nodesInRing:                n,
		currSender:                 dim.GetSender(rank, direction),
		currReceiver:               dim.GetReceiver(rank, direction),
		parallelReduce:             1,
		injection:                  injection,
		remainedPacketsPerMessage:  1,
		remainedPacketsPerMaxCount: 1,
	}
	r.self = r

	if dim.Local() {
		r.transmission = membus.Fast
	} else {
		r.transmission = membus.Usual
	}

	if injection == Aggressive {
		r.parallelReduce = n - 1
	}

	switch comType {
	case AllReduce:
		r.finalDataSize = dataSize
		r.msgSize = dataSize / n
	case AllGather:
		r.finalDataSize = dataSize * n
		r.msgSize = dataSize
	case ReduceScatter:
		r.finalDataSize = dataSize / n
		r.msgSize = dataSize / n
	case AllToAllComType:
		r.finalDataSize = dataSize
		r.msgSize = dataSize / n
	}

	switch comType {
	case AllReduce:
		r.maxCount = n - 1
	case ReduceScatter:
		r.maxCount = n - 1
	case AllGather, AllToAllComType:
		r.maxCount = 0
	}

	return r
}

// streamCount reports the (n-1)-or-2(n-1)-or-n(n-1)/2 chunk budget for
// comType, per the table in the collective algorithms' design.
func streamCount(comType ComType, n int) int {
	switch comType {
	case AllReduce:
		return 2 * (n - 1)
	case AllToAllComType:
		return n * (n - 1) / 2
	default:
		return n - 1
	}
}

// Init binds the Ring to its owning Stream and seeds its chunk budget.
func (r *Ring) Init(s *streaming.Stream) {
	r.stream = s
	s.SetStreamCount(streamCount(r.comType, r.nodesInRing))
}

// Run reacts to the three collective events.
func (r *Ring) Run(event streaming.Event, data interface{}) {
	switch event {
	case streaming.General:
		r.freePackets++
		r.ready()
		r.iteratable()
	case streaming.PacketReceived:
		r.totalPacketsReceived++
		r.insertPacket()
	case streaming.StreamInit:
		for i := 0; i < r.parallelReduce; i++ {
			r.insertPacket()
		}
	}
}

// Exit clears queued packets. The Stream calls this itself as part of
// ProceedToNextVnetBaseline; a Ring never calls its own Exit directly,
// since that would recurse back into ProceedToNextVnetBaseline.
func (r *Ring) Exit() {
	r.packets = nil
	r.lockedPackets = nil
}

func (r *Ring) nonZeroLatencyPackets() int {
	return (r.nodesInRing - 1) * r.parallelReduce
}

// insertPacket queues one chunk transfer, alternating between the
// zero-latency (memory-accelerator) and non-zero-latency (peer) queues
// exactly as the original Ring::insert_packet does, including the toggle
// that gates whether a non-zero-latency pass performs a reduction.
func (r *Ring) insertPacket() {
	if r.zeroLatencyPackets == 0 && r.nonZeroLatencyPkts == 0 {
		r.zeroLatencyPackets = r.parallelReduce
		r.nonZeroLatencyPkts = r.self.nonZeroLatencyPackets()
		r.toggle = !r.toggle
	}

	if r.zeroLatencyPackets > 0 {
		r.packets = append(r.packets, Packet{
			Vnet:     r.stream.CurrentQueueID,
			Sender:   r.currSender,
			Receiver: r.currReceiver,
		})
		r.lockedPackets = append(r.lockedPackets, r.packets[len(r.packets)-1])
		r.processed = false
		r.sendBack = false
		r.npuToMA = true
		r.self.processMaxCount()
		r.zeroLatencyPackets--
		return
	}

	if r.nonZeroLatencyPkts > 0 {
		r.packets = append(r.packets, Packet{
			Vnet:     r.stream.CurrentQueueID,
			Sender:   r.currSender,
			Receiver: r.currReceiver,
		})
		r.lockedPackets = append(r.lockedPackets, r.packets[len(r.packets)-1])

		if r.comType == ReduceScatter || (r.comType == AllReduce && r.toggle) {
			r.processed = true
		} else {
			r.processed = false
		}

		r.sendBack = r.nonZeroLatencyPkts > r.parallelReduce

		r.npuToMA = false
		r.self.processMaxCount()
		r.nonZeroLatencyPkts--
		return
	}

	panic("collective: ring should not inject nothing")
}

// processMaxCount releases the current batch of locked packets once the
// per-max-count budget drains. The base Ring never advances its fixed
// sender/receiver pair; AllToAll overrides this to rotate through every
// peer.
func (r *Ring) processMaxCount() {
	if r.remainedPacketsPerMaxCount > 0 {
		r.remainedPacketsPerMaxCount--
	}
	if r.remainedPacketsPerMaxCount == 0 {
		r.maxCount--
		r.releasePackets()
		r.remainedPacketsPerMaxCount = 1
	}
}

// releasePackets hands every locked packet to the memory bus, scheduling
// their completion as a General event back to this Stream.
func (r *Ring) releasePackets() {
	bundle := membus.PacketBundle{
		Size:        r.msgSize,
		Class:       r.transmission,
		ReduceOnNPU: r.processed,
		SendBack:    r.sendBack,
	}
	now := r.ctx.Now()
	fn := func() { r.Run(streaming.General, nil) }
	if r.npuToMA {
		r.ctx.Bus.SendToMA(now, bundle, r.streamHandler(), fn)
	} else {
		r.ctx.Bus.SendToNPU(now, bundle, r.streamHandler(), fn)
	}
	r.lockedPackets = nil
}

// streamHandler adapts the owning stream into an engine.Handler purely for
// event-log attribution; dispatch itself always runs through the
// CallbackEvent closure, not through this Handle.
func (r *Ring) streamHandler() engine.Handler {
	return streamName{r.stream}
}

type streamName struct{ s *streaming.Stream }

func (n streamName) Handle(engine.Event) error { return nil }
func (n streamName) Name() string              { return fmt.Sprintf("stream-%d", n.s.ID) }

func (r *Ring) processStreamCount() {
	if r.remainedPacketsPerMessage > 0 {
		r.remainedPacketsPerMessage--
	}

	if r.remainedPacketsPerMessage == 0 && r.stream.StreamCount() > 0 {
		r.stream.DecrementStreamCount()
		if r.stream.StreamCount() > 0 {
			r.remainedPacketsPerMessage = 1
		}
	}

	if r.remainedPacketsPerMessage == 0 && r.stream.StreamCount() == 0 &&
		r.stream.State() != streaming.Dead {
		r.stream.ToZombie()
	}
}

func (r *Ring) reduce() {
	r.processStreamCount()
	if len(r.packets) > 0 {
		r.packets = r.packets[1:]
	}
	r.freePackets--
	r.totalPacketsSent++
}

// iteratable checks whether the Ring has drained; if so it exits.
func (r *Ring) iteratable() bool {
	if r.stream.StreamCount() == 0 && r.freePackets == r.parallelReduce {
		r.stream.ProceedToNextVnetBaseline()
		return false
	}
	return true
}

// ready issues the head-of-queue packet's send/recv pair through the
// rendezvous matcher, if the Stream has budget and a free packet slot.
// The matcher's chunk-id sequencing is what disambiguates this from any
// other in-flight transfer of identical (tag,src,dst,size): with
// aggressive injection a Ring keeps several packets to the same fixed
// neighbor in flight at once, so tag alone cannot tell them apart.
func (r *Ring) ready() bool {
	if r.stream.State() == streaming.Created || r.stream.State() == streaming.Ready {
		r.stream.Execute()
	}

	if len(r.packets) == 0 || r.stream.StreamCount() == 0 || r.freePackets == 0 {
		return false
	}

	packet := r.packets[0]
	tag := int(r.stream.ID)

	sendChunk := r.ctx.Matcher.SimSend(tag, r.rank, packet.Receiver, r.msgSize, func() {})
	sendReq := netio.NewRequestHandle()
	r.ctx.Backend.Send(r.msgSize, netio.MsgType(0), packet.Receiver, tag, sendReq, func(netio.RequestHandle) {
		r.ctx.Matcher.Arrival(tag, r.rank, packet.Receiver, r.msgSize, sendChunk)
	})

	_, fireNow := r.ctx.Matcher.SimRecv(tag, packet.Sender, r.rank, r.msgSize, func() {
		r.Run(streaming.PacketReceived, nil)
	})
	recvReq := netio.NewRequestHandle()
	r.ctx.Backend.Recv(r.msgSize, netio.MsgType(0), packet.Sender, tag, recvReq, func(netio.RequestHandle) {})
	if fireNow {
		r.Run(streaming.PacketReceived, nil)
	}

	r.reduce()
	return true
}
