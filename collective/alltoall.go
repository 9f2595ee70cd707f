package collective

import (
	"github.com/sarchlab/clustersim/streaming"
	"github.com/sarchlab/clustersim/topology"
)

// AllToAll embeds Ring and overrides two of its behaviors: every chunk
// rotates curr_sender/curr_receiver to the next ring position (skipping
// self on both sides), and the non-zero-latency packet count depends on
// whether the dimension is Local. Run adds a middlePoint gate on General
// events, but only for an All-Reduce ComType; an all-to-all schedule never
// takes that gate and drains exactly like the base Ring.
type AllToAll struct {
	*Ring

	middlePoint int
}

// NewAllToAll builds an All-to-All algorithm bound to rank over dim.
func NewAllToAll(
	ctx Context,
	rank int,
	dim topology.RingDimension,
	direction topology.Direction,
	dataSize int,
	injection InjectionPolicy,
) *AllToAll {
	ring := NewRing(ctx, AllToAllComType, rank, dim, direction, dataSize, injection)
	a := &AllToAll{Ring: ring}
	a.Ring.self = a
	a.middlePoint = ring.nodesInRing - 1
	return a
}

// processMaxCount releases the current batch like the base Ring, then
// rotates curr_sender/curr_receiver one step further around the ring,
// skipping over rank itself on whichever side lands there.
func (a *AllToAll) processMaxCount() {
	a.Ring.processMaxCount()

	a.currSender = a.dim.GetSender(a.currSender, a.direction)
	if a.currSender == a.rank {
		a.currSender = a.dim.GetSender(a.currSender, a.direction)
	}

	a.currReceiver = a.dim.GetReceiver(a.currReceiver, a.direction)
	if a.currReceiver == a.rank {
		a.currReceiver = a.dim.GetReceiver(a.currReceiver, a.direction)
	}
}

// nonZeroLatencyPackets scales by the full ring width for a non-Local
// dimension (every other rank is a distinct network hop), or by
// parallelReduce alone for a Local one.
func (a *AllToAll) nonZeroLatencyPackets() int {
	if !a.dim.Local() {
		return (a.nodesInRing - 1) * a.parallelReduce
	}
	return a.parallelReduce
}

// Run defers to the base Ring for every event. A General event gets one
// extra gate, carried over from the windowed-ring base this embeds: when
// run for an All-Reduce-shaped schedule with its stream count already down
// to middlePoint or below, General events are held off until middlePoint
// packets have actually arrived, then parallelReduce sends are issued at
// once. Plain all-to-all (the only ComType this module ever constructs an
// AllToAll with) never satisfies that condition, so it always falls
// straight through to the base Ring behavior.
func (a *AllToAll) Run(event streaming.Event, data interface{}) {
	if event == streaming.General && a.comType == AllReduce && a.stream.StreamCount() <= a.middlePoint {
		a.freePackets++
		if a.totalPacketsReceived < a.middlePoint {
			return
		}
		for i := 0; i < a.parallelReduce; i++ {
			a.ready()
		}
		a.iteratable()
		return
	}
	a.Ring.Run(event, data)
}
