// Package collective expands each high-level collective (All-Reduce,
// All-Gather, Reduce-Scatter, All-to-All) into a concrete schedule of
// point-to-point chunks over a logical topology dimension, and provides the
// Double-Binary-Tree and trace-driven alternatives. Each algorithm is a
// state machine bound to exactly one streaming.Stream.
package collective

import (
	"github.com/sarchlab/clustersim/engine"
	"github.com/sarchlab/clustersim/membus"
	"github.com/sarchlab/clustersim/netio"
	"github.com/sarchlab/clustersim/rendezvous"
)

// ComType is the high-level collective operation an algorithm instance
// serves.
type ComType int

const (
	// AllReduce combines a Reduce-Scatter phase and an All-Gather phase.
	AllReduce ComType = iota
	// AllGather replicates each rank's shard to every other rank.
	AllGather
	// ReduceScatter reduces and shards data across ranks.
	ReduceScatter
	// AllToAllComType exchanges a distinct shard with every other rank. Named
	// apart from the AllToAll algorithm type to keep the two in separate
	// identifier slots.
	AllToAllComType
)

// InjectionPolicy controls how many reductions a Stream may have in
// flight at once; it scales the Ring family's parallel_reduce parameter.
type InjectionPolicy int

const (
	// Normal allows exactly one reduction in flight.
	Normal InjectionPolicy = iota
	// Aggressive allows up to nodesInRing-1 reductions in flight.
	Aggressive
	// SemiAggressive is accepted as a policy name; the Ring family treats
	// it like Normal (one reduction in flight).
	SemiAggressive
	// ExtraAggressive is accepted as a policy name; the Ring family treats
	// it like Normal (one reduction in flight).
	ExtraAggressive
	// Infinite is accepted as a policy name; the Ring family treats it like
	// Normal (one reduction in flight).
	Infinite
)

// Packet is one pending chunk transfer an algorithm has queued but not yet
// issued to the backend.
type Packet struct {
	Vnet     int
	Sender   int
	Receiver int
}

// Context bundles the collaborators every collective algorithm needs:
// the network backend, the rendezvous matcher pairing its sends and
// recvs, the memory bus for NPU<->MA latency, and the engine used to
// schedule now+0 callbacks.
type Context struct {
	Rank    int
	Backend netio.Backend
	Matcher *rendezvous.Matcher
	Bus     *membus.Bus
	Eng     engine.EventScheduler
	Now     func() engine.Tick
}
