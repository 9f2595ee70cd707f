// Package membus models the per-rank NPU-to-memory-accelerator transfer
// that every chunk passes through before (or after) it is reduced or
// shipped out over the network. The latency function itself is an external
// oracle; this package only guarantees FIFO-per-stream delivery of the
// completion event.
package membus

import "github.com/sarchlab/clustersim/engine"

// Class selects a memory-bus latency profile. Local (on-chip) dimensions
// use the fast class; cross-chip ones use the usual class.
type Class int

const (
	// Fast is the latency class used for a Local topology dimension.
	Fast Class = iota
	// Usual is the default, slower latency class.
	Usual
)

// PacketBundle is the unit the memory bus moves: a chunk-sized transfer
// with a class and a pair of flags describing what the transfer is for.
type PacketBundle struct {
	Size        int
	Class       Class
	ReduceOnNPU bool
	SendBack    bool
}

// Latency is the external oracle giving the transfer time for a bundle of
// the given size and class.
type Latency func(size int, class Class) engine.Tick

// Bus drives PacketBundles across the memory bus for one rank, scheduling
// completion through the engine.
type Bus struct {
	eng     engine.EventScheduler
	latency Latency
}

// New returns a Bus that schedules completions on eng using latency to size
// each transfer.
func New(eng engine.EventScheduler, latency Latency) *Bus {
	return &Bus{eng: eng, latency: latency}
}

// SendToMA schedules bundle's completion as a General event at
// now + latency(size, class), modeling the NPU-to-memory-accelerator
// direction. owner attributes the event to the calling Stream for logging.
func (b *Bus) SendToMA(now engine.Tick, bundle PacketBundle, owner engine.Handler, fn func()) {
	b.schedule(now, bundle, owner, fn)
}

// SendToNPU schedules bundle's completion as a General event at
// now + latency(size, class), modeling the memory-accelerator-to-NPU
// direction. owner attributes the event to the calling Stream for logging.
func (b *Bus) SendToNPU(now engine.Tick, bundle PacketBundle, owner engine.Handler, fn func()) {
	b.schedule(now, bundle, owner, fn)
}

func (b *Bus) schedule(now engine.Tick, bundle PacketBundle, owner engine.Handler, fn func()) {
	delay := b.latency(bundle.Size, bundle.Class)
	evt := engine.NewCallbackEvent(now+delay, owner, fn)
	b.eng.Schedule(evt)
}
