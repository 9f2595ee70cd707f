// Package netio defines the narrow contract this simulator uses to talk to
// a pluggable network backend (analytical, analytical-with-congestion, or
// packet-level). The core never depends on a concrete backend — only on
// this interface.
package netio

import (
	"github.com/google/uuid"

	"github.com/sarchlab/clustersim/engine"
)

// MsgType identifies the payload kind carried in a Chunk, mirroring the
// original network API's element-type parameter. The simulator treats it
// as opaque — it never inspects payload bytes.
type MsgType int

// RequestHandle is an opaque per-request identifier exchanged across the
// Send/Recv boundary, distinct from the engine's own sequential or xid
// identifiers: it identifies one in-flight transport request to the
// backend, not a simulation entity.
type RequestHandle uuid.UUID

// NewRequestHandle allocates a fresh, globally unique RequestHandle.
func NewRequestHandle() RequestHandle {
	return RequestHandle(uuid.New())
}

// Chunk is the smallest transport unit the backend moves: a message
// fragment destined from Src to Dst, tagged and sized, carrying a
// monotone-per-(tag,src,dst,size) ChunkID.
type Chunk struct {
	Size    int
	Src     int
	Dst     int
	Tag     int
	Vnet    int
	ChunkID int64
}

// OnDone is invoked by the backend once a Send or Recv completes, with the
// RequestHandle it was registered under.
type OnDone func(req RequestHandle)

// Backend is the five-operation network contract external to the core: an
// opaque provider of send/recv/schedule/time primitives. sim_comm_get_rank
// and sim_comm_set_rank are omitted — rank identity is the receiver's own
// concern in this Go port, not the backend's.
type Backend interface {
	// Send transmits count bytes of msgType from this rank to dst, tagged
	// tag, and invokes onDone when the backend reports the send complete.
	Send(count int, msgType MsgType, dst, tag int, req RequestHandle, onDone OnDone) int

	// Recv registers interest in count bytes of msgType from src, tagged
	// tag, and invokes onDone when a matching arrival is claimed.
	Recv(count int, msgType MsgType, src, tag int, req RequestHandle, onDone OnDone) int

	// Schedule enqueues fn to run at now + delta.
	Schedule(delta engine.Tick, fn func())

	// Now returns the backend's view of the current simulated tick. The
	// core always requires nanosecond resolution.
	Now() engine.Tick

	// NotifyFinished tells the backend this rank has no more work.
	NotifyFinished()

	// BandwidthAtDimension is optional; backends that do not model
	// per-dimension bandwidth may return 0.
	BandwidthAtDimension(dim int) float64
}

// DummyData is a zero-filled sentinel buffer owned by the backend adapter,
// standing in for a real payload the core never inspects.
var DummyData = make([]byte, 1)
