// Package rendezvous pairs sender and receiver callbacks for every chunk in
// flight, keyed by (tag, src, dst, size, chunk-id), and hands out the
// monotone per-(tag,src,dst,size) chunk-id sequence that makes pairing
// deterministic even when many identical-shape messages are in flight.
package rendezvous

import "fmt"

// Handler is invoked once a send or receive is satisfied.
type Handler func()

// shapeKey identifies a (tag, src, dst, size) message shape, the key the
// chunk-id counters and standby-arrival ledger are kept under.
type shapeKey struct {
	tag, src, dst, size int
}

// entryKey identifies one specific chunk within a shape.
type entryKey struct {
	shapeKey
	chunkID int64
}

// entry is a Callback Entry: the send and/or recv handler registered for
// one (tag,src,dst,size,chunk_id) tuple, plus whether the transmission
// side has already completed.
type entry struct {
	send                 Handler
	recv                 Handler
	sendSet              bool
	recvSet              bool
	transmissionFinished bool
}

// counters is the per-shape (send_seq, recv_seq) pair, each starting at -1
// and incremented on every chunk-id allocation.
type counters struct {
	sendSeq int64
	recvSeq int64
}

// Matcher is the Rendezvous Matcher: three maps keyed by
// (tag,src,dst,size[,chunk_id]) — callback entries holding both the
// waiting send and recv handlers, chunk-id counters, and standby
// arrivals — mediating the send/recv/arrival protocol
// between the Workload Engine (or a collective algorithm) and the network
// backend.
//
// PacketLevel gates partial-size arrival semantics: analytical backends
// always deliver a chunk whole, so a size-mismatched arrival is a contract
// violation unless PacketLevel is set, matching the design decision that
// partial delivery is packet-level-backend-specific.
type Matcher struct {
	PacketLevel bool

	entries         map[entryKey]*entry
	chunkIDCounters map[shapeKey]*counters
	standbyArrivals map[shapeKey]int
}

// New returns an empty Matcher.
func New() *Matcher {
	return &Matcher{
		entries:         make(map[entryKey]*entry),
		chunkIDCounters: make(map[shapeKey]*counters),
		standbyArrivals: make(map[shapeKey]int),
	}
}

func (m *Matcher) countersFor(k shapeKey) *counters {
	c, ok := m.chunkIDCounters[k]
	if !ok {
		c = &counters{sendSeq: -1, recvSeq: -1}
		m.chunkIDCounters[k] = c
	}
	return c
}

// CreateSendChunkID allocates the next send-side chunk-id for the given
// message shape.
func (m *Matcher) CreateSendChunkID(tag, src, dst, size int) int64 {
	c := m.countersFor(shapeKey{tag, src, dst, size})
	c.sendSeq++
	return c.sendSeq
}

// CreateRecvChunkID allocates the next recv-side chunk-id for the given
// message shape.
func (m *Matcher) CreateRecvChunkID(tag, src, dst, size int) int64 {
	c := m.countersFor(shapeKey{tag, src, dst, size})
	c.recvSeq++
	return c.recvSeq
}

// SimSend registers a send callback for the given message shape, allocating
// its chunk-id. If a matching entry already exists (the recv side arrived
// first), the send handler is attached to it; otherwise a new entry is
// created. It returns the allocated chunk-id.
func (m *Matcher) SimSend(tag, src, dst, size int, cb Handler) int64 {
	chunkID := m.CreateSendChunkID(tag, src, dst, size)
	k := entryKey{shapeKey{tag, src, dst, size}, chunkID}

	e, ok := m.entries[k]
	if !ok {
		e = &entry{}
		m.entries[k] = e
	}
	e.send = cb
	e.sendSet = true
	return chunkID
}

// SimRecv registers a recv callback for the given message shape, allocating
// its chunk-id. If a matching entry exists and its transmission already
// finished, the handler fires immediately (at now+0, left to the caller to
// schedule); if it exists but has not finished, the handler is registered;
// otherwise a new entry is created with only the recv handler. It returns
// the allocated chunk-id and whether cb should fire immediately.
func (m *Matcher) SimRecv(tag, src, dst, size int, cb Handler) (chunkID int64, fireNow bool) {
	chunkID = m.CreateRecvChunkID(tag, src, dst, size)
	k := entryKey{shapeKey{tag, src, dst, size}, chunkID}

	e, ok := m.entries[k]
	if !ok {
		e = &entry{}
		m.entries[k] = e
	}
	e.recv = cb
	e.recvSet = true

	if e.transmissionFinished {
		delete(m.entries, k)
		return chunkID, true
	}
	return chunkID, false
}

// Arrival reports that the backend delivered a chunk of the given size for
// the (tag,src,dst,size,chunk_id) tuple. If both handlers are registered
// they fire send-then-recv and the entry is removed. If only the send
// handler is registered, it fires and the entry is marked
// transmission-finished so the eventual matching SimRecv fires immediately.
// It panics if neither handler is registered — an arrival with no matcher
// entry is a contract violation.
func (m *Matcher) Arrival(tag, src, dst, size int, chunkID int64) {
	k := entryKey{shapeKey{tag, src, dst, size}, chunkID}
	e, ok := m.entries[k]
	if !ok {
		panic(fmt.Sprintf(
			"rendezvous: arrival for unknown entry tag=%d src=%d dst=%d size=%d chunk=%d",
			tag, src, dst, size, chunkID))
	}

	switch {
	case e.sendSet && e.recvSet:
		e.send()
		e.recv()
		delete(m.entries, k)
	case e.sendSet:
		e.send()
		e.transmissionFinished = true
	default:
		panic(fmt.Sprintf(
			"rendezvous: arrival for entry with no send handler tag=%d src=%d dst=%d size=%d chunk=%d",
			tag, src, dst, size, chunkID))
	}
}

// ArrivalPartial is the packet-level variant of Arrival: an arrival of k
// bytes against a recv side that expects m bytes. It requires
// PacketLevel to be set. If k == m it behaves like Arrival; if k > m the
// recv handler fires and k-m bytes are left in the standby-arrival ledger
// for this shape; if k < m no handler fires and the matcher records
// nothing: the remaining expectation is not stored here, and the entry
// stays live for a later call.
func (m *Matcher) ArrivalPartial(tag, src, dst, size int, chunkID int64, want, got int) {
	if !m.PacketLevel {
		panic("rendezvous: partial-size arrival requires PacketLevel")
	}

	k := entryKey{shapeKey{tag, src, dst, size}, chunkID}
	e, ok := m.entries[k]
	if !ok {
		panic(fmt.Sprintf(
			"rendezvous: partial arrival for unknown entry tag=%d src=%d dst=%d size=%d chunk=%d",
			tag, src, dst, size, chunkID))
	}

	sk := shapeKey{tag, src, dst, size}

	switch {
	case got == want:
		if e.sendSet {
			e.send()
		}
		if e.recvSet {
			e.recv()
		}
		delete(m.entries, k)
	case got > want:
		if e.recvSet {
			e.recv()
		}
		m.standbyArrivals[sk] += got - want
		delete(m.entries, k)
	default:
		// got < want: the recv side's expectation shrinks by got bytes but
		// no handler fires yet. The caller tracks the reduced expectation
		// and re-arrives against the same entry for the remainder.
	}
}

// StandbyArrival returns the number of bytes parked for shape (tag,src,dst,
// size) that arrived but have not yet been claimed by a matching recv.
func (m *Matcher) StandbyArrival(tag, src, dst, size int) int {
	return m.standbyArrivals[shapeKey{tag, src, dst, size}]
}

// ConsumeStandby claims up to want bytes from the standby-arrival ledger
// for the given shape, returning how many bytes were actually available.
func (m *Matcher) ConsumeStandby(tag, src, dst, size, want int) int {
	sk := shapeKey{tag, src, dst, size}
	have := m.standbyArrivals[sk]
	if have == 0 {
		return 0
	}
	taken := have
	if taken > want {
		taken = want
	}
	m.standbyArrivals[sk] = have - taken
	return taken
}

// EntryCount returns the number of live callback entries, for tests
// asserting that every entry created was eventually removed.
func (m *Matcher) EntryCount() int {
	return len(m.entries)
}
