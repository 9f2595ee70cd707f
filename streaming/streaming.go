// Package streaming implements the Stream & Packet model: the per-rank,
// per-collective-phase state machine and its chunk accounting. A collective
// that decomposes into multiple phases (e.g. reduce-scatter then
// all-gather) chains one Stream per phase, each advancing the next on exit.
package streaming

import "fmt"

// State is a Stream's lifecycle stage.
type State int

const (
	// Created is the initial state, before the Stream has been scheduled
	// onto a vnet.
	Created State = iota
	// Ready means the Stream is scheduled and waiting for its turn to
	// issue.
	Ready
	// Executing means the Stream has issued at least one chunk and has
	// outstanding work.
	Executing
	// Zombie means the Stream's chunk count reached zero but some
	// outstanding chunks are not yet accounted for.
	Zombie
	// Dead is the terminal state: every chunk is accounted for and the
	// Stream has exited its vnet.
	Dead
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Ready:
		return "ready"
	case Executing:
		return "executing"
	case Zombie:
		return "zombie"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// Algorithm drives a Stream's chunk emission in response to the three
// events every collective algorithm reacts to.
type Algorithm interface {
	// Init runs once, when the Stream is first bound to the algorithm.
	Init(s *Stream)
	// Run reacts to an event (StreamInit, General, or PacketReceived) with
	// its associated data.
	Run(event Event, data interface{})
	// Exit runs once the Stream has no more work; it may advance the next
	// Stream sharing this vnet.
	Exit()
}

// Event is one of the three signals a collective Algorithm reacts to.
type Event int

const (
	// StreamInit signals a Stream has just entered Ready.
	StreamInit Event = iota
	// General signals a memory-bus completion.
	General
	// PacketReceived signals a chunk arrived, freeing a queue slot.
	PacketReceived
)

// Stream is the execution context of one collective phase on one rank.
type Stream struct {
	ID              int64
	CurrentQueueID  int
	Rank            int
	InitialDataSize int
	FinalDataSize   int

	state State
	algo  Algorithm

	streamCount int // outstanding chunk-transfer slots
	next        *Stream
}

// New creates a Stream in the Created state, owned by rank, bound to algo.
// initialDataSize/finalDataSize follow the per-ComType sizing table the
// owning collective algorithm computes.
func New(id int64, rank int, initialDataSize, finalDataSize int, algo Algorithm) *Stream {
	s := &Stream{
		ID:              id,
		Rank:            rank,
		InitialDataSize: initialDataSize,
		FinalDataSize:   finalDataSize,
		state:           Created,
		algo:            algo,
	}
	algo.Init(s)
	return s
}

// State returns the Stream's current lifecycle stage.
func (s *Stream) State() State { return s.state }

// SetStreamCount sets the number of outstanding chunk-transfer slots this
// Stream must account for before it may enter Zombie.
func (s *Stream) SetStreamCount(n int) { s.streamCount = n }

// StreamCount returns the number of outstanding chunk-transfer slots.
func (s *Stream) StreamCount() int { return s.streamCount }

// DecrementStreamCount lowers the outstanding count by one; once it reaches
// zero the Stream becomes eligible to enter Zombie (still gated on all
// outstanding chunks being accounted for, tracked by the algorithm).
func (s *Stream) DecrementStreamCount() {
	if s.streamCount == 0 {
		panic("streaming: stream count decremented past zero")
	}
	s.streamCount--
}

// Ready is transitions from Created to Ready.
func (s *Stream) Ready() {
	if s.state != Created && s.state != Ready {
		panic(fmt.Sprintf("streaming: cannot ready a stream in state %s", s.state))
	}
	s.state = Ready
	s.algo.Run(StreamInit, nil)
}

// Execute transitions from Ready to Executing; called when the scheduler
// issues the Stream's first chunk.
func (s *Stream) Execute() {
	if s.state != Ready && s.state != Executing {
		panic(fmt.Sprintf("streaming: cannot execute a stream in state %s", s.state))
	}
	s.state = Executing
}

// ToZombie transitions to Zombie once streamCount has reached zero.
func (s *Stream) ToZombie() {
	if s.streamCount != 0 {
		panic("streaming: cannot zombie a stream with outstanding chunks")
	}
	s.state = Zombie
}

// Handle dispatches event/data to the bound algorithm. It changes no state
// itself; the algorithm moves the Stream to Dead by calling
// ProceedToNextVnetBaseline once it has drained.
func (s *Stream) Handle(event Event, data interface{}) {
	s.algo.Run(event, data)
}

// ProceedToNextVnetBaseline transitions the Stream to Dead and, if a
// successor Stream was chained (multi-phase collectives), readies it. This
// is the mechanism by which a reduce-scatter phase hands off to its
// following all-gather phase.
func (s *Stream) ProceedToNextVnetBaseline() {
	s.state = Dead
	s.algo.Exit()
	if s.next != nil {
		s.next.Ready()
	}
}

// ChainNext links s's successor phase, readied when s calls
// ProceedToNextVnetBaseline.
func (s *Stream) ChainNext(next *Stream) {
	s.next = next
}
