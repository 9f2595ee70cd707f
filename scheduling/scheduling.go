// Package scheduling arbitrates which Stream, among the ones queued on a
// rank's topology dimensions, gets to issue its next chunk. It owns the
// per-dimension vnet queues a Stream occupies while waiting its turn, and
// the policies that order both within a queue and across dimensions.
package scheduling

import (
	"sort"

	"github.com/sarchlab/clustersim/collective"
	"github.com/sarchlab/clustersim/streaming"
)

// IntraOrdering orders the Streams waiting within one vnet queue.
type IntraOrdering int

const (
	// IntraFIFO issues Streams in arrival order.
	IntraFIFO IntraOrdering = iota
	// IntraRoundRobinGreedy is accepted as a policy name and issues
	// Streams in arrival order, the same as IntraFIFO; it does not
	// interleave distinct collectives.
	IntraRoundRobinGreedy
	// IntraSmallestFirst issues the Stream with the smallest final data
	// size first.
	IntraSmallestFirst
	// IntraLessRemainingPhaseFirst issues the Stream with the fewest
	// outstanding chunk-transfer slots first.
	IntraLessRemainingPhaseFirst
)

// InterOrdering picks which dimension is serviced next when more than one
// has a ready Stream.
type InterOrdering int

const (
	// InterAscending always favors the lowest dimension index with work.
	InterAscending InterOrdering = iota
	// InterRoundRobin cycles evenly across dimensions with work.
	InterRoundRobin
	// InterOnlineGreedy favors whichever dimension currently has the
	// largest ready queue.
	InterOnlineGreedy
	// InterOfflineGreedy and InterOfflineGreedyFlex are placeholders for
	// a precomputed dimension order handed in externally; absent one,
	// they behave like InterAscending.
	InterOfflineGreedy
	InterOfflineGreedyFlex
)

// Policy is the overall scheduling discipline applied when multiple
// Streams are simultaneously eligible within a queue slot.
type Policy int

const (
	// PolicyNone applies no extra discipline beyond the ordering policies.
	PolicyNone Policy = iota
	// PolicyFIFO applies no discipline beyond the ordering policies, the
	// same as PolicyNone; it does not impose arrival order across
	// dimensions.
	PolicyFIFO
	// PolicyLIFO issues the most recently queued Stream first.
	PolicyLIFO
	// PolicyExplicit applies no discipline beyond the ordering policies,
	// the same as PolicyNone. Enqueue overwrites Stream.CurrentQueueID with
	// its round-robin queue choice, so no caller-assigned priority is read.
	PolicyExplicit
)

// entry pairs a Stream with its insertion sequence, so ties break by
// arrival order regardless of which ordering policy is active.
type entry struct {
	stream *streaming.Stream
	seq    int64
}

// vnetQueue is one of a dimension's K work queues.
type vnetQueue struct {
	entries []entry
}

func (q *vnetQueue) push(e entry, order IntraOrdering) {
	q.entries = append(q.entries, e)

	switch order {
	case IntraSmallestFirst:
		sort.SliceStable(q.entries, func(i, j int) bool {
			return q.entries[i].stream.FinalDataSize < q.entries[j].stream.FinalDataSize
		})
	case IntraLessRemainingPhaseFirst:
		sort.SliceStable(q.entries, func(i, j int) bool {
			return q.entries[i].stream.StreamCount() < q.entries[j].stream.StreamCount()
		})
	default: // IntraFIFO, IntraRoundRobinGreedy
		// Arrival order is already insertion order.
	}
}

func (q *vnetQueue) pop() (*streaming.Stream, bool) {
	if len(q.entries) == 0 {
		return nil, false
	}
	e := q.entries[0]
	q.entries = q.entries[1:]
	return e.stream, true
}

func (q *vnetQueue) len() int { return len(q.entries) }

// dimension is one topology dimension's K vnet queues plus the
// round-robin cursor used to spread new Streams across them.
type dimension struct {
	queues   []*vnetQueue
	assignRR int
}

// Scheduler owns one rank's per-dimension vnet queues.
type Scheduler struct {
	intra     IntraOrdering
	inter     InterOrdering
	policy    Policy
	injection collective.InjectionPolicy

	dims      []*dimension
	seq       int64
	serviceRR int
}

// New returns a Scheduler with numDims dimensions, each holding queuesPerDim
// vnet queues (the "K" of §4.5; most deployments use K=1).
func New(numDims, queuesPerDim int, intra IntraOrdering, inter InterOrdering, policy Policy, injection collective.InjectionPolicy) *Scheduler {
	if queuesPerDim <= 0 {
		queuesPerDim = 1
	}
	dims := make([]*dimension, numDims)
	for i := range dims {
		qs := make([]*vnetQueue, queuesPerDim)
		for j := range qs {
			qs[j] = &vnetQueue{}
		}
		dims[i] = &dimension{queues: qs}
	}
	return &Scheduler{intra: intra, inter: inter, policy: policy, injection: injection, dims: dims}
}

// InjectionPolicy returns the configured injection policy, for collective
// algorithm constructors to consume.
func (s *Scheduler) InjectionPolicy() collective.InjectionPolicy { return s.injection }

// Enqueue places stream into dim's next vnet queue by round-robin
// assignment, recording the chosen index as the Stream's CurrentQueueID.
func (s *Scheduler) Enqueue(dim int, stream *streaming.Stream) {
	d := s.dims[dim]
	qi := d.assignRR % len(d.queues)
	d.assignRR++

	stream.CurrentQueueID = qi
	s.seq++

	order := s.intra
	if s.policy == PolicyLIFO {
		// LIFO is expressed by ordering: newest first, ties still broken
		// by seq via a reversed comparison at pop time is unnecessary
		// here since we just prepend.
		d.queues[qi].entries = append([]entry{{stream: stream, seq: s.seq}}, d.queues[qi].entries...)
		return
	}
	d.queues[qi].push(entry{stream: stream, seq: s.seq}, order)
}

// Next pops the next Stream to issue from whichever dimension the
// InterOrdering policy currently favors. It returns false if every
// dimension is empty.
func (s *Scheduler) Next() (*streaming.Stream, int, bool) {
	dimIdx, ok := s.pickDimension()
	if !ok {
		return nil, 0, false
	}

	d := s.dims[dimIdx]
	for _, q := range d.queues {
		if st, ok := q.pop(); ok {
			return st, dimIdx, true
		}
	}
	return nil, 0, false
}

func (s *Scheduler) pickDimension() (int, bool) {
	switch s.inter {
	case InterRoundRobin:
		n := len(s.dims)
		for i := 0; i < n; i++ {
			idx := (s.serviceRR + i) % n
			if s.dimSize(idx) > 0 {
				s.serviceRR = (idx + 1) % n
				return idx, true
			}
		}
		return 0, false
	case InterOnlineGreedy:
		best, bestSize := -1, 0
		for i := range s.dims {
			if sz := s.dimSize(i); sz > bestSize {
				best, bestSize = i, sz
			}
		}
		return best, best >= 0
	default: // InterAscending, InterOfflineGreedy, InterOfflineGreedyFlex
		for i := range s.dims {
			if s.dimSize(i) > 0 {
				return i, true
			}
		}
		return 0, false
	}
}

func (s *Scheduler) dimSize(i int) int {
	total := 0
	for _, q := range s.dims[i].queues {
		total += q.len()
	}
	return total
}
