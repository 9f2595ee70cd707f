package workload

import (
	"github.com/sarchlab/clustersim/collective"
	"github.com/sarchlab/clustersim/engine"
	"github.com/sarchlab/clustersim/scheduling"
	"github.com/sarchlab/clustersim/streaming"
	"github.com/sarchlab/clustersim/topology"
)

// CollectiveHandle is returned by every CollectiveSystem.Generate* call; the
// caller attaches a completion notifier the way the original system's
// DataSet did, but without any allocation to track or free.
type CollectiveHandle struct {
	notify func()
}

// SetNotifier registers fn to run once every phase of this collective has
// drained to Dead.
func (h *CollectiveHandle) SetNotifier(fn func()) {
	h.notify = fn
}

// schedAlgo decorates a streaming.Algorithm so its Exit also releases the
// CollectiveSystem's single issue slot and advances to whatever the
// Scheduler picks next, instead of handing off unconditionally the way a
// bare ChainNext would.
type schedAlgo struct {
	inner   streaming.Algorithm
	cs      *CollectiveSystem
	advance func()
}

func (a *schedAlgo) Init(s *streaming.Stream)             { a.inner.Init(s) }
func (a *schedAlgo) Run(e streaming.Event, d interface{}) { a.inner.Run(e, d) }
func (a *schedAlgo) Exit() {
	a.inner.Exit()
	a.cs.release()
	if a.advance != nil {
		a.advance()
	}
}

// CollectiveSystem turns a Workload Engine's generate_all_reduce-style
// request into one chained Stream per involved ring dimension, each bound
// to a Ring (or AllToAll) algorithm, and fires the caller's notifier once
// the last phase exits. Every phase is enqueued on the scheduling.Scheduler
// before it is readied, so concurrently generated collectives arbitrate
// for a rank's single issue slot the way Scheduler.Next orders them,
// rather than skipping straight to Stream.Ready. Multi-dimension
// collectives reuse the caller's size unchanged across phases: the
// per-dimension size cascade a hierarchical reduction would apply is not
// specified at this level of detail, so every involved dimension
// reduces/gathers the same size.
type CollectiveSystem struct {
	rank      int
	topo      *topology.Topology
	ctx       collective.Context
	direction topology.Direction
	injection collective.InjectionPolicy
	sched     *scheduling.Scheduler

	nextStreamID int64
	busy         bool
}

// NewCollectiveSystem returns a CollectiveSystem bound to rank, routing
// collectives over topo's ring dimensions through sched.
func NewCollectiveSystem(
	rank int,
	topo *topology.Topology,
	ctx collective.Context,
	direction topology.Direction,
	injection collective.InjectionPolicy,
	sched *scheduling.Scheduler,
) *CollectiveSystem {
	return &CollectiveSystem{rank: rank, topo: topo, ctx: ctx, direction: direction, injection: injection, sched: sched}
}

func (s *CollectiveSystem) GenerateAllReduce(size int, involvedDim []bool) *CollectiveHandle {
	return s.generate(collective.AllReduce, size, involvedDim)
}

func (s *CollectiveSystem) GenerateAllGather(size int, involvedDim []bool) *CollectiveHandle {
	return s.generate(collective.AllGather, size, involvedDim)
}

func (s *CollectiveSystem) GenerateReduceScatter(size int, involvedDim []bool) *CollectiveHandle {
	return s.generate(collective.ReduceScatter, size, involvedDim)
}

func (s *CollectiveSystem) GenerateAllToAll(size int, involvedDim []bool) *CollectiveHandle {
	return s.generate(collective.AllToAllComType, size, involvedDim)
}

func (s *CollectiveSystem) generate(comType collective.ComType, size int, involvedDim []bool) *CollectiveHandle {
	h := &CollectiveHandle{}
	dims, dimIdxs := s.selectedRingDims(involvedDim)

	if len(dims) == 0 {
		evt := engine.NewCallbackEvent(s.ctx.Now(), engine.AnonymousHandler, func() {
			if h.notify != nil {
				h.notify()
			}
		})
		s.ctx.Eng.Schedule(evt)
		return h
	}

	streams := make([]*streaming.Stream, len(dims))
	wrappers := make([]*schedAlgo, len(dims))

	for i, dim := range dims {
		s.nextStreamID++

		var inner streaming.Algorithm
		if comType == collective.AllToAllComType {
			inner = collective.NewAllToAll(s.ctx, s.rank, dim, s.direction, size, s.sched.InjectionPolicy())
		} else {
			inner = collective.NewRing(s.ctx, comType, s.rank, dim, s.direction, size, s.sched.InjectionPolicy())
		}

		wrappers[i] = &schedAlgo{inner: inner, cs: s}
		streams[i] = streaming.New(s.nextStreamID, s.rank, size, size, wrappers[i])
	}

	for i := range streams {
		i := i
		if i == len(streams)-1 {
			wrappers[i].advance = func() {
				if h.notify != nil {
					h.notify()
				}
			}
			continue
		}
		nextDim, nextStream := dimIdxs[i+1], streams[i+1]
		wrappers[i].advance = func() { s.enqueueAndDrive(nextDim, nextStream) }
	}

	s.enqueueAndDrive(dimIdxs[0], streams[0])

	return h
}

// enqueueAndDrive places st on dim's vnet queue and, if the CollectiveSystem
// currently has no Stream in flight, immediately lets the Scheduler pick
// the next one to ready — which is not necessarily st itself, if another
// phase is already waiting under a higher-priority ordering.
func (s *CollectiveSystem) enqueueAndDrive(dim int, st *streaming.Stream) {
	s.sched.Enqueue(dim, st)
	s.drive()
}

func (s *CollectiveSystem) drive() {
	if s.busy {
		return
	}
	st, _, ok := s.sched.Next()
	if !ok {
		return
	}
	s.busy = true
	st.Ready()
}

func (s *CollectiveSystem) release() {
	s.busy = false
}

// selectedRingDims resolves involvedDim against the topology's ring
// dimensions, silently ignoring any index beyond what the topology has. It
// returns both the dimensions themselves and their original topology
// indices, since the latter are what the Scheduler's per-dimension queues
// are keyed by.
func (s *CollectiveSystem) selectedRingDims(involvedDim []bool) ([]topology.RingDimension, []int) {
	var dims []topology.RingDimension
	var idxs []int
	for i, on := range involvedDim {
		if on && i < s.topo.NumRingDims() {
			dims = append(dims, s.topo.RingDim(i))
			idxs = append(idxs, i)
		}
	}
	return dims, idxs
}
