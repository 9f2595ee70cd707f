// Package workload drives one rank's execution trace: a DAG of nodes
// pulled through a push-back issue loop, dispatched by node type onto
// compute, memory, or communication completions, and retired once every
// dependency is satisfied.
package workload

import (
	"log"

	"github.com/sarchlab/clustersim/collective"
	"github.com/sarchlab/clustersim/engine"
	"github.com/sarchlab/clustersim/hwresource"
	"github.com/sarchlab/clustersim/netio"
	"github.com/sarchlab/clustersim/rendezvous"
)

// NodeType classifies a DAG node's action, mirroring the trace schema's
// node-type enumeration.
type NodeType int

const (
	Invalid NodeType = iota
	MemLoad
	MemStore
	Comp
	CommColl
	CommSend
	CommRecv
)

// Node is one DAG entry from the execution trace.
type Node struct {
	ID         int64
	Type       NodeType
	IsCPUOp    bool
	RuntimeUs  uint64
	NumOps     uint64
	TensorSize int

	CommSize     int
	CommType     collective.ComType
	Broadcast    bool
	CommSrc      int
	CommDst      int
	CommTag      int
	CommPriority int
	InvolvedDim  []bool
}

// NodeIterator is the trace-reading contract: a topologically-ordered DAG
// the engine pulls issuable nodes from and retires as their dependents
// clear.
type NodeIterator interface {
	GetNextIssuableNode() *Node
	PushBackIssuableNode(id int64)
	FreeChildrenNodes(id int64)
	LookupNode(id int64) *Node
	RemoveNode(id int64)
	HasNodesToIssue() bool
}

// RemoteMemory is the external oracle MEM_LOAD/MEM_STORE nodes consult.
type RemoteMemory interface {
	Issue(tensorSize int, onDone func())
}

// Roofline is the external performance model COMP nodes consult when
// roofline-based timing is enabled.
type Roofline interface {
	GetPerf(operationalIntensity float64) float64
}

// Engine is the Workload Engine for one rank: it owns the DAG iterator and
// the rank's Hardware Resource, and issues dependency-free nodes as
// resources free up.
type Engine struct {
	Rank int

	iterator NodeIterator
	hw       *hwresource.Resource
	backend  netio.Backend
	sched    engine.EventScheduler
	now      func() engine.Tick
	system   *CollectiveSystem
	logger   *log.Logger

	rooflineEnabled bool
	replayOnly      bool
	roofline        Roofline
	remoteMem       RemoteMemory
	matcher         *rendezvous.Matcher

	finished bool
}

// New returns an Engine for rank, pulling nodes from iterator.
func New(
	rank int,
	iterator NodeIterator,
	backend netio.Backend,
	sched engine.EventScheduler,
	now func() engine.Tick,
	system *CollectiveSystem,
	logger *log.Logger,
) *Engine {
	return &Engine{
		Rank:     rank,
		iterator: iterator,
		hw:       hwresource.New(),
		backend:  backend,
		sched:    sched,
		now:      now,
		system:   system,
		logger:   logger,
	}
}

// EnableRoofline switches COMP-node timing from replay to a roofline model.
func (e *Engine) EnableRoofline(r Roofline) {
	e.rooflineEnabled = true
	e.roofline = r
}

// EnableReplayOnly forces every node, compute or otherwise, to advance by
// its recorded runtime rather than being simulated.
func (e *Engine) EnableReplayOnly() {
	e.replayOnly = true
}

// SetRemoteMemory installs the oracle MEM_LOAD/MEM_STORE nodes consult.
func (e *Engine) SetRemoteMemory(m RemoteMemory) {
	e.remoteMem = m
}

// EnableRendezvousProtocol routes every COMM_SEND/COMM_RECV node through m
// instead of handing the backend a bare completion closure, giving packet-
// level callers a chunk-id to pair sends against receives issued out of
// order. Left unset, a node's Send/Recv completes the moment the backend's
// own onDone fires, same as before this existed.
func (e *Engine) EnableRendezvousProtocol(m *rendezvous.Matcher) {
	e.matcher = m
}

// Start kicks off the DAG walk.
func (e *Engine) Start() {
	e.issueDepFreeNodes()
}

// RankID identifies which rank this Engine drives, satisfying
// monitor.RankStatus.
func (e *Engine) RankID() int { return e.Rank }

// Finished reports whether this rank has drained its DAG and released
// every hardware class, satisfying monitor.RankStatus.
func (e *Engine) Finished() bool { return e.finished }

// issueDepFreeNodes fetches every currently-issuable node; if its
// resource class is free it is dispatched immediately, otherwise it is
// parked and replayed back into the iterator once the fetch loop drains
// — so one busy class never starves a later dependency-free node of a
// different class.
func (e *Engine) issueDepFreeNodes() {
	var pushBack []int64

	node := e.iterator.GetNextIssuableNode()
	for node != nil {
		if e.resourceAvailable(node) {
			e.issue(node)
		} else {
			pushBack = append(pushBack, node.ID)
		}
		node = e.iterator.GetNextIssuableNode()
	}

	for _, id := range pushBack {
		e.iterator.PushBackIssuableNode(id)
	}
}

func (e *Engine) resourceClass(node *Node) (hwresource.Class, bool) {
	switch {
	case node.IsCPUOp:
		return hwresource.CPU, true
	case node.Type == Comp:
		return hwresource.GPUCompute, true
	case node.Type == CommRecv:
		return hwresource.GPUComm, false // exempt: always available
	case node.Type == CommColl || node.Type == CommSend:
		return hwresource.GPUComm, true
	default:
		return hwresource.CPU, false // MemLoad/MemStore/Invalid occupy nothing
	}
}

func (e *Engine) resourceAvailable(node *Node) bool {
	class, occupies := e.resourceClass(node)
	if !occupies {
		return true
	}
	return e.hw.Available(class)
}

func (e *Engine) issue(node *Node) {
	if e.replayOnly {
		class, occupies := e.resourceClass(node)
		if occupies {
			e.hw.Occupy(class)
		}
		e.issueReplay(node)
		return
	}

	switch node.Type {
	case MemLoad, MemStore:
		e.issueRemoteMem(node)
	case Comp:
		e.issueComp(node)
	case CommColl, CommSend, CommRecv:
		e.issueComm(node)
	case Invalid:
		e.skipInvalid(node)
	}
}

func (e *Engine) issueReplay(node *Node) {
	runtime := int64(1)
	if node.RuntimeUs != 0 {
		runtime = int64(node.RuntimeUs) * 1000
	}
	if node.IsCPUOp {
		e.hw.AccountBusy(hwresource.CPU, runtime)
	} else {
		e.hw.AccountBusy(hwresource.GPUCompute, runtime)
	}
	e.scheduleCompletion(node, engine.Tick(runtime))
}

func (e *Engine) issueRemoteMem(node *Node) {
	if e.remoteMem == nil {
		e.complete(node)
		return
	}
	e.remoteMem.Issue(node.TensorSize, func() { e.complete(node) })
}

func (e *Engine) issueComp(node *Node) {
	class, _ := e.resourceClass(node)
	e.hw.Occupy(class)

	if e.rooflineEnabled && e.roofline != nil && node.TensorSize != 0 {
		oi := float64(node.NumOps) / float64(node.TensorSize)
		perf := e.roofline.GetPerf(oi)
		runtime := engine.Tick(0)
		if perf > 0 {
			runtime = engine.Tick(float64(node.NumOps) / perf * 1e9)
		}
		e.hw.AccountBusy(class, int64(runtime))
		e.scheduleCompletion(node, runtime)
		return
	}

	e.issueReplay(node)
}

// involvedDimDefault is the [true,true,true,true] fallback applied when a
// COMM_COLL node carries no involved_dim attribute.
func involvedDimDefault() []bool {
	return []bool{true, true, true, true}
}

func (e *Engine) issueComm(node *Node) {
	class, occupies := e.resourceClass(node)
	if occupies {
		e.hw.Occupy(class)
	}

	switch node.Type {
	case CommColl:
		e.issueCommColl(node)
	case CommSend:
		e.issueCommSend(node)
	case CommRecv:
		e.issueCommRecv(node)
	}
}

func (e *Engine) issueCommColl(node *Node) {
	if node.Broadcast {
		e.issueReplay(node)
		return
	}

	involved := node.InvolvedDim
	if involved == nil {
		involved = involvedDimDefault()
	}

	var handle *CollectiveHandle
	switch node.CommType {
	case collective.AllReduce:
		handle = e.system.GenerateAllReduce(node.CommSize, involved)
	case collective.AllGather:
		handle = e.system.GenerateAllGather(node.CommSize, involved)
	case collective.ReduceScatter:
		handle = e.system.GenerateReduceScatter(node.CommSize, involved)
	case collective.AllToAllComType:
		handle = e.system.GenerateAllToAll(node.CommSize, involved)
	}
	handle.SetNotifier(func() { e.complete(node) })
}

func (e *Engine) issueCommSend(node *Node) {
	if e.matcher == nil {
		req := netio.NewRequestHandle()
		e.backend.Send(node.CommSize, netio.MsgType(0), node.CommDst, node.CommTag, req, func(netio.RequestHandle) {
			e.complete(node)
		})
		return
	}

	chunkID := e.matcher.SimSend(node.CommTag, e.Rank, node.CommDst, node.CommSize, func() {})
	req := netio.NewRequestHandle()
	e.backend.Send(node.CommSize, netio.MsgType(0), node.CommDst, node.CommTag, req, func(netio.RequestHandle) {
		e.matcher.Arrival(node.CommTag, e.Rank, node.CommDst, node.CommSize, chunkID)
		e.complete(node)
	})
}

func (e *Engine) issueCommRecv(node *Node) {
	if e.matcher == nil {
		req := netio.NewRequestHandle()
		e.backend.Recv(node.CommSize, netio.MsgType(0), node.CommSrc, node.CommTag, req, func(netio.RequestHandle) {
			e.complete(node)
		})
		return
	}

	_, fireNow := e.matcher.SimRecv(node.CommTag, node.CommSrc, e.Rank, node.CommSize, func() {
		e.complete(node)
	})
	req := netio.NewRequestHandle()
	e.backend.Recv(node.CommSize, netio.MsgType(0), node.CommSrc, node.CommTag, req, func(netio.RequestHandle) {})
	if fireNow {
		e.complete(node)
	}
}

func (e *Engine) skipInvalid(node *Node) {
	e.iterator.FreeChildrenNodes(node.ID)
	e.iterator.RemoveNode(node.ID)
}

func (e *Engine) scheduleCompletion(node *Node, delay engine.Tick) {
	evt := engine.NewCallbackEvent(e.now()+delay, engine.AnonymousHandler, func() {
		e.complete(node)
	})
	e.sched.Schedule(evt)
}

// complete runs the per-node completion sequence every dispatch path
// except INVALID shares: release the hardware class, free the node's
// children in the DAG, issue whatever that newly frees, then retire the
// node and check whether the whole workload has drained. skipInvalid
// retires an INVALID node directly and does not check for drain.
func (e *Engine) complete(node *Node) {
	if e.finished {
		return
	}

	class, occupies := e.resourceClass(node)
	if occupies {
		e.hw.Release(class)
	}

	e.iterator.FreeChildrenNodes(node.ID)
	e.issueDepFreeNodes()
	e.iterator.RemoveNode(node.ID)

	e.checkFinished()
}

func (e *Engine) checkFinished() {
	if e.iterator.HasNodesToIssue() || e.hw.AnyOccupied() {
		return
	}
	e.report()
	e.backend.NotifyFinished()
	e.finished = true
}

func (e *Engine) report() {
	if e.logger == nil {
		return
	}
	cpu, gpuComp, gpuComm := e.hw.Report()
	e.logger.Printf("rank %d finished: cpu_ticks=%d gpu_comp_ticks=%d gpu_comm_ticks=%d",
		e.Rank, cpu, gpuComp, gpuComm)
}
