package engine

import (
	"log"
	"reflect"
	"sync"
	"sync/atomic"
)

// A SerialEngine is an Engine that runs events one after another on a
// single goroutine, in strict (Time, Seq) order.
type SerialEngine struct {
	HookableBase

	timeLock sync.RWMutex
	time     Tick
	queue    EventQueue

	nextSeq uint64

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex

	simulationEndHandlers []SimulationEndHandler
}

// NewSerialEngine creates a SerialEngine backed by the binary-heap
// EventQueueImpl, the right default for runs with many events in flight.
func NewSerialEngine() *SerialEngine {
	return NewSerialEngineWithQueue(NewEventQueue())
}

// NewSerialEngineWithQueue creates a SerialEngine backed by q instead of
// the default heap. InsertionQueue is the intended alternative: a run
// driving very few ranks keeps its in-flight event count small enough that
// its O(n) push beats the heap's allocation churn.
func NewSerialEngineWithQueue(q EventQueue) *SerialEngine {
	e := new(SerialEngine)
	e.queue = q
	return e
}

// Schedule registers an event to happen in the future. The event's
// insertion-order sequence number is assigned here, not at construction, so
// that two events scheduled for the same tick break ties in the order they
// were scheduled.
func (e *SerialEngine) Schedule(evt Event) {
	now := e.readNow()
	if evt.Time() < now {
		log.Panic("scheduling an event earlier than current time")
	}

	if s, ok := evt.(sequencer); ok {
		s.setSeq(atomic.AddUint64(&e.nextSeq, 1))
	}

	e.queue.Push(evt)
}

func (e *SerialEngine) readNow() Tick {
	e.timeLock.RLock()
	t := e.time
	e.timeLock.RUnlock()
	return t
}

func (e *SerialEngine) writeNow(t Tick) {
	e.timeLock.Lock()
	e.time = t
	e.timeLock.Unlock()
}

// Run processes all events scheduled on the SerialEngine until the queue is
// empty.
func (e *SerialEngine) Run() error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	for {
		if e.noMoreEvent() {
			return nil
		}

		e.pauseLock.Lock()

		evt := e.nextEvent()
		now := e.readNow()
		if evt.Time() < now {
			log.Panicf(
				"cannot run event in the past, evt %s @ %d, now %d",
				reflect.TypeOf(evt), evt.Time(), now,
			)
		}
		e.writeNow(evt.Time())

		hookCtx := HookCtx{
			Domain: e,
			Pos:    HookPosBeforeEvent,
			Item:   evt,
		}
		e.InvokeHook(hookCtx)

		handler := evt.Handler()
		_ = handler.Handle(evt)

		hookCtx.Pos = HookPosAfterEvent
		e.InvokeHook(hookCtx)

		e.pauseLock.Unlock()
	}
}

func (e *SerialEngine) noMoreEvent() bool {
	return e.queue.Len() == 0
}

func (e *SerialEngine) nextEvent() Event {
	return e.queue.Pop()
}

// Pause prevents the SerialEngine from triggering more events.
func (e *SerialEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue allows the SerialEngine to trigger more events.
func (e *SerialEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// CurrentTime returns the tick of the event currently (or most recently)
// running.
func (e *SerialEngine) CurrentTime() Tick {
	return e.readNow()
}

// RegisterSimulationEndHandler registers a handler to run when Finished is
// called.
func (e *SerialEngine) RegisterSimulationEndHandler(
	handler SimulationEndHandler,
) {
	e.simulationEndHandlers = append(e.simulationEndHandlers, handler)
}

// Finished calls every registered SimulationEndHandler with the final tick.
func (e *SerialEngine) Finished() {
	now := e.readNow()
	for _, h := range e.simulationEndHandlers {
		h.Handle(now)
	}
}
