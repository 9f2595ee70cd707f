// Package engine provides the single-threaded, cooperative discrete-event
// core that drives global simulated time for the rest of clustersim: a
// min-heap event queue, a Handler/Event contract, and hookable
// instrumentation. Every other package schedules its work through this
// package instead of touching wall-clock time directly.
package engine

// Tick is simulated time in nanoseconds. It is monotone non-decreasing for
// the lifetime of an Engine.
type Tick int64

// An Event is something scheduled to happen at a future Tick.
type Event interface {
	// Time returns the tick at which the event should fire.
	Time() Tick

	// Handler returns the component responsible for handling the event.
	Handler() Handler

	// Seq returns the insertion-order sequence number used to break ties
	// between events scheduled for the same tick.
	Seq() uint64
}

// EventBase provides the common fields and accessors for concrete event
// types. Embed it the way the teacher's EventBase is embedded by every
// akita event.
type EventBase struct {
	time    Tick
	seq     uint64
	handler Handler
}

// NewEventBase creates an EventBase for a handler at the given tick. The
// sequence number is assigned by the engine at Schedule time, not here, so
// that insertion order (not construction order) breaks ties.
func NewEventBase(t Tick, handler Handler) *EventBase {
	return &EventBase{time: t, handler: handler}
}

// Time returns the tick at which the event fires.
func (e *EventBase) Time() Tick { return e.time }

// Handler returns the handler bound to this event.
func (e *EventBase) Handler() Handler { return e.handler }

// Seq returns the tie-breaking sequence number.
func (e *EventBase) Seq() uint64 { return e.seq }

// setSeq is called once by Engine.Schedule.
func (e *EventBase) setSeq(seq uint64) { e.seq = seq }

// sequencer is implemented by events whose sequence number the Engine may
// assign. EventBase satisfies it.
type sequencer interface {
	setSeq(seq uint64)
}

// A Handler reacts to events. An event is always bound to exactly one
// Handler, and a Handler should only be mutated by events that it itself
// scheduled.
type Handler interface {
	Handle(e Event) error
}

// CallbackEvent wraps a plain function as an Event, for the many places
// this simulator needs to schedule "do this closure at now+delta" without
// declaring a dedicated event type (memory-bus and compute-replay
// completions, for example). A CallbackEvent is its own Handler: Handle
// simply runs Fn. owner is kept only so instrumentation can attribute the
// event to the component it was scheduled on behalf of.
type CallbackEvent struct {
	*EventBase
	owner Handler
	Fn    func()
}

// NewCallbackEvent creates a CallbackEvent firing fn at tick t, attributed
// to owner for logging purposes.
func NewCallbackEvent(t Tick, owner Handler, fn func()) *CallbackEvent {
	ce := &CallbackEvent{owner: owner, Fn: fn}
	ce.EventBase = NewEventBase(t, ce)
	return ce
}

// Handle runs the wrapped function.
func (e *CallbackEvent) Handle(_ Event) error {
	e.Fn()
	return nil
}

// Name forwards to the owner handler when it identifies itself, so the
// event logger can attribute a CallbackEvent to the component it serves.
func (e *CallbackEvent) Name() string {
	if n, ok := e.owner.(named); ok {
		return n.Name()
	}
	return "callback"
}

// named is satisfied by a Handler that can identify itself.
type named interface {
	Name() string
}

// anonymousHandler is a Handler placeholder for callbacks that do not
// belong to any particular rank-owned component.
type anonymousHandler struct{}

func (anonymousHandler) Handle(Event) error { return nil }

// AnonymousHandler is the shared placeholder owner for CallbackEvents with
// no natural owning component.
var AnonymousHandler Handler = anonymousHandler{}
