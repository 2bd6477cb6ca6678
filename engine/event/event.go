package event

import (
	"sync"
	"sync/atomic"
)

// Type identifies the kind of input event carried by an Event.
type Type uint8

const (
	TypeKeyDown Type = iota
	TypeKeyUp
	TypePointerDown
	TypePointerMove
	TypePointerUp
	TypeWheel
	TypePointerLockChange
	TypePointerLockError
)

var typeNames = [...]string{
	TypeKeyDown:           "keydown",
	TypeKeyUp:             "keyup",
	TypePointerDown:       "pointerdown",
	TypePointerMove:       "pointermove",
	TypePointerUp:         "pointerup",
	TypeWheel:             "wheel",
	TypePointerLockChange: "pointerlockchange",
	TypePointerLockError:  "pointerlockerror",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// Event is a single input event delivered by a Source.
// Only the fields relevant to Type are populated.
type Event struct {
	Type Type

	// Code is the physical key code for keyboard events (see common.Key*).
	Code string

	// Button is the pointer button for pointer down/up events (see common.Button*).
	Button int

	// X and Y are the pointer position in surface pixels.
	X, Y float32

	// MovementX and MovementY are the pointer deltas since the previous move event.
	// They keep reporting motion while the pointer is locked.
	MovementX, MovementY float32

	// DeltaY is the wheel delta in pixels; positive scrolls away from the user.
	DeltaY float32

	// Locked carries the new pointer-lock state for TypePointerLockChange.
	Locked bool
}

// Handler receives dispatched events.
type Handler func(e Event)

// Subscription is the handle returned by Source.Subscribe.
type Subscription interface {
	// Cancel removes the handler. Calling it more than once is a no-op.
	Cancel()
}

// Source is anything that input handlers can subscribe to.
type Source interface {
	// Subscribe registers a handler for one event type.
	//
	// Parameters:
	//   - t: the event type to listen for
	//   - h: the handler to call
	//
	// Returns:
	//   - Subscription: handle used to remove the handler
	Subscribe(t Type, h Handler) Subscription
}

// Dispatcher is a Source that fans events out to subscribed handlers in subscription order.
type Dispatcher interface {
	Source

	// Dispatch delivers e to every handler currently subscribed to e.Type.
	// Handlers added or removed during delivery take effect on the next dispatch.
	//
	// Parameters:
	//   - e: the event to deliver
	Dispatch(e Event)

	// Count returns the number of live handlers for an event type.
	//
	// Parameters:
	//   - t: the event type to count
	//
	// Returns:
	//   - int: live handler count
	Count(t Type) int
}

type dispatcherImpl struct {
	mu       *sync.Mutex
	nextID   uint64
	handlers map[Type][]entry
}

type entry struct {
	id   uint64
	h    Handler
	live *atomic.Bool
}

type subscriptionImpl struct {
	once *sync.Once
	d    *dispatcherImpl
	t    Type
	id   uint64
	live *atomic.Bool
}

var _ Dispatcher = &dispatcherImpl{}
var _ Subscription = &subscriptionImpl{}

// NewDispatcher creates an empty Dispatcher.
//
// Returns:
//   - Dispatcher: the dispatcher
func NewDispatcher() Dispatcher {
	return &dispatcherImpl{
		mu:       &sync.Mutex{},
		handlers: make(map[Type][]entry),
	}
}

func (d *dispatcherImpl) Subscribe(t Type, h Handler) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	live := &atomic.Bool{}
	live.Store(true)
	d.handlers[t] = append(d.handlers[t], entry{id: d.nextID, h: h, live: live})
	return &subscriptionImpl{once: &sync.Once{}, d: d, t: t, id: d.nextID, live: live}
}

func (d *dispatcherImpl) Dispatch(e Event) {
	d.mu.Lock()
	snapshot := d.handlers[e.Type]
	d.mu.Unlock()

	// A handler cancelled by an earlier handler of the same event is skipped.
	for _, en := range snapshot {
		if en.live.Load() {
			en.h(e)
		}
	}
}

func (d *dispatcherImpl) Count(t Type) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers[t])
}

func (d *dispatcherImpl) remove(t Type, id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := d.handlers[t]
	for i, en := range list {
		if en.id == id {
			// Copy so snapshots taken by an in-flight Dispatch stay intact.
			next := make([]entry, 0, len(list)-1)
			next = append(next, list[:i]...)
			d.handlers[t] = append(next, list[i+1:]...)
			return
		}
	}
}

func (s *subscriptionImpl) Cancel() {
	s.once.Do(func() {
		s.live.Store(false)
		s.d.remove(s.t, s.id)
	})
}
