package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatchOrderAndFiltering(t *testing.T) {
	d := NewDispatcher()
	var got []string

	d.Subscribe(TypeKeyDown, func(e Event) { got = append(got, "a:"+e.Code) })
	d.Subscribe(TypeKeyDown, func(e Event) { got = append(got, "b:"+e.Code) })
	d.Subscribe(TypeKeyUp, func(e Event) { got = append(got, "up:"+e.Code) })

	d.Dispatch(Event{Type: TypeKeyDown, Code: "KeyW"})
	assert.Equal(t, []string{"a:KeyW", "b:KeyW"}, got)
	assert.Equal(t, 2, d.Count(TypeKeyDown))
	assert.Equal(t, 0, d.Count(TypeWheel))
}

func TestCancelIsIdempotent(t *testing.T) {
	d := NewDispatcher()
	calls := 0
	s1 := d.Subscribe(TypeWheel, func(Event) { calls++ })
	d.Subscribe(TypeWheel, func(Event) { calls += 10 })

	s1.Cancel()
	s1.Cancel()
	assert.Equal(t, 1, d.Count(TypeWheel))

	d.Dispatch(Event{Type: TypeWheel})
	assert.Equal(t, 10, calls)
}

func TestCancelDuringDispatch(t *testing.T) {
	d := NewDispatcher()
	calls := 0
	var self Subscription
	self = d.Subscribe(TypePointerMove, func(Event) {
		calls++
		self.Cancel()
	})
	d.Subscribe(TypePointerMove, func(Event) { calls++ })

	d.Dispatch(Event{Type: TypePointerMove})
	assert.Equal(t, 2, calls, "both handlers run for the in-flight event")

	d.Dispatch(Event{Type: TypePointerMove})
	assert.Equal(t, 3, calls)
}

func TestCancelledHandlerSkipsInFlightEvent(t *testing.T) {
	d := NewDispatcher()
	var later Subscription
	calls := 0
	d.Subscribe(TypeKeyDown, func(Event) { later.Cancel() })
	later = d.Subscribe(TypeKeyDown, func(Event) { calls++ })

	d.Dispatch(Event{Type: TypeKeyDown})
	assert.Zero(t, calls, "a handler cancelled earlier in the same dispatch does not run")
	assert.Equal(t, 1, d.Count(TypeKeyDown))
}

func TestGroupCancelAll(t *testing.T) {
	d := NewDispatcher()
	var g Group
	g.Listen(d, TypeKeyDown, func(Event) {})
	g.Listen(d, TypeKeyUp, func(Event) {})
	g.Listen(d, TypeKeyUp, func(Event) {})
	assert.Equal(t, 3, g.Len())

	g.CancelAll()
	assert.Equal(t, 0, g.Len())
	assert.Equal(t, 0, d.Count(TypeKeyDown))
	assert.Equal(t, 0, d.Count(TypeKeyUp))

	g.CancelAll()
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "pointerlockchange", TypePointerLockChange.String())
	assert.Equal(t, "unknown", Type(200).String())
}
