package surface

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/event"
	"github.com/stretchr/testify/assert"
)

func TestVirtualPointerLock(t *testing.T) {
	v := NewVirtual()
	var changes []bool
	v.Subscribe(event.TypePointerLockChange, func(e event.Event) { changes = append(changes, e.Locked) })

	v.RequestPointerLock()
	v.RequestPointerLock()
	assert.True(t, v.PointerLocked())
	v.ExitPointerLock()
	v.ExitPointerLock()

	assert.False(t, v.PointerLocked())
	assert.Equal(t, []bool{true, false}, changes)
	assert.Equal(t, 2, v.LockRequests())
}

func TestVirtualLockDenied(t *testing.T) {
	v := NewVirtual(WithLockDenied())
	errs := 0
	v.Subscribe(event.TypePointerLockError, func(event.Event) { errs++ })

	v.RequestPointerLock()
	assert.False(t, v.PointerLocked())
	assert.Equal(t, 1, errs)
}

func TestVirtualPointerMoveDeltas(t *testing.T) {
	v := NewVirtual(WithSize(320, 200), WithFinePointer(false))
	var moves []event.Event
	v.Subscribe(event.TypePointerMove, func(e event.Event) { moves = append(moves, e) })

	v.PointerMove(10, 10)
	v.PointerMove(15, 7)
	v.Look(30, -4)

	assert.Len(t, moves, 3)
	assert.Equal(t, float32(0), moves[0].MovementX)
	assert.Equal(t, float32(5), moves[1].MovementX)
	assert.Equal(t, float32(-3), moves[1].MovementY)
	assert.Equal(t, float32(15), moves[2].X, "look keeps the pointer position")
	assert.Equal(t, float32(30), moves[2].MovementX)

	assert.False(t, v.HasFinePointer())
	assert.InDelta(t, 1.6, v.Bounds().Aspect(), 1e-6)
	v.Resize(100, 0)
	assert.Equal(t, float32(0), v.Bounds().Aspect())
}
