package surface

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/engine/event"
)

// Virtual is a headless Surface driven programmatically.
// It is used by tests and scripted runs in place of a platform window.
type Virtual struct {
	event.Dispatcher

	mu         *sync.Mutex
	bounds     Rect
	locked     bool
	finePtr    bool
	denyLock   bool
	lockAsks   int
	lastX      float32
	lastY      float32
	hasLastPos bool
}

var _ Surface = &Virtual{}

// VirtualBuilderOption is a functional option for configuring a Virtual surface.
type VirtualBuilderOption func(v *Virtual)

// WithSize sets the initial surface size in pixels.
//
// Parameters:
//   - width, height: the client area size
//
// Returns:
//   - VirtualBuilderOption: option function to apply
func WithSize(width, height float32) VirtualBuilderOption {
	return func(v *Virtual) {
		v.bounds.Width = width
		v.bounds.Height = height
	}
}

// WithFinePointer sets whether the surface reports a mouse-like pointer.
//
// Parameters:
//   - fine: false to emulate a touch-only device
//
// Returns:
//   - VirtualBuilderOption: option function to apply
func WithFinePointer(fine bool) VirtualBuilderOption {
	return func(v *Virtual) {
		v.finePtr = fine
	}
}

// WithLockDenied makes every pointer-lock request fail with TypePointerLockError.
//
// Returns:
//   - VirtualBuilderOption: option function to apply
func WithLockDenied() VirtualBuilderOption {
	return func(v *Virtual) {
		v.denyLock = true
	}
}

// NewVirtual creates a Virtual surface, 800x600 with a fine pointer by default.
//
// Parameters:
//   - options: functional options to configure the surface
//
// Returns:
//   - *Virtual: the surface
func NewVirtual(options ...VirtualBuilderOption) *Virtual {
	v := &Virtual{
		Dispatcher: event.NewDispatcher(),
		mu:         &sync.Mutex{},
		bounds:     Rect{Width: 800, Height: 600},
		finePtr:    true,
	}
	for _, opt := range options {
		opt(v)
	}
	return v
}

func (v *Virtual) Bounds() Rect {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bounds
}

func (v *Virtual) RequestPointerLock() {
	v.mu.Lock()
	v.lockAsks++
	if v.denyLock {
		v.mu.Unlock()
		v.Dispatch(event.Event{Type: event.TypePointerLockError})
		return
	}
	already := v.locked
	v.locked = true
	v.mu.Unlock()
	if !already {
		v.Dispatch(event.Event{Type: event.TypePointerLockChange, Locked: true})
	}
}

func (v *Virtual) ExitPointerLock() {
	v.mu.Lock()
	was := v.locked
	v.locked = false
	v.mu.Unlock()
	if was {
		v.Dispatch(event.Event{Type: event.TypePointerLockChange, Locked: false})
	}
}

func (v *Virtual) PointerLocked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.locked
}

func (v *Virtual) HasFinePointer() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.finePtr
}

// LockRequests returns how many times RequestPointerLock was called.
func (v *Virtual) LockRequests() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lockAsks
}

// Resize changes the surface bounds. Resize notification is the caller's concern.
//
// Parameters:
//   - width, height: the new client area size
func (v *Virtual) Resize(width, height float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bounds.Width = width
	v.bounds.Height = height
}

// KeyDown dispatches a key press.
func (v *Virtual) KeyDown(code string) {
	v.Dispatch(event.Event{Type: event.TypeKeyDown, Code: code})
}

// KeyUp dispatches a key release.
func (v *Virtual) KeyUp(code string) {
	v.Dispatch(event.Event{Type: event.TypeKeyUp, Code: code})
}

// PointerDown dispatches a button press at (x, y).
func (v *Virtual) PointerDown(button int, x, y float32) {
	v.setLastPos(x, y)
	v.Dispatch(event.Event{Type: event.TypePointerDown, Button: button, X: x, Y: y})
}

// PointerUp dispatches a button release at (x, y).
func (v *Virtual) PointerUp(button int, x, y float32) {
	v.setLastPos(x, y)
	v.Dispatch(event.Event{Type: event.TypePointerUp, Button: button, X: x, Y: y})
}

// PointerMove dispatches a move to (x, y) with movement deltas relative to the previous position.
func (v *Virtual) PointerMove(x, y float32) {
	v.mu.Lock()
	var dx, dy float32
	if v.hasLastPos {
		dx, dy = x-v.lastX, y-v.lastY
	}
	v.lastX, v.lastY, v.hasLastPos = x, y, true
	v.mu.Unlock()
	v.Dispatch(event.Event{Type: event.TypePointerMove, X: x, Y: y, MovementX: dx, MovementY: dy})
}

// Look dispatches a relative pointer motion without changing the pointer position,
// the way a locked pointer reports movement.
func (v *Virtual) Look(dx, dy float32) {
	v.mu.Lock()
	x, y := v.lastX, v.lastY
	v.mu.Unlock()
	v.Dispatch(event.Event{Type: event.TypePointerMove, X: x, Y: y, MovementX: dx, MovementY: dy})
}

// Wheel dispatches a wheel event.
func (v *Virtual) Wheel(deltaY float32) {
	v.Dispatch(event.Event{Type: event.TypeWheel, DeltaY: deltaY})
}

func (v *Virtual) setLastPos(x, y float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastX, v.lastY, v.hasLastPos = x, y, true
}
