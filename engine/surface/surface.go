package surface

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/event"
)

// Rect is an axis-aligned screen rectangle in pixels.
type Rect struct {
	Left, Top     float32
	Width, Height float32
}

// Aspect returns Width / Height, or 0 when the rectangle has no height.
func (r Rect) Aspect() float32 {
	if r.Height <= 0 {
		return 0
	}
	return r.Width / r.Height
}

// Surface is the render target that camera controls attach to.
// It is the source of pointer and keyboard events and owns the pointer-lock state.
type Surface interface {
	event.Source

	// Bounds returns the surface's current client rectangle.
	//
	// Returns:
	//   - Rect: the client area in pixels
	Bounds() Rect

	// RequestPointerLock asks the platform to capture the pointer.
	// The outcome is reported asynchronously via TypePointerLockChange or TypePointerLockError.
	RequestPointerLock()

	// ExitPointerLock releases a captured pointer.
	// A TypePointerLockChange event with Locked=false follows when the pointer was locked.
	ExitPointerLock()

	// PointerLocked reports whether the pointer is currently captured by this surface.
	//
	// Returns:
	//   - bool: true while locked
	PointerLocked() bool

	// HasFinePointer reports whether the primary input is a mouse-like device.
	// Touch-only surfaces return false.
	//
	// Returns:
	//   - bool: true when a precise pointer is available
	HasFinePointer() bool
}
