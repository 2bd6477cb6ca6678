package window

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/event"
	"github.com/Carmen-Shannon/oxy-viewer/engine/surface"
	"github.com/cogentcore/webgpu/wgpu"
)

// wheelLineHeight converts one scroll notch to wheel pixels, matching a browser's line-mode delta.
const wheelLineHeight = 100

// Window is a desktop window that camera controls attach to as a surface.Surface.
// Input callbacks are translated into event.Event values using DOM key codes.
// Pointer lock is implemented by disabling the cursor; Escape releases it.
type Window interface {
	surface.Surface

	// SetUpdateCallback registers the function called once per message-loop iteration.
	//
	// Parameters:
	//   - callback: function to call after pending events are processed
	SetUpdateCallback(callback func())

	// SetResizeCallback registers the function called when the framebuffer size changes.
	//
	// Parameters:
	//   - callback: function receiving the new framebuffer size in pixels
	SetResizeCallback(callback func(width, height int))

	// SetTitle replaces the title bar text.
	//
	// Parameters:
	//   - title: the new title
	SetTitle(title string)

	// Title returns the current title bar text.
	//
	// Returns:
	//   - string: the title
	Title() string

	// SurfaceDescriptor returns the platform surface the renderer draws into.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil before the window exists
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is still open.
	//
	// Returns:
	//   - bool: false once closed
	IsRunning() bool

	// Close destroys the window.
	//
	// Returns:
	//   - error: error if the window is not initialized
	Close() error

	// ProcessMessages runs the message loop until the window closes.
	ProcessMessages()

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

type engineWindow struct {
	event.Dispatcher

	mu     *sync.Mutex
	logger *slog.Logger

	title     string
	maxWidth  int
	maxHeight int
	minWidth  int
	minHeight int
	width     int
	height    int

	// Cursor tracking for movement deltas.
	lastX, lastY float32
	hasLastPos   bool
	locked       bool

	internalWindow any

	onUpdate func()
	onResize func(width, height int)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a platform window.
// Platform initialization failures panic, since nothing can be shown without a window.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the newly created window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		Dispatcher: event.NewDispatcher(),
		mu:         &sync.Mutex{},
		logger:     slog.Default(),
		title:      "oxy-viewer",
		minWidth:   320,
		minHeight:  200,
		width:      1280,
		height:     720,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetTitle(title string) {
	w.mu.Lock()
	w.title = title
	w.mu.Unlock()
	platformSetTitle(w, title)
}

func (w *engineWindow) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}

func (w *engineWindow) Bounds() surface.Rect {
	w.mu.Lock()
	defer w.mu.Unlock()
	return surface.Rect{Width: float32(w.width), Height: float32(w.height)}
}

func (w *engineWindow) RequestPointerLock() {
	w.mu.Lock()
	if w.locked {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	if err := platformSetCursorCaptured(w, true); err != nil {
		w.logger.Warn("pointer lock unavailable", "err", err)
		w.Dispatch(event.Event{Type: event.TypePointerLockError})
		return
	}
	w.setLocked(true)
}

func (w *engineWindow) ExitPointerLock() {
	w.mu.Lock()
	if !w.locked {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	if err := platformSetCursorCaptured(w, false); err != nil {
		w.logger.Warn("pointer release failed", "err", err)
	}
	w.setLocked(false)
}

func (w *engineWindow) PointerLocked() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.locked
}

func (w *engineWindow) HasFinePointer() bool {
	return true
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width
}

func (w *engineWindow) Height() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.height
}

// setLocked records the lock state and reports it. The cursor jump caused by capture
// is not reported as movement.
func (w *engineWindow) setLocked(locked bool) {
	w.mu.Lock()
	w.locked = locked
	w.hasLastPos = false
	w.mu.Unlock()
	w.Dispatch(event.Event{Type: event.TypePointerLockChange, Locked: locked})
}

// handleKey translates a key transition. Escape releases a captured pointer
// and otherwise closes the window.
func (w *engineWindow) handleKey(code string, pressed bool) (closeWindow bool) {
	if code == common.KeyEscape && pressed {
		if w.PointerLocked() {
			w.ExitPointerLock()
			return false
		}
		return true
	}
	if code == "" {
		return false
	}
	typ := event.TypeKeyUp
	if pressed {
		typ = event.TypeKeyDown
	}
	w.Dispatch(event.Event{Type: typ, Code: code})
	return false
}

func (w *engineWindow) handleButton(button int, pressed bool, x, y float32) {
	typ := event.TypePointerUp
	if pressed {
		typ = event.TypePointerDown
	}
	w.Dispatch(event.Event{Type: typ, Button: button, X: x, Y: y})
}

func (w *engineWindow) handleCursor(x, y float32) {
	w.mu.Lock()
	var dx, dy float32
	if w.hasLastPos {
		dx, dy = x-w.lastX, y-w.lastY
	}
	w.lastX, w.lastY, w.hasLastPos = x, y, true
	w.mu.Unlock()
	w.Dispatch(event.Event{Type: event.TypePointerMove, X: x, Y: y, MovementX: dx, MovementY: dy})
}

func (w *engineWindow) handleScroll(yoff float64) {
	// GLFW reports positive yoff when scrolling up; the wheel convention is the opposite.
	w.Dispatch(event.Event{Type: event.TypeWheel, DeltaY: float32(-yoff * wheelLineHeight)})
}

func (w *engineWindow) handleResize(width, height int) {
	w.mu.Lock()
	w.width, w.height = width, height
	w.mu.Unlock()
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
