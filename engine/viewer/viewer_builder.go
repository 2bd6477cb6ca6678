package viewer

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/controls"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scheduler"
)

// ViewerBuilderOption is a functional option for configuring a Viewer.
type ViewerBuilderOption func(*viewerImpl)

// WithCamera sets the shared camera. Defaults to camera.NewCamera().
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithCamera(c camera.Camera) ViewerBuilderOption {
	return func(v *viewerImpl) {
		v.camera = c
	}
}

// WithScene sets the scene graph. Defaults to an empty scene.
//
// Parameters:
//   - s: the scene
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithScene(s scene.Scene) ViewerBuilderOption {
	return func(v *viewerImpl) {
		v.scene = s
	}
}

// WithRenderer sets the renderer. Without one, frames are scheduled but nothing is drawn.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithRenderer(r Renderer) ViewerBuilderOption {
	return func(v *viewerImpl) {
		v.renderer = r
	}
}

// WithResolver sets the mode resolver. Defaults to controls.NewResolver().
//
// Parameters:
//   - r: the resolver
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithResolver(r controls.Resolver) ViewerBuilderOption {
	return func(v *viewerImpl) {
		v.resolver = r
	}
}

// WithLogger sets the structured logger for the viewer, its scheduler and its providers.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) ViewerBuilderOption {
	return func(v *viewerImpl) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithMaxFrameDelta caps the per-frame delta passed to providers.
//
// Parameters:
//   - d: the cap
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithMaxFrameDelta(d time.Duration) ViewerBuilderOption {
	return func(v *viewerImpl) {
		v.schedulerOpts = append(v.schedulerOpts, scheduler.WithMaxDelta(d))
	}
}

// WithHotkeys enables or disables the mode and reset hotkeys (Digit1-Digit4, KeyR). Enabled by default.
//
// Parameters:
//   - enabled: whether to install the hotkeys
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithHotkeys(enabled bool) ViewerBuilderOption {
	return func(v *viewerImpl) {
		v.useKeys = enabled
	}
}

// WithChangeHook sets a function called whenever the active provider moved the camera.
//
// Parameters:
//   - fn: the hook
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithChangeHook(fn func()) ViewerBuilderOption {
	return func(v *viewerImpl) {
		v.changeHook = fn
	}
}

// WithLockHook sets a function called when pointer lock is gained or lost.
//
// Parameters:
//   - fn: the hook
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithLockHook(fn func(locked bool)) ViewerBuilderOption {
	return func(v *viewerImpl) {
		v.lockHook = fn
	}
}

// WithModeHook sets a function called after every successful mode switch.
//
// Parameters:
//   - fn: the hook
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithModeHook(fn func(mode controls.Mode)) ViewerBuilderOption {
	return func(v *viewerImpl) {
		v.modeHook = fn
	}
}

// WithPlaces sets the warp targets cycled by NextPlace and the P key.
//
// Parameters:
//   - places: the places in cycle order
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithPlaces(places ...Place) ViewerBuilderOption {
	return func(v *viewerImpl) {
		v.places = append(v.places, places...)
	}
}
