package controls

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scheduler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/surface"
)

// Mode tags one camera control variant.
type Mode string

const (
	ModePointerLock Mode = "pointer-lock"
	ModeMap         Mode = "map"
	ModeOrbit       Mode = "orbit"
	ModeTrackball   Mode = "trackball"
)

// Modes lists every built-in mode in hotkey order.
var Modes = []Mode{ModePointerLock, ModeMap, ModeOrbit, ModeTrackball}

var (
	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("controls: configuration error")

	// ErrMissingDependency matches every *MissingDependencyError.
	ErrMissingDependency = errors.New("controls: missing dependency")

	// ErrDestroyed is returned by CreateControls on a provider that was already destroyed.
	ErrDestroyed = errors.New("controls: provider destroyed")
)

// ConfigurationError reports a mode name that no factory is registered for.
type ConfigurationError struct {
	Mode Mode
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("controls: unknown control mode %q", string(e.Mode))
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// MissingDependencyError reports a provider constructed without a required collaborator.
type MissingDependencyError struct {
	Mode       Mode
	Dependency string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("controls: %s requires a %s", e.Mode, e.Dependency)
}

func (e *MissingDependencyError) Is(target error) bool {
	return target == ErrMissingDependency
}

// Raycaster is the slice of the scene graph the control modes query.
type Raycaster interface {
	Raycast(name string, r common.Ray, near, far float32) (common.Hit, bool)
}

// Scene is the slice of the scene graph the control modes mutate. scene.Scene satisfies it.
type Scene interface {
	Raycaster
	Add(n *scene.Node) error
	Remove(name string) bool
}

// Provider is one camera interaction strategy.
// A host keeps at most one Provider active; the previous provider's Destroy
// completes before the next provider's CreateControls begins.
type Provider interface {
	// Mode returns the variant tag of the provider.
	//
	// Returns:
	//   - Mode: the mode
	Mode() Mode

	// CreateControls installs input listeners and any scene nodes the provider needs.
	//
	// Returns:
	//   - error: ErrDestroyed after Destroy, or an error from the scene
	CreateControls() error

	// Animate runs the per-frame update. Rendering is left to the scheduler.
	//
	// Parameters:
	//   - dt: seconds since the previous frame (already sanitized)
	Animate(dt float32)

	// Destroy removes every listener and scene node the provider installed.
	// Idempotent, and safe to call without a prior CreateControls.
	Destroy()

	// Update recomputes cached viewport geometry after a resize.
	Update()

	// RenderPolicy reports how the scheduler should render for the provider's current state.
	//
	// Returns:
	//   - scheduler.RenderPolicy: continuous or on-demand
	RenderPolicy() scheduler.RenderPolicy
}

// Resetter is implemented by providers with simulation state that must be cleared
// when the host restores the camera home pose.
type Resetter interface {
	Reset()
}

// Bindings are the collaborators a provider is constructed against.
type Bindings struct {
	// Camera is required by every mode.
	Camera camera.Camera
	// Surface is required by every mode.
	Surface surface.Surface
	// Scene is required by pointer-lock (rig node and ground probe) and optional elsewhere.
	Scene Scene
	// OnChange is called whenever the provider moved the camera.
	OnChange func()
	// OnLockChange is called when pointer lock is gained or lost.
	OnLockChange func(locked bool)
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Factory constructs a provider bound to b without installing anything yet.
type Factory func(b Bindings) (Provider, error)

func (b Bindings) require(mode Mode, needScene bool) error {
	if b.Camera == nil {
		return &MissingDependencyError{Mode: mode, Dependency: "camera"}
	}
	if b.Surface == nil {
		return &MissingDependencyError{Mode: mode, Dependency: "render surface"}
	}
	if needScene && b.Scene == nil {
		return &MissingDependencyError{Mode: mode, Dependency: "scene"}
	}
	return nil
}

func (b Bindings) changed() {
	if b.OnChange != nil {
		b.OnChange()
	}
}

func (b Bindings) lockChanged(locked bool) {
	if b.OnLockChange != nil {
		b.OnLockChange(locked)
	}
}

func (b Bindings) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}
