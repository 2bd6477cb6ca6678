package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/controls"
	"github.com/Carmen-Shannon/oxy-viewer/engine/event"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scheduler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/surface"
	"github.com/go-gl/mathgl/mgl32"
)

// Renderer draws the scene from the camera into the surface's backing buffer.
type Renderer interface {
	// Render draws one frame.
	//
	// Parameters:
	//   - s: the scene to draw
	//   - c: the camera to draw from
	//
	// Returns:
	//   - error: a non-fatal frame error (logged by the scheduler)
	Render(s scene.Scene, c camera.Camera) error

	// Resize reallocates the backing buffer.
	//
	// Parameters:
	//   - width, height: the new size in pixels
	Resize(width, height int)
}

type viewerImpl struct {
	mu       *sync.Mutex
	switchMu *sync.Mutex

	camera    camera.Camera
	surface   surface.Surface
	scene     scene.Scene
	renderer  Renderer
	resolver  controls.Resolver
	scheduler scheduler.Scheduler
	logger    *slog.Logger

	frames        scheduler.FrameRequester
	schedulerOpts []scheduler.SchedulerBuilderOption

	// owned holds the collaborators NewViewer created itself; Close stops them.
	owned []interface{ Stop() }

	provider controls.Provider
	places   []Place
	place    int
	hotkeys  event.Group
	useKeys  bool
	closed   bool

	changeHook func()
	lockHook   func(locked bool)
	modeHook   func(mode controls.Mode)
}

// Viewer is the controller host. It owns the camera, scene, renderer and scheduler and keeps
// at most one control provider active, fully destroying the previous provider before the next
// one is built.
type Viewer interface {
	// SetMode switches to the named control mode.
	// The current provider is destroyed first; on any error the viewer stays providerless.
	//
	// Parameters:
	//   - ctx: bounds the wait for mode resolution
	//   - name: the mode name, one of "pointer-lock", "map", "orbit", "trackball"
	//
	// Returns:
	//   - error: a controls.ConfigurationError for an unknown mode, or the provider's setup error
	SetMode(ctx context.Context, name string) error

	// Mode returns the active mode, or "" when providerless.
	//
	// Returns:
	//   - controls.Mode: the active mode
	Mode() controls.Mode

	// Provider returns the active provider, or nil when providerless.
	//
	// Returns:
	//   - controls.Provider: the active provider
	Provider() controls.Provider

	// Resize re-reads the surface bounds and updates projection, renderer and provider.
	Resize()

	// ResetCamera restores the camera home pose and clears provider simulation state.
	ResetCamera()

	// MarkDirty requests one render on the next frame.
	MarkDirty()

	// Warp moves the camera to position, keeping its orientation, and clears provider state.
	//
	// Parameters:
	//   - position: the world-space destination
	Warp(position mgl32.Vec3)

	// NextPlace warps to the place after the last one visited, wrapping around.
	//
	// Returns:
	//   - Place: the place warped to
	//   - bool: false when no places are configured
	NextPlace() (Place, bool)

	// Camera returns the shared camera.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Scene returns the scene graph.
	//
	// Returns:
	//   - scene.Scene: the scene
	Scene() scene.Scene

	// Scheduler returns the render scheduler.
	//
	// Returns:
	//   - scheduler.Scheduler: the scheduler
	Scheduler() scheduler.Scheduler

	// Close stops rendering, destroys the active provider and removes the hotkeys.
	// A scene or resolver the viewer created itself has its workers stopped too. Idempotent.
	Close()
}

var _ Viewer = &viewerImpl{}

// NewViewer creates a providerless viewer. Call SetMode to activate a control mode.
//
// Parameters:
//   - surf: the render surface; required
//   - frames: the animation-frame primitive the scheduler runs on; required
//   - options: functional options to configure the viewer
//
// Returns:
//   - Viewer: the newly created viewer
func NewViewer(surf surface.Surface, frames scheduler.FrameRequester, options ...ViewerBuilderOption) Viewer {
	if surf == nil {
		panic("viewer: NewViewer requires a non-nil Surface")
	}
	if frames == nil {
		panic("viewer: NewViewer requires a non-nil FrameRequester")
	}
	v := &viewerImpl{
		mu:       &sync.Mutex{},
		switchMu: &sync.Mutex{},
		surface:  surf,
		frames:   frames,
		logger:   slog.Default(),
		useKeys:  true,
		place:    -1,
	}
	for _, option := range options {
		option(v)
	}
	if v.camera == nil {
		v.camera = camera.NewCamera()
	}
	if v.scene == nil {
		v.scene = scene.NewScene("viewer")
		v.owned = append(v.owned, v.scene)
	}
	if v.resolver == nil {
		v.resolver = controls.NewResolver()
		v.owned = append(v.owned, v.resolver)
	}
	v.scheduler = scheduler.NewScheduler(v.frames, v.render,
		append([]scheduler.SchedulerBuilderOption{scheduler.WithLogger(v.logger)}, v.schedulerOpts...)...)

	v.scene.SetChangeCallback(v.scheduler.MarkDirty)
	if v.useKeys {
		v.installHotkeys()
	}
	v.Resize()
	return v
}

func (v *viewerImpl) SetMode(ctx context.Context, name string) error {
	v.switchMu.Lock()
	defer v.switchMu.Unlock()

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return fmt.Errorf("viewer: set mode %q: viewer closed", name)
	}
	prev := v.provider
	v.provider = nil
	v.mu.Unlock()

	v.scheduler.Stop()
	if prev != nil {
		prev.Destroy()
	}

	mode := controls.Mode(name)
	factory, err := v.resolver.Resolve(ctx, mode)
	if err != nil {
		v.logger.Error("control mode unavailable", "mode", name, "err", err)
		return fmt.Errorf("viewer: set mode %q: %w", name, err)
	}
	p, err := factory(v.bindings())
	if err != nil {
		v.logger.Error("control provider construction failed", "mode", name, "err", err)
		return fmt.Errorf("viewer: set mode %q: %w", name, err)
	}
	if err := p.CreateControls(); err != nil {
		p.Destroy()
		v.logger.Error("control provider setup failed", "mode", name, "err", err)
		return fmt.Errorf("viewer: set mode %q: %w", name, err)
	}

	v.mu.Lock()
	v.provider = p
	v.mu.Unlock()

	v.scheduler.Start(p)
	v.scheduler.MarkDirty()
	v.logger.Info("control mode changed", "mode", name, "policy", p.RenderPolicy().String())
	if v.modeHook != nil {
		v.modeHook(mode)
	}
	return nil
}

func (v *viewerImpl) Mode() controls.Mode {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.provider == nil {
		return ""
	}
	return v.provider.Mode()
}

func (v *viewerImpl) Provider() controls.Provider {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.provider
}

func (v *viewerImpl) ResetCamera() {
	v.camera.Reset()
	if r, ok := v.Provider().(controls.Resetter); ok {
		r.Reset()
	}
	v.scheduler.MarkDirty()
	v.logger.Info("camera reset", "position", v.camera.Position())
}

func (v *viewerImpl) MarkDirty() {
	v.scheduler.MarkDirty()
}

func (v *viewerImpl) Camera() camera.Camera {
	return v.camera
}

func (v *viewerImpl) Scene() scene.Scene {
	return v.scene
}

func (v *viewerImpl) Scheduler() scheduler.Scheduler {
	return v.scheduler
}

func (v *viewerImpl) Close() {
	v.switchMu.Lock()
	defer v.switchMu.Unlock()

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	p := v.provider
	v.provider = nil
	v.mu.Unlock()

	v.scheduler.Stop()
	if p != nil {
		p.Destroy()
	}
	v.hotkeys.CancelAll()
	v.scene.SetChangeCallback(nil)
	for _, o := range v.owned {
		o.Stop()
	}
}

func (v *viewerImpl) bindings() controls.Bindings {
	return controls.Bindings{
		Camera:       v.camera,
		Surface:      v.surface,
		Scene:        v.scene,
		OnChange:     v.onChange,
		OnLockChange: v.onLockChange,
		Logger:       v.logger,
	}
}

func (v *viewerImpl) onChange() {
	v.scheduler.MarkDirty()
	if v.changeHook != nil {
		v.changeHook()
	}
}

func (v *viewerImpl) onLockChange(locked bool) {
	v.scheduler.MarkDirty()
	if v.lockHook != nil {
		v.lockHook(locked)
	}
}

func (v *viewerImpl) render() error {
	if v.renderer == nil {
		return nil
	}
	return v.renderer.Render(v.scene, v.camera)
}
