package controls

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/event"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scheduler"
	"github.com/chewxy/math32"
)

// PointerLockRigName is the scene node the first-person mode adds while active.
const PointerLockRigName = "pointer-lock-rig"

// PointerLock is the first-person walk mode.
// A click on the surface captures the pointer; KeyM releases it. While locked the
// pointer turns the view and WASD walks across the ground node.
type PointerLock struct {
	b   Bindings
	cfg MovementConfig
	sim *MovementSimulator

	listeners event.Group

	locked     bool
	yaw, pitch float32

	created   bool
	destroyed bool
}

var _ Provider = &PointerLock{}
var _ Resetter = &PointerLock{}

// NewPointerLock binds a first-person provider. Nothing is installed until CreateControls.
//
// Parameters:
//   - b: the collaborators; Camera, Surface and Scene are required
//   - cfg: the walking constants
//
// Returns:
//   - *PointerLock: the provider
//   - error: a *MissingDependencyError if a collaborator is nil
func NewPointerLock(b Bindings, cfg MovementConfig) (*PointerLock, error) {
	if err := b.require(ModePointerLock, true); err != nil {
		return nil, err
	}
	return &PointerLock{
		b:   b,
		cfg: cfg,
		sim: NewMovementSimulator(cfg, b.Scene),
	}, nil
}

func (p *PointerLock) Mode() Mode { return ModePointerLock }

func (p *PointerLock) CreateControls() error {
	if p.destroyed {
		return ErrDestroyed
	}
	if p.created {
		return nil
	}
	if err := p.b.Scene.Add(&scene.Node{Name: PointerLockRigName}); err != nil {
		return fmt.Errorf("pointer-lock: add rig: %w", err)
	}
	p.created = true

	cam := p.b.Camera
	cam.SetUp(common.WorldUp)
	p.yaw, p.pitch = cam.YawPitch()
	p.pitch = p.clampPitch(p.pitch)
	cam.SetYawPitch(p.yaw, p.pitch)

	src := p.b.Surface
	p.listeners.Listen(src, event.TypePointerDown, p.onPointerDown)
	p.listeners.Listen(src, event.TypePointerMove, p.onPointerMove)
	p.listeners.Listen(src, event.TypeKeyDown, p.onKeyDown)
	p.listeners.Listen(src, event.TypeKeyUp, p.onKeyUp)
	p.listeners.Listen(src, event.TypePointerLockChange, p.onLockChange)
	p.listeners.Listen(src, event.TypePointerLockError, p.onLockError)

	switch {
	case !src.HasFinePointer():
		// Touch surfaces have nothing to capture; start walking immediately.
		p.setLocked(true)
	case src.PointerLocked():
		p.setLocked(true)
	}
	return nil
}

func (p *PointerLock) Animate(dt float32) {
	if !p.locked {
		return
	}
	cam := p.b.Camera
	cam.SetYawPitch(p.yaw, p.pitch)
	pos := cam.Position()
	next := p.sim.Step(pos, p.yaw, dt)
	if next != pos {
		cam.SetPosition(next)
		p.b.changed()
	}
}

func (p *PointerLock) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	p.listeners.CancelAll()
	if p.created {
		p.b.Scene.Remove(PointerLockRigName)
		if p.b.Surface.PointerLocked() {
			p.b.Surface.ExitPointerLock()
		}
	}
	if p.locked {
		p.locked = false
		p.b.lockChanged(false)
	}
	p.sim.Reset()
}

func (p *PointerLock) Update() {}

func (p *PointerLock) RenderPolicy() scheduler.RenderPolicy {
	if p.locked {
		return scheduler.PolicyContinuous
	}
	return scheduler.PolicyOnDemand
}

// Reset clears velocity and input, re-reads yaw and pitch from the camera and writes
// the clamped pair back.
func (p *PointerLock) Reset() {
	p.sim.Reset()
	if !p.destroyed {
		p.yaw, p.pitch = p.b.Camera.YawPitch()
		p.pitch = p.clampPitch(p.pitch)
		p.b.Camera.SetYawPitch(p.yaw, p.pitch)
	}
}

// Lock asks the surface to capture the pointer.
func (p *PointerLock) Lock() {
	if p.created && !p.destroyed {
		p.b.Surface.RequestPointerLock()
	}
}

// Unlock releases the pointer.
func (p *PointerLock) Unlock() {
	if p.created && !p.destroyed {
		p.b.Surface.ExitPointerLock()
	}
}

// Locked reports whether the mode is currently steering the camera.
func (p *PointerLock) Locked() bool { return p.locked }

// Simulator exposes the movement simulator.
func (p *PointerLock) Simulator() *MovementSimulator { return p.sim }

// Look applies a pointer movement delta in pixels to the view.
//
// Parameters:
//   - dx, dy: pointer movement since the last event
func (p *PointerLock) Look(dx, dy float32) {
	if !common.IsFinite(dx) || !common.IsFinite(dy) {
		return
	}
	p.yaw -= dx * p.cfg.LookSensitivity
	p.pitch = p.clampPitch(p.pitch - dy*p.cfg.LookSensitivity)
	p.yaw = math32.Mod(p.yaw, 2*math32.Pi)
	p.b.Camera.SetYawPitch(p.yaw, p.pitch)
	p.b.changed()
}

func (p *PointerLock) clampPitch(pitch float32) float32 {
	return common.Clamp(pitch, math32.Pi/2-p.cfg.MaxPolarAngle, math32.Pi/2-p.cfg.MinPolarAngle)
}

func (p *PointerLock) setLocked(locked bool) {
	if p.locked == locked {
		return
	}
	p.locked = locked
	if !locked {
		p.sim.ClearInput()
	}
	p.b.lockChanged(locked)
	p.b.changed()
}

func (p *PointerLock) onPointerDown(event.Event) {
	if !p.locked {
		p.b.Surface.RequestPointerLock()
	}
}

func (p *PointerLock) onPointerMove(e event.Event) {
	if p.locked {
		p.Look(e.MovementX, e.MovementY)
	}
}

func (p *PointerLock) onKeyDown(e event.Event) {
	if p.locked {
		p.sim.Press(e.Code)
	}
}

func (p *PointerLock) onKeyUp(e event.Event) {
	if e.Code == common.KeyM && p.locked {
		p.Unlock()
		return
	}
	p.sim.Release(e.Code)
}

func (p *PointerLock) onLockChange(e event.Event) {
	if !p.b.Surface.HasFinePointer() {
		return
	}
	p.setLocked(e.Locked)
}

func (p *PointerLock) onLockError(event.Event) {
	p.b.logger().Warn("pointer lock unavailable", "mode", string(ModePointerLock))
}
