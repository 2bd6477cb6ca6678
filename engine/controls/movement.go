package controls

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// KeyState is the held movement input of the first-person mode.
type KeyState struct {
	Forward, Back, Left, Right bool
	Sprint                     bool
	// JumpRequested is a one-shot flag consumed by the next Step.
	JumpRequested bool
}

// Axes returns the relative input as (right, forward), each in {-1, 0, 1}.
// Opposing keys cancel.
func (k KeyState) Axes() (right, forward float32) {
	if k.Forward {
		forward++
	}
	if k.Back {
		forward--
	}
	if k.Right {
		right++
	}
	if k.Left {
		right--
	}
	return right, forward
}

// MovementSimulator integrates first-person velocity and keeps the eye GroundOffset above
// the walkable mesh using a downward raycast each step.
// It is not safe for concurrent use; all calls come from the frame loop and input callbacks.
type MovementSimulator struct {
	cfg    MovementConfig
	ground Raycaster

	keys     KeyState
	velocity mgl32.Vec3
	grounded bool

	// probe is reused for every ground query.
	probe      common.Ray
	lastFinite mgl32.Vec3
}

// NewMovementSimulator creates a simulator at rest.
//
// Parameters:
//   - cfg: the walking constants
//   - ground: the geometry to probe (nil means there is never ground)
//
// Returns:
//   - *MovementSimulator: the simulator
func NewMovementSimulator(cfg MovementConfig, ground Raycaster) *MovementSimulator {
	return &MovementSimulator{
		cfg:    cfg,
		ground: ground,
		probe:  common.Ray{Direction: mgl32.Vec3{0, -1, 0}},
	}
}

// Press records a key press.
//
// Parameters:
//   - code: the physical key code
//
// Returns:
//   - bool: true if the key is a movement key
func (m *MovementSimulator) Press(code string) bool {
	return m.setKey(code, true)
}

// Release records a key release.
//
// Parameters:
//   - code: the physical key code
//
// Returns:
//   - bool: true if the key is a movement key
func (m *MovementSimulator) Release(code string) bool {
	return m.setKey(code, false)
}

func (m *MovementSimulator) setKey(code string, down bool) bool {
	switch code {
	case common.KeyW, common.KeyArrowUp:
		m.keys.Forward = down
	case common.KeyS, common.KeyArrowDown:
		m.keys.Back = down
	case common.KeyA, common.KeyArrowLeft:
		m.keys.Left = down
	case common.KeyD, common.KeyArrowRight:
		m.keys.Right = down
	case common.KeyShiftLeft:
		m.keys.Sprint = down
	case common.KeySpace:
		if down {
			m.keys.JumpRequested = true
		}
	default:
		return false
	}
	return true
}

// Keys returns the current input state.
func (m *MovementSimulator) Keys() KeyState { return m.keys }

// Velocity returns the current velocity.
func (m *MovementSimulator) Velocity() mgl32.Vec3 { return m.velocity }

// Grounded reports whether the last step ended on walkable ground.
func (m *MovementSimulator) Grounded() bool { return m.grounded }

// ClearInput releases every held key without touching velocity.
func (m *MovementSimulator) ClearInput() {
	m.keys = KeyState{}
}

// Reset clears input and velocity. The next step starts airborne and re-probes the ground.
func (m *MovementSimulator) Reset() {
	m.keys = KeyState{}
	m.velocity = mgl32.Vec3{}
	m.grounded = false
}

// Step advances the simulation by dt seconds.
//
// Order per step: horizontal velocity from input rotated by yaw, jump if grounded,
// gravity if airborne, then ground probe or vertical integration.
//
// Parameters:
//   - pos: the current eye position
//   - yaw: the view rotation about +Y in radians
//   - dt: the frame delta in seconds
//
// Returns:
//   - mgl32.Vec3: the new eye position, always finite
func (m *MovementSimulator) Step(pos mgl32.Vec3, yaw, dt float32) mgl32.Vec3 {
	dt = common.SanitizeDelta(dt, 0)
	if !common.IsFiniteVec3(pos) {
		pos = m.lastFinite
	}
	if !common.IsFiniteVec3(m.velocity) {
		m.velocity = mgl32.Vec3{}
	}

	right, forward := m.keys.Axes()
	sin, cos := math32.Sin(yaw), math32.Cos(yaw)
	fwdDir := mgl32.Vec3{-sin, 0, -cos}
	rightDir := mgl32.Vec3{cos, 0, -sin}
	speed := m.cfg.WalkSpeed
	if m.keys.Sprint {
		speed *= m.cfg.SprintFactor
	}
	horiz := common.SafeNormalize(fwdDir.Mul(forward).Add(rightDir.Mul(right))).Mul(speed)
	m.velocity[0], m.velocity[2] = horiz[0], horiz[2]

	if m.keys.JumpRequested {
		if m.grounded {
			m.velocity[1] = m.cfg.JumpImpulse
			m.grounded = false
		}
		m.keys.JumpRequested = false
	}

	if !m.grounded {
		m.velocity[1] -= m.cfg.Gravity * dt
		if m.velocity[1] < -m.cfg.TerminalVelocity {
			m.velocity[1] = -m.cfg.TerminalVelocity
		}
	}

	next := mgl32.Vec3{pos[0] + m.velocity[0]*dt, pos[1], pos[2] + m.velocity[2]*dt}
	if m.velocity[1] > 0 {
		next[1] += m.velocity[1] * dt
		m.grounded = false
	} else {
		fall := -m.velocity[1] * dt
		if hit, ok := m.probeGround(next, m.cfg.GroundOffset+m.cfg.StepMargin+fall); ok {
			next[1] = hit.Point[1] + m.cfg.GroundOffset
			m.velocity[1] = 0
			m.grounded = true
		} else {
			next[1] -= fall
			m.grounded = false
		}
	}

	if !common.IsFiniteVec3(next) {
		m.velocity = mgl32.Vec3{}
		return m.lastFinite
	}
	m.lastFinite = next
	return next
}

func (m *MovementSimulator) probeGround(from mgl32.Vec3, far float32) (common.Hit, bool) {
	if m.ground == nil {
		return common.Hit{}, false
	}
	m.probe.Origin = from
	return m.ground.Raycast(m.cfg.GroundName, m.probe, 0, far)
}
