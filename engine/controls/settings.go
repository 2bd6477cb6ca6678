package controls

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/chewxy/math32"
)

// DefaultGroundName is the scene node probed for walkable geometry.
const DefaultGroundName = "ground"

// MovementConfig holds the first-person walking constants.
// Distances are world units, times are seconds.
type MovementConfig struct {
	// WalkSpeed is the horizontal speed in units per second.
	WalkSpeed float32
	// SprintFactor multiplies WalkSpeed while sprint is held.
	SprintFactor float32
	// Gravity is the downward acceleration in units per second squared.
	Gravity float32
	// JumpImpulse is the upward speed set by a jump.
	JumpImpulse float32
	// TerminalVelocity bounds the falling speed.
	TerminalVelocity float32
	// GroundOffset is the eye height kept above the walkable surface.
	GroundOffset float32
	// StepMargin extends the ground probe below the eye height so small downward steps stay grounded.
	StepMargin float32
	// LookSensitivity converts pointer movement pixels into radians.
	LookSensitivity float32
	// MinPolarAngle and MaxPolarAngle bound the view direction measured from straight up.
	// Pitch is clamped to [π/2-MaxPolarAngle, π/2-MinPolarAngle].
	MinPolarAngle float32
	MaxPolarAngle float32
	// GroundName is the scene node the ground probe is cast against.
	GroundName string
}

// DefaultMovementConfig returns the walking constants used when nothing is configured.
//
// Returns:
//   - MovementConfig: the defaults
func DefaultMovementConfig() MovementConfig {
	return MovementConfig{
		WalkSpeed:        15,
		SprintFactor:     3.5,
		Gravity:          30,
		JumpImpulse:      12,
		TerminalVelocity: 120,
		GroundOffset:     1.7,
		StepMargin:       0.3,
		LookSensitivity:  0.002,
		MinPolarAngle:    0,
		MaxPolarAngle:    math32.Pi,
		GroundName:       DefaultGroundName,
	}
}

// PointerAction is what dragging with a pointer button does in the orbit family of modes.
type PointerAction uint8

const (
	ActionNone PointerAction = iota
	ActionRotate
	ActionDolly
	ActionPan
)

// OrbitConfig configures the orbit and map modes.
type OrbitConfig struct {
	EnableDamping bool
	DampingFactor float32

	RotateSpeed float32
	ZoomSpeed   float32
	PanSpeed    float32
	// KeyPanSpeed is the pan distance in pixels per arrow key press.
	KeyPanSpeed float32

	MinDistance   float32
	MaxDistance   float32
	MinPolarAngle float32
	MaxPolarAngle float32

	// ScreenSpacePanning pans in the view plane; false pans across the ground plane.
	ScreenSpacePanning bool

	// Buttons maps common.Button* to the drag action of that button.
	Buttons [3]PointerAction

	// GroundName is probed along the view ray to pick the initial orbit target.
	GroundName string
}

// DefaultOrbitConfig returns the orbit-mode settings: no damping, rotate/dolly/pan on left/middle/right.
//
// Returns:
//   - OrbitConfig: the defaults
func DefaultOrbitConfig() OrbitConfig {
	return OrbitConfig{
		DampingFactor:      0.05,
		RotateSpeed:        1,
		ZoomSpeed:          1,
		PanSpeed:           1,
		KeyPanSpeed:        7,
		MaxDistance:        math32.Inf(1),
		MaxPolarAngle:      math32.Pi / 2,
		ScreenSpacePanning: true,
		Buttons:            [3]PointerAction{ActionRotate, ActionDolly, ActionPan},
		GroundName:         DefaultGroundName,
	}
}

// DefaultMapConfig returns the map-mode settings: damped, left button pans across the ground.
//
// Returns:
//   - OrbitConfig: the defaults
func DefaultMapConfig() OrbitConfig {
	cfg := DefaultOrbitConfig()
	cfg.EnableDamping = true
	cfg.DampingFactor = 0.05
	cfg.ScreenSpacePanning = false
	cfg.Buttons = [3]PointerAction{ActionPan, ActionDolly, ActionRotate}
	return cfg
}

// TrackballConfig configures the trackball mode.
type TrackballConfig struct {
	RotateSpeed float32
	ZoomSpeed   float32
	PanSpeed    float32

	NoRotate bool
	NoZoom   bool
	NoPan    bool

	// StaticMoving disables inertia; otherwise motion decays by DynamicDampingFactor.
	StaticMoving         bool
	DynamicDampingFactor float32

	MinDistance float32
	MaxDistance float32

	// Keys hold a drag mode while pressed: rotate, zoom, pan.
	Keys [3]string

	Buttons [3]PointerAction

	GroundName string
}

// DefaultTrackballConfig returns the trackball-mode settings.
//
// Returns:
//   - TrackballConfig: the defaults
func DefaultTrackballConfig() TrackballConfig {
	return TrackballConfig{
		RotateSpeed:          1.0,
		ZoomSpeed:            1.2,
		PanSpeed:             0.8,
		DynamicDampingFactor: 0.2,
		MaxDistance:          math32.Inf(1),
		Keys:                 [3]string{common.KeyA, common.KeyS, common.KeyD},
		Buttons:              [3]PointerAction{ActionRotate, ActionDolly, ActionPan},
		GroundName:           DefaultGroundName,
	}
}
