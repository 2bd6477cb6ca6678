package controls

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const step = float32(1.0 / 60)

func flatGround() scene.Scene {
	return scene.NewScene("ground",
		scene.WithRaycastWorkers(1),
		scene.WithNodes(&scene.Node{Name: DefaultGroundName, Mesh: scene.NewGrid(200, 10, 0)}),
	)
}

func assertNear(t *testing.T, want, got mgl32.Vec3, msg string) {
	t.Helper()
	assert.InDelta(t, 0, want.Sub(got).Len(), 1e-4, "%s: want %v got %v", msg, want, got)
}

func TestGroundingConverges(t *testing.T) {
	cfg := DefaultMovementConfig()
	sim := NewMovementSimulator(cfg, flatGround())

	pos := mgl32.Vec3{1.3, 10, 2.7}
	for range 600 {
		pos = sim.Step(pos, 0, step)
	}
	require.True(t, sim.Grounded())
	assert.InDelta(t, cfg.GroundOffset, pos.Y(), 1e-4)
	assert.InDelta(t, 1.3, pos.X(), 1e-6, "no horizontal drift")
	assert.InDelta(t, 2.7, pos.Z(), 1e-6, "no horizontal drift")

	settled := pos
	for range 100 {
		pos = sim.Step(pos, 0, step)
	}
	assert.True(t, sim.Grounded())
	assert.InDelta(t, settled.Y(), pos.Y(), 1e-5, "stable once grounded")
	assert.Zero(t, sim.Velocity().Y())
}

func TestOpposingKeysCancel(t *testing.T) {
	sim := NewMovementSimulator(DefaultMovementConfig(), flatGround())
	pos := mgl32.Vec3{1.3, 1.7, 2.7}

	sim.Press(common.KeyW)
	sim.Press(common.KeyS)
	sim.Press(common.KeyA)
	sim.Press(common.KeyD)
	right, forward := sim.Keys().Axes()
	assert.Zero(t, right)
	assert.Zero(t, forward)

	next := sim.Step(pos, 0.7, step)
	assert.Zero(t, sim.Velocity().X())
	assert.Zero(t, sim.Velocity().Z())
	assert.Equal(t, pos.X(), next.X())
	assert.Equal(t, pos.Z(), next.Z())
	assert.True(t, common.IsFiniteVec3(next))
}

func TestWalkAndSprint(t *testing.T) {
	cfg := DefaultMovementConfig()
	sim := NewMovementSimulator(cfg, flatGround())
	pos := mgl32.Vec3{1.3, 1.7, 2.7}

	assert.True(t, sim.Press(common.KeyW))
	sim.Step(pos, 0, step)
	v := sim.Velocity()
	assert.InDelta(t, 0, v.X(), 1e-5)
	assert.InDelta(t, -cfg.WalkSpeed, v.Z(), 1e-4, "yaw 0 walks toward -Z")

	sim.Press(common.KeyShiftLeft)
	sim.Step(pos, math32.Pi/2, step)
	v = sim.Velocity()
	assert.InDelta(t, -cfg.WalkSpeed*cfg.SprintFactor, v.X(), 1e-3, "yaw π/2 walks toward -X")
	assert.InDelta(t, 0, v.Z(), 1e-3)

	sim.Release(common.KeyW)
	sim.Press(common.KeyD)
	sim.Press(common.KeyArrowUp)
	sim.Step(pos, 0, step)
	v = sim.Velocity()
	horiz := mgl32.Vec2{v.X(), v.Z()}
	assert.InDelta(t, cfg.WalkSpeed*cfg.SprintFactor, horiz.Len(), 1e-3, "diagonal input is normalized")

	assert.False(t, sim.Press("KeyQ"))
}

func TestJumpOnlyWhenGrounded(t *testing.T) {
	cfg := DefaultMovementConfig()
	sim := NewMovementSimulator(cfg, flatGround())

	pos := mgl32.Vec3{1.3, 1.7, 2.7}
	pos = sim.Step(pos, 0, step)
	require.True(t, sim.Grounded())

	sim.Press(common.KeySpace)
	pos = sim.Step(pos, 0, step)
	assert.False(t, sim.Grounded())
	assert.InDelta(t, cfg.JumpImpulse-cfg.Gravity*step, sim.Velocity().Y(), 1e-4)
	assert.Greater(t, pos.Y(), cfg.GroundOffset)
	assert.False(t, sim.Keys().JumpRequested, "jump request is consumed")

	before := sim.Velocity().Y()
	sim.Press(common.KeySpace)
	pos = sim.Step(pos, 0, step)
	assert.Less(t, sim.Velocity().Y(), before, "airborne jump is ignored")

	for range 300 {
		pos = sim.Step(pos, 0, step)
	}
	assert.True(t, sim.Grounded(), "lands again")
	assert.InDelta(t, cfg.GroundOffset, pos.Y(), 1e-4)
}

func TestFreeFallStaysFinite(t *testing.T) {
	cfg := DefaultMovementConfig()
	sim := NewMovementSimulator(cfg, nil)

	pos := mgl32.Vec3{0, 10, 0}
	for range 100000 {
		pos = sim.Step(pos, 0, 0.1)
	}
	assert.True(t, common.IsFiniteVec3(pos))
	assert.False(t, sim.Grounded())
	assert.Equal(t, -cfg.TerminalVelocity, sim.Velocity().Y())

	off := NewMovementSimulator(cfg, flatGround())
	far := mgl32.Vec3{5000, 10, 5000}
	for range 100 {
		far = off.Step(far, 0, step)
	}
	assert.False(t, off.Grounded(), "off the mesh there is no ground")
	assert.Less(t, far.Y(), float32(10))
}

func TestStepSanitizesInput(t *testing.T) {
	sim := NewMovementSimulator(DefaultMovementConfig(), flatGround())
	pos := mgl32.Vec3{1.3, 1.7, 2.7}
	pos = sim.Step(pos, 0, step)

	sim.Press(common.KeyW)
	nan := math32.NaN()
	next := sim.Step(pos, 0, nan)
	assertNear(t, pos, next, "non-finite dt is a zero step")
	next = sim.Step(pos, 0, -1)
	assertNear(t, pos, next, "negative dt is a zero step")

	next = sim.Step(mgl32.Vec3{nan, nan, nan}, 0, step)
	assert.True(t, common.IsFiniteVec3(next), "non-finite position falls back to the last finite one")
}

func TestResetClearsState(t *testing.T) {
	sim := NewMovementSimulator(DefaultMovementConfig(), nil)
	sim.Press(common.KeyW)
	sim.Step(mgl32.Vec3{0, 10, 0}, 0, step)
	require.NotZero(t, sim.Velocity().Len())

	sim.Reset()
	assert.Equal(t, KeyState{}, sim.Keys())
	assert.Equal(t, mgl32.Vec3{}, sim.Velocity())
	assert.False(t, sim.Grounded())
}
