package controls

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/event"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scheduler"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var overview = []camera.CameraBuilderOption{
	camera.WithPosition(mgl32.Vec3{0.3, 10, 20}),
	camera.WithLookAt(mgl32.Vec3{0.3, 0, 0.7}),
}

func newOrbit(t *testing.T, f *fixture, mode Mode, cfg OrbitConfig) *Orbit {
	t.Helper()
	o, err := NewOrbit(mode, f.bindings(), cfg)
	require.NoError(t, err)
	require.NoError(t, o.CreateControls())
	return o
}

func TestOrbitTargetsGround(t *testing.T) {
	f := newFixture(overview)
	o := newOrbit(t, f, ModeOrbit, DefaultOrbitConfig())

	assertNear(t, mgl32.Vec3{0.3, 0, 0.7}, o.Target(), "target is the ground under the view ray")
	assert.Equal(t, scheduler.PolicyOnDemand, o.RenderPolicy())
	assert.Equal(t, 5, f.listeners())

	f.changes = 0
	for range 100 {
		o.Animate(step)
	}
	assert.Zero(t, f.changes, "no input, no change")
}

func TestOrbitTargetWithoutGround(t *testing.T) {
	f := newFixture([]camera.CameraBuilderOption{
		camera.WithPosition(mgl32.Vec3{0, 50, 0}),
		camera.WithLookAt(mgl32.Vec3{0, 50, -1}),
	})
	o := newOrbit(t, f, ModeOrbit, DefaultOrbitConfig())
	assertNear(t, mgl32.Vec3{0, 50, -50}, o.Target(), "target straight ahead at the camera distance")
}

func TestOrbitRotateKeepsDistance(t *testing.T) {
	f := newFixture(overview)
	o := newOrbit(t, f, ModeOrbit, DefaultOrbitConfig())
	dist := f.cam.Position().Sub(o.Target()).Len()
	start := f.cam.Position()

	f.changes = 0
	f.surf.PointerDown(common.ButtonLeft, 400, 300)
	f.surf.PointerMove(450, 300)
	f.surf.PointerUp(common.ButtonLeft, 450, 300)

	assert.Equal(t, 1, f.changes)
	assert.InDelta(t, dist, f.cam.Position().Sub(o.Target()).Len(), 1e-3)
	assert.InDelta(t, start.Y(), f.cam.Position().Y(), 1e-3, "horizontal drag keeps the height")
	assert.Greater(t, f.cam.Position().Sub(start).Len(), float32(1))

	fwd := f.cam.Forward()
	toTarget := common.SafeNormalize(o.Target().Sub(f.cam.Position()))
	assert.InDelta(t, 1, fwd.Dot(toTarget), 1e-4, "camera keeps looking at the target")

	f.surf.PointerMove(600, 100)
	assert.Equal(t, 1, f.changes, "moves after release are ignored")
}

func TestOrbitPolarLimit(t *testing.T) {
	f := newFixture(overview)
	o := newOrbit(t, f, ModeOrbit, DefaultOrbitConfig())

	f.surf.PointerDown(common.ButtonLeft, 400, 300)
	f.surf.PointerMove(400, -20000)
	assert.GreaterOrEqual(t, f.cam.Position().Y(), o.Target().Y()-1e-3, "never below the horizon")

	f.surf.PointerMove(400, 40000)
	assert.Greater(t, f.cam.Position().Y(), o.Target().Y(), "over the top is clamped")
	assert.True(t, common.IsFiniteVec3(f.cam.Position()))
}

func TestOrbitWheelDolly(t *testing.T) {
	f := newFixture(overview)
	cfg := DefaultOrbitConfig()
	cfg.MinDistance = 5
	o := newOrbit(t, f, ModeOrbit, cfg)
	dist := f.cam.Position().Sub(o.Target()).Len()

	f.surf.Wheel(-100)
	assert.InDelta(t, dist*0.95, f.cam.Position().Sub(o.Target()).Len(), 1e-3, "wheel up dollies in")
	f.surf.Wheel(100)
	assert.InDelta(t, dist, f.cam.Position().Sub(o.Target()).Len(), 1e-3, "wheel down dollies out")

	for range 200 {
		f.surf.Wheel(-100)
	}
	assert.InDelta(t, 5, f.cam.Position().Sub(o.Target()).Len(), 1e-3, "min distance holds")
}

func TestOrbitPanMovesTarget(t *testing.T) {
	f := newFixture(overview)
	o := newOrbit(t, f, ModeOrbit, DefaultOrbitConfig())
	target := o.Target()
	offset := f.cam.Position().Sub(target)

	f.surf.PointerDown(common.ButtonRight, 400, 300)
	f.surf.PointerMove(300, 300)
	f.surf.PointerUp(common.ButtonRight, 300, 300)

	moved := o.Target().Sub(target)
	assert.Greater(t, moved.X(), float32(0), "dragging left moves the view right")
	assertNear(t, offset, f.cam.Position().Sub(o.Target()), "pan keeps the offset")

	target = o.Target()
	f.surf.KeyDown(common.KeyArrowUp)
	assert.NotEqual(t, target, o.Target(), "arrow keys pan")
}

func TestMapPansAcrossGround(t *testing.T) {
	f := newFixture(overview)
	o := newOrbit(t, f, ModeMap, DefaultMapConfig())
	assert.Equal(t, ModeMap, o.Mode())
	target := o.Target()

	f.surf.PointerDown(common.ButtonLeft, 400, 300)
	f.surf.PointerMove(400, 400)
	f.surf.PointerUp(common.ButtonLeft, 400, 400)
	for range 400 {
		o.Animate(step)
	}

	moved := o.Target().Sub(target)
	assert.InDelta(t, 0, moved.Y(), 1e-4, "pan stays in the ground plane")
	assert.Greater(t, moved.Len(), float32(0.1))
}

func TestMapDampingSettles(t *testing.T) {
	f := newFixture(overview)
	o := newOrbit(t, f, ModeMap, DefaultMapConfig())

	f.surf.PointerDown(common.ButtonRight, 400, 300)
	f.surf.PointerMove(500, 300)
	f.surf.PointerUp(common.ButtonRight, 500, 300)
	afterDrag := f.cam.Position()

	f.changes = 0
	o.Animate(step)
	assert.Equal(t, 1, f.changes, "damped motion continues after release")
	assert.NotEqual(t, afterDrag, f.cam.Position())

	for range 2000 {
		o.Animate(step)
	}
	settled := f.changes
	for range 100 {
		o.Animate(step)
	}
	assert.Equal(t, settled, f.changes, "motion settles")
}

func TestOrbitDestroy(t *testing.T) {
	f := newFixture(overview)
	o := newOrbit(t, f, ModeOrbit, DefaultOrbitConfig())
	o.Destroy()
	o.Destroy()
	assert.Zero(t, f.listeners())
	assert.Zero(t, f.surf.Count(event.TypeWheel))

	pos := f.cam.Position()
	f.surf.Wheel(-100)
	assert.Equal(t, pos, f.cam.Position())
}

func TestOrbitReset(t *testing.T) {
	f := newFixture(overview)
	o := newOrbit(t, f, ModeOrbit, DefaultOrbitConfig())
	home := f.cam.Position()

	f.surf.PointerDown(common.ButtonRight, 400, 300)
	f.surf.PointerMove(100, 300)
	f.surf.PointerUp(common.ButtonRight, 100, 300)
	require.NotEqual(t, home, f.cam.Position())

	f.cam.Reset()
	o.Reset()
	assertNear(t, mgl32.Vec3{0.3, 0, 0.7}, o.Target(), "target re-picked from the home pose")

	f.changes = 0
	o.Animate(step)
	assert.Zero(t, f.changes)
	assertNear(t, home, f.cam.Position(), "home pose kept")
}
