package controls

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrackball(t *testing.T, f *fixture, cfg TrackballConfig) *Trackball {
	t.Helper()
	tb, err := NewTrackball(f.bindings(), cfg)
	require.NoError(t, err)
	require.NoError(t, tb.CreateControls())
	return tb
}

func TestTrackballRotateKeepsDistance(t *testing.T) {
	f := newFixture(overview)
	cfg := DefaultTrackballConfig()
	cfg.StaticMoving = true
	tb := newTrackball(t, f, cfg)
	assertNear(t, mgl32.Vec3{0.3, 0, 0.7}, tb.Target(), "target is the ground under the view ray")
	dist := f.cam.Position().Sub(tb.Target()).Len()
	start := f.cam.Position()
	upTilt := f.cam.Up().Dot(common.SafeNormalize(tb.Target().Sub(start)))

	f.surf.PointerDown(common.ButtonLeft, 400, 300)
	f.surf.PointerMove(500, 250)
	f.surf.PointerUp(common.ButtonLeft, 500, 250)

	assert.Positive(t, f.changes)
	assert.InDelta(t, dist, f.cam.Position().Sub(tb.Target()).Len(), 1e-3)
	assert.Greater(t, f.cam.Position().Sub(start).Len(), float32(0.5))

	toTarget := common.SafeNormalize(tb.Target().Sub(f.cam.Position()))
	assert.InDelta(t, 1, f.cam.Forward().Dot(toTarget), 1e-4)
	assert.InDelta(t, upTilt, f.cam.Up().Dot(toTarget), 1e-3, "up travels with the rotation")

	settled := f.changes
	for range 50 {
		tb.Animate(step)
	}
	assert.Equal(t, settled, f.changes, "static moving has no inertia")
}

func TestTrackballInertia(t *testing.T) {
	f := newFixture(overview)
	tb := newTrackball(t, f, DefaultTrackballConfig())

	f.surf.PointerDown(common.ButtonLeft, 400, 300)
	f.surf.PointerMove(450, 300)
	f.surf.PointerUp(common.ButtonLeft, 450, 300)

	before := f.changes
	tb.Animate(step)
	assert.Greater(t, f.changes, before, "rotation coasts after release")

	for range 500 {
		tb.Animate(step)
	}
	settled := f.changes
	for range 50 {
		tb.Animate(step)
	}
	assert.Equal(t, settled, f.changes, "inertia decays to rest")
}

func TestTrackballWheelZoom(t *testing.T) {
	f := newFixture(overview)
	cfg := DefaultTrackballConfig()
	cfg.StaticMoving = true
	tb := newTrackball(t, f, cfg)
	dist := f.cam.Position().Sub(tb.Target()).Len()

	f.surf.Wheel(-400)
	closer := f.cam.Position().Sub(tb.Target()).Len()
	assert.Less(t, closer, dist)

	f.surf.Wheel(800)
	assert.Greater(t, f.cam.Position().Sub(tb.Target()).Len(), closer)
}

func TestTrackballDistanceLimits(t *testing.T) {
	f := newFixture(overview)
	cfg := DefaultTrackballConfig()
	cfg.StaticMoving = true
	cfg.MinDistance = 10
	cfg.MaxDistance = 30
	tb := newTrackball(t, f, cfg)

	for range 100 {
		f.surf.Wheel(-1000)
	}
	assert.InDelta(t, 10, f.cam.Position().Sub(tb.Target()).Len(), 1e-3)
	for range 100 {
		f.surf.Wheel(1000)
	}
	assert.InDelta(t, 30, f.cam.Position().Sub(tb.Target()).Len(), 1e-3)
}

func TestTrackballPanAndKeys(t *testing.T) {
	f := newFixture(overview)
	cfg := DefaultTrackballConfig()
	cfg.StaticMoving = true
	tb := newTrackball(t, f, cfg)
	target := tb.Target()
	offset := f.cam.Position().Sub(target)

	// Holding the pan key turns a left drag into a pan.
	f.surf.KeyDown(common.KeyD)
	f.surf.PointerDown(common.ButtonLeft, 400, 300)
	f.surf.PointerMove(300, 300)
	f.surf.PointerUp(common.ButtonLeft, 300, 300)
	f.surf.KeyUp(common.KeyD)

	assert.NotEqual(t, target, tb.Target())
	assertNear(t, offset, f.cam.Position().Sub(tb.Target()), "pan keeps the offset")
}

func TestTrackballUpdateAndDestroy(t *testing.T) {
	f := newFixture(overview)
	tb := newTrackball(t, f, DefaultTrackballConfig())
	assert.Equal(t, float32(800), tb.screen.Width)

	f.surf.Resize(1024, 768)
	tb.Update()
	assert.Equal(t, float32(1024), tb.screen.Width)

	f.surf.PointerDown(common.ButtonLeft, 400, 300)
	f.surf.PointerMove(700, 100)
	tb.Destroy()
	tb.Destroy()
	assert.Zero(t, f.listeners())
	assert.Equal(t, common.WorldUp, f.cam.Up(), "world up restored for the next mode")
}
