package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVec3(t *testing.T, want, got mgl32.Vec3, delta float64) {
	t.Helper()
	for i := range 3 {
		assert.InDelta(t, want[i], got[i], delta, "component %d of %v", i, got)
	}
}

func TestYawPitchRoundTrip(t *testing.T) {
	c := NewCamera()
	for _, tc := range []struct{ yaw, pitch float32 }{
		{0, 0},
		{0.7, 0.3},
		{-2.5, -1.2},
		{3.0, 1.5},
	} {
		c.SetYawPitch(tc.yaw, tc.pitch)
		yaw, pitch := c.YawPitch()
		assert.InDelta(t, tc.yaw, yaw, 1e-4)
		assert.InDelta(t, tc.pitch, pitch, 1e-4)
	}
}

func TestForwardAndRightFollowYaw(t *testing.T) {
	c := NewCamera()
	assertVec3(t, mgl32.Vec3{0, 0, -1}, c.Forward(), 1e-6)
	assertVec3(t, mgl32.Vec3{1, 0, 0}, c.Right(), 1e-6)

	c.SetYawPitch(math.Pi/2, 0)
	assertVec3(t, mgl32.Vec3{-1, 0, 0}, c.Forward(), 1e-5)
	assertVec3(t, mgl32.Vec3{0, 0, -1}, c.Right(), 1e-5)
}

func TestLookAt(t *testing.T) {
	c := NewCamera(WithPosition(mgl32.Vec3{0, 10, 10}), WithLookAt(mgl32.Vec3{}))
	f := c.Forward()
	want := mgl32.Vec3{0, -10, -10}.Normalize()
	assertVec3(t, want, f, 1e-5)

	// Right stays horizontal: no roll introduced.
	assert.InDelta(t, 0, c.Right().Y(), 1e-5)

	before := c.Orientation()
	c.LookAt(c.Position())
	assert.Equal(t, before, c.Orientation(), "degenerate target is ignored")
}

func TestLookAtStraightDown(t *testing.T) {
	c := NewCamera(WithPosition(mgl32.Vec3{0, 10, 0}), WithLookAt(mgl32.Vec3{}))
	assertVec3(t, mgl32.Vec3{0, -1, 0}, c.Forward(), 1e-5)
	for _, v := range c.Orientation().V {
		assert.False(t, math.IsNaN(float64(v)))
	}
}

func TestViewMatrixMapsPositionToOrigin(t *testing.T) {
	c := NewCamera(WithPosition(mgl32.Vec3{3, 4, 5}))
	c.SetYawPitch(0.4, -0.2)
	p := c.Position()
	v := c.ViewMatrix().Mul4x1(p.Vec4(1))
	assertVec3(t, mgl32.Vec3{}, v.Vec3(), 1e-4)

	ahead := p.Add(c.Forward().Mul(2))
	va := c.ViewMatrix().Mul4x1(ahead.Vec4(1))
	assertVec3(t, mgl32.Vec3{0, 0, -2}, va.Vec3(), 1e-4)
}

func TestAspectAndProjection(t *testing.T) {
	c := NewCamera(WithFov(mgl32.DegToRad(90)), WithNear(1), WithFar(100))
	c.SetAspect(2)
	assert.Equal(t, float32(2), c.Aspect())
	proj := c.ProjectionMatrix()
	assert.InDelta(t, 0.5, proj[0], 1e-5)
	assert.InDelta(t, 1, proj[5], 1e-5)

	c.SetAspect(0)
	c.SetAspect(float32(math.Inf(1)))
	assert.Equal(t, float32(2), c.Aspect(), "invalid aspect keeps the previous value")
}

func TestHomeReset(t *testing.T) {
	c := NewCamera(WithPosition(mgl32.Vec3{1, 2, 3}))
	c.SetPosition(mgl32.Vec3{100, -50, 0})
	c.SetYawPitch(1, 1)
	c.Reset()
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, c.Position())
	assertVec3(t, mgl32.Vec3{0, 0, -1}, c.Forward(), 1e-6)

	c.SetPosition(mgl32.Vec3{7, 7, 7})
	c.SetHome()
	c.SetPosition(mgl32.Vec3{})
	c.Reset()
	assert.Equal(t, mgl32.Vec3{7, 7, 7}, c.Position())
}

func TestUniformMarshal(t *testing.T) {
	c := NewCamera(WithPosition(mgl32.Vec3{1, 2, 3}))
	u := UniformFromCamera(c)
	buf := u.Marshal()
	require.Len(t, buf, 80)
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(buf[68:])))
	vp := c.ViewProjectionMatrix()
	assert.Equal(t, vp[0], math.Float32frombits(binary.LittleEndian.Uint32(buf[0:])))
}
