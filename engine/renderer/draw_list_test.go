package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// strip builds 100 unit quads along Z from z=+50 to z=-50, one quad per chunk.
func strip(t *testing.T, y float32) *scene.Mesh {
	t.Helper()
	var (
		positions []mgl32.Vec3
		indices   []uint32
	)
	for i := range 100 {
		z0 := float32(50 - i)
		z1 := z0 - 1
		base := uint32(len(positions))
		positions = append(positions,
			mgl32.Vec3{-0.5, y, z0}, mgl32.Vec3{0.5, y, z0},
			mgl32.Vec3{-0.5, y, z1}, mgl32.Vec3{0.5, y, z1},
		)
		indices = append(indices, base, base+1, base+2, base+1, base+3, base+2)
	}
	m, err := scene.NewMesh(positions, indices, 2)
	require.NoError(t, err)
	require.Len(t, m.Chunks(), 100)
	return m
}

func lookingNorth() camera.Camera {
	return camera.NewCamera(
		camera.WithPosition(mgl32.Vec3{0, 1, 0}),
		camera.WithLookAt(mgl32.Vec3{0, 1, -10}),
	)
}

func TestDrawListWithoutCulling(t *testing.T) {
	m := strip(t, 0)
	draws, stats := buildDrawList([]*scene.Node{{Name: "ground", Mesh: m}}, nil)

	require.Len(t, draws, 1, "contiguous chunks merge")
	assert.Equal(t, uint32(0), draws[0].firstIndex)
	assert.Equal(t, uint32(600), draws[0].indexCount)
	assert.Equal(t, Stats{Draws: 1, VisibleChunks: 100, Triangles: 200}, stats)
}

func TestDrawListCullsChunksBehindCamera(t *testing.T) {
	m := strip(t, 0)
	f := common.FrustumFromMatrix(lookingNorth().ViewProjectionMatrix())
	draws, stats := buildDrawList([]*scene.Node{{Name: "ground", Mesh: m}}, &f)

	assert.Equal(t, 100, stats.VisibleChunks+stats.CulledChunks)
	assert.GreaterOrEqual(t, stats.CulledChunks, 45)
	assert.GreaterOrEqual(t, stats.VisibleChunks, 50)
	assert.Equal(t, stats.VisibleChunks*2, stats.Triangles)

	require.Len(t, draws, 1, "the visible run is contiguous")
	last := draws[0].firstIndex + draws[0].indexCount
	assert.Equal(t, uint32(600), last, "the far end of the strip is drawn")
}

func TestDrawListSkipsHiddenAndEmptyNodes(t *testing.T) {
	m := strip(t, 0)
	other := strip(t, 5)
	nodes := []*scene.Node{
		{Name: "rig"},
		{Name: "hidden", Mesh: m, Hidden: true},
		{Name: "visible", Mesh: other},
		nil,
	}
	draws, stats := buildDrawList(nodes, nil)
	require.Len(t, draws, 1)
	assert.Same(t, other, draws[0].mesh)
	assert.Equal(t, 100, stats.VisibleChunks)

	draws, _ = buildDrawList(append(nodes, &scene.Node{Name: "second", Mesh: m}), nil)
	assert.Len(t, draws, 2, "one draw per mesh")
}

func TestHeightRange(t *testing.T) {
	lo, hi := heightRange(nil)
	assert.Equal(t, float32(0), lo)
	assert.Equal(t, float32(1), hi)

	flat := []*scene.Node{{Name: "ground", Mesh: strip(t, 3)}}
	lo, hi = heightRange(flat)
	assert.Equal(t, float32(3), lo)
	assert.Equal(t, float32(4), hi, "flat scenes get a unit range")

	lo, hi = heightRange(append(flat, &scene.Node{Name: "peak", Mesh: strip(t, 40)}))
	assert.Equal(t, float32(3), lo)
	assert.Equal(t, float32(40), hi)
}

func TestUniformLayouts(t *testing.T) {
	var shade gpuShadeUniform
	assert.Equal(t, 32, shade.Size())
	shade.FogColor = [4]float32{1, 0, 0, 1}
	assert.Len(t, shade.Marshal(), 32)

	assert.Equal(t, mgl32.Vec4{0, 115.0 / 255, 182.0 / 255, 1}, colorFromHex(0x0073b6))
}
