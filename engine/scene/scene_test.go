package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var down = mgl32.Vec3{0, -1, 0}

func TestNewMeshValidation(t *testing.T) {
	pts := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}}

	_, err := NewMesh(pts, []uint32{0, 1}, 0)
	assert.ErrorIs(t, err, ErrIndexCount)

	_, err = NewMesh(pts, []uint32{0, 1, 5}, 0)
	assert.ErrorIs(t, err, ErrIndexRange)

	m, err := NewMesh(pts, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, m.TriangleCount())
	lo, hi := m.Bounds()
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, lo)
	assert.Equal(t, mgl32.Vec3{1, 0, 1}, hi)
}

func TestGridChunks(t *testing.T) {
	g := NewGrid(100, 20, 0)
	assert.Equal(t, 800, g.TriangleCount())

	m, err := NewMesh(g.Positions(), g.Indices(), 100)
	require.NoError(t, err)
	require.Len(t, m.Chunks(), 8)
	var total uint32
	for _, c := range m.Chunks() {
		total += c.IndexCount
		assert.Greater(t, c.Radius, float32(0))
	}
	assert.Equal(t, uint32(len(m.Indices())), total)
}

func TestNodeLifecycle(t *testing.T) {
	changes := 0
	s := NewScene("test", WithRaycastWorkers(1))
	s.SetChangeCallback(func() { changes++ })

	require.NoError(t, s.Add(&Node{Name: "rig"}))
	assert.ErrorIs(t, s.Add(&Node{Name: "rig"}), ErrDuplicateNode)
	s.Set(&Node{Name: "ground", Mesh: NewGrid(10, 1, 0)})
	s.Set(&Node{Name: "ground", Mesh: NewGrid(20, 1, 0)})

	assert.Equal(t, 2, s.Count())
	assert.Equal(t, []string{"rig", "ground"}, names(s.Nodes()))
	assert.NotNil(t, s.Find("ground"))

	v := s.Version()
	assert.True(t, s.Remove("rig"))
	assert.False(t, s.Remove("rig"))
	assert.Nil(t, s.Find("rig"))
	assert.Greater(t, s.Version(), v)
	assert.Equal(t, 4, changes)
}

func TestRaycastMissingGeometry(t *testing.T) {
	s := NewScene("test", WithNodes(&Node{Name: "rig"}))
	r := common.NewRay(mgl32.Vec3{0, 10, 0}, down)

	_, ok := s.Raycast("ground", r, 0, 100)
	assert.False(t, ok, "absent node")
	_, ok = s.Raycast("rig", r, 0, 100)
	assert.False(t, ok, "node without mesh")

	empty, err := NewMesh(nil, nil, 0)
	require.NoError(t, err)
	s.Set(&Node{Name: "empty", Mesh: empty})
	_, ok = s.Raycast("empty", r, 0, 100)
	assert.False(t, ok, "empty mesh")
}

func TestRaycastNearestHit(t *testing.T) {
	for _, workers := range []int{1, 4} {
		s := NewScene("test", WithRaycastWorkers(workers), WithParallelChunks(2))
		// Two stacked floors split into many chunks; the upper one must win.
		lower, err := NewMesh(NewGrid(50, 10, 0).Positions(), NewGrid(50, 10, 0).Indices(), 10)
		require.NoError(t, err)
		upperGrid := NewGrid(50, 10, 5)
		upper, err := NewMesh(upperGrid.Positions(), upperGrid.Indices(), 10)
		require.NoError(t, err)
		merged := mergeMeshes(t, lower, upper)
		s.Set(&Node{Name: "ground", Mesh: merged})

		hit, ok := s.Raycast("ground", common.NewRay(mgl32.Vec3{1.3, 10, -2.1}, down), 0, 100)
		require.True(t, ok, "workers=%d", workers)
		assert.InDelta(t, 5, hit.Distance, 1e-4)
		assert.InDelta(t, 5, hit.Point.Y(), 1e-4)
		assert.Equal(t, "ground", hit.Object)
		assert.InDelta(t, 1, abs(hit.Normal.Y()), 1e-5)

		_, ok = s.Raycast("ground", common.NewRay(mgl32.Vec3{1.3, 10, -2.1}, down), 0, 4)
		assert.False(t, ok, "far limit excludes both floors")

		hit, ok = s.Raycast("ground", common.NewRay(mgl32.Vec3{1.3, 10, -2.1}, down), 6, 100)
		require.True(t, ok)
		assert.InDelta(t, 10, hit.Distance, 1e-4, "near limit skips the upper floor")

		_, ok = s.Raycast("ground", common.NewRay(mgl32.Vec3{500, 10, 0}, down), 0, 100)
		assert.False(t, ok, "outside the grid")
	}
}

func mergeMeshes(t *testing.T, a, b *Mesh) *Mesh {
	t.Helper()
	pos := append(append([]mgl32.Vec3{}, a.Positions()...), b.Positions()...)
	idx := append([]uint32{}, a.Indices()...)
	off := uint32(len(a.Positions()))
	for _, i := range b.Indices() {
		idx = append(idx, i+off)
	}
	m, err := NewMesh(pos, idx, 10)
	require.NoError(t, err)
	return m
}

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func TestStopFallsBackToSerialRaycast(t *testing.T) {
	s := NewScene("test", WithRaycastWorkers(4), WithParallelChunks(2))
	s.Set(&Node{Name: "ground", Mesh: NewGrid(50, 10, 0)})
	ray := common.NewRay(mgl32.Vec3{1.3, 10, -2.1}, down)

	_, ok := s.Raycast("ground", ray, 0, 100)
	require.True(t, ok)

	s.Stop()
	s.Stop()
	assert.Nil(t, s.(*scene).raycastPool)
	hit, ok := s.Raycast("ground", ray, 0, 100)
	require.True(t, ok, "raycasts keep working after the workers are released")
	assert.InDelta(t, 10, hit.Distance, 1e-4)
}
