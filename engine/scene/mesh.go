package scene

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultChunkTriangles is the number of triangles grouped under one bounding sphere.
const DefaultChunkTriangles = 2048

var (
	// ErrIndexCount is returned when the index buffer length is not a multiple of 3.
	ErrIndexCount = errors.New("scene: index count is not a multiple of 3")

	// ErrIndexRange is returned when an index references a missing vertex.
	ErrIndexRange = errors.New("scene: index out of range")
)

// Chunk is a contiguous run of triangles with a bounding sphere.
// Raycasts and frustum culling reject whole chunks by their sphere.
type Chunk struct {
	// FirstIndex is the offset of the chunk's first index in Mesh.Indices.
	FirstIndex uint32
	// IndexCount is the number of indices in the chunk (3 per triangle).
	IndexCount uint32
	// Center and Radius describe the bounding sphere.
	Center mgl32.Vec3
	Radius float32
}

// Mesh is immutable world-space triangle geometry.
// It may be shared between goroutines once constructed.
type Mesh struct {
	positions []mgl32.Vec3
	indices   []uint32
	chunks    []Chunk
	min, max  mgl32.Vec3
}

// NewMesh validates the triangle list and partitions it into chunks of chunkTriangles triangles.
// A nil index slice treats positions as an unindexed triangle list.
//
// Parameters:
//   - positions: world-space vertex positions
//   - indices: triangle indices, or nil
//   - chunkTriangles: triangles per chunk (<= 0 uses DefaultChunkTriangles)
//
// Returns:
//   - *Mesh: the mesh
//   - error: ErrIndexCount or ErrIndexRange on malformed input
func NewMesh(positions []mgl32.Vec3, indices []uint32, chunkTriangles int) (*Mesh, error) {
	if indices == nil {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrIndexCount, len(indices))
	}
	for i, idx := range indices {
		if int(idx) >= len(positions) {
			return nil, fmt.Errorf("%w: index %d at %d, %d vertices", ErrIndexRange, idx, i, len(positions))
		}
	}
	if chunkTriangles <= 0 {
		chunkTriangles = DefaultChunkTriangles
	}

	m := &Mesh{positions: positions, indices: indices}
	if len(positions) > 0 {
		m.min, m.max = positions[0], positions[0]
		for _, p := range positions[1:] {
			for k := range 3 {
				m.min[k] = min(m.min[k], p[k])
				m.max[k] = max(m.max[k], p[k])
			}
		}
	}

	step := chunkTriangles * 3
	for first := 0; first < len(indices); first += step {
		end := min(first+step, len(indices))
		m.chunks = append(m.chunks, m.boundChunk(first, end))
	}
	return m, nil
}

// boundChunk computes the bounding sphere of indices[first:end] from its AABB.
func (m *Mesh) boundChunk(first, end int) Chunk {
	lo := m.positions[m.indices[first]]
	hi := lo
	for _, idx := range m.indices[first:end] {
		p := m.positions[idx]
		for k := range 3 {
			lo[k] = min(lo[k], p[k])
			hi[k] = max(hi[k], p[k])
		}
	}
	center := lo.Add(hi).Mul(0.5)
	var radius float32
	for _, idx := range m.indices[first:end] {
		radius = max(radius, m.positions[idx].Sub(center).Len())
	}
	return Chunk{
		FirstIndex: uint32(first),
		IndexCount: uint32(end - first),
		Center:     center,
		Radius:     radius + common.Epsilon,
	}
}

// Positions returns the vertex positions. The slice must not be modified.
func (m *Mesh) Positions() []mgl32.Vec3 { return m.positions }

// Indices returns the triangle indices. The slice must not be modified.
func (m *Mesh) Indices() []uint32 { return m.indices }

// Chunks returns the chunk table. The slice must not be modified.
func (m *Mesh) Chunks() []Chunk { return m.chunks }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.indices) / 3 }

// Bounds returns the axis-aligned bounding box of all vertices.
func (m *Mesh) Bounds() (lo, hi mgl32.Vec3) { return m.min, m.max }

// raycastChunk returns the nearest hit in chunk c with distance in [near, far].
func (m *Mesh) raycastChunk(c Chunk, r common.Ray, near, far float32) (common.Hit, bool) {
	best := common.Hit{Distance: far}
	found := false
	end := c.FirstIndex + c.IndexCount
	for i := c.FirstIndex; i < end; i += 3 {
		a := m.positions[m.indices[i]]
		b := m.positions[m.indices[i+1]]
		cc := m.positions[m.indices[i+2]]
		t, ok := r.IntersectTriangle(a, b, cc)
		if !ok || t < near || t > best.Distance {
			continue
		}
		best.Distance = t
		best.Normal = common.SafeNormalize(b.Sub(a).Cross(cc.Sub(a)))
		found = true
	}
	if found {
		best.Point = r.At(best.Distance)
	}
	return best, found
}
