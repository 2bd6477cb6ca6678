package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// geometry is a mutable triangle list the backends fill before it is frozen into a scene.Mesh.
type geometry struct {
	positions []mgl32.Vec3
	indices   []uint32
}

// append adds a transformed triangle list, rebasing its indices onto the existing vertices.
func (g *geometry) append(positions [][3]float32, indices []uint32, m mgl32.Mat4) error {
	base := uint32(len(g.positions))
	for i, idx := range indices {
		if int(idx) >= len(positions) {
			return fmt.Errorf("%w: index %d at %d, %d vertices", scene.ErrIndexRange, idx, i, len(positions))
		}
	}
	for _, p := range positions {
		g.positions = append(g.positions, mgl32.TransformCoordinate(mgl32.Vec3(p), m))
	}
	for _, idx := range indices {
		g.indices = append(g.indices, base+idx)
	}
	return nil
}

// merge appends another geometry transformed by m.
func (g *geometry) merge(other *geometry, m mgl32.Mat4) {
	base := uint32(len(g.positions))
	for _, p := range other.positions {
		g.positions = append(g.positions, mgl32.TransformCoordinate(p, m))
	}
	for _, idx := range other.indices {
		g.indices = append(g.indices, base+idx)
	}
}

func (g *geometry) triangles() int {
	return len(g.indices) / 3
}

// mesh freezes g. Vertices without faces (point clouds) yield an empty triangle list.
func (g *geometry) mesh(chunkTriangles int) (*scene.Mesh, error) {
	indices := g.indices
	if indices == nil {
		indices = []uint32{}
	}
	return scene.NewMesh(g.positions, indices, chunkTriangles)
}
