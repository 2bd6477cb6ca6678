package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// NewGrid builds a flat square grid centered on the origin at height y.
// It is the fallback ground when no model is loaded.
//
// Parameters:
//   - size: edge length in world units
//   - divisions: cells per edge (minimum 1)
//   - y: height of the grid plane
//
// Returns:
//   - *Mesh: the grid mesh
func NewGrid(size float32, divisions int, y float32) *Mesh {
	divisions = max(divisions, 1)
	step := size / float32(divisions)
	half := size / 2
	row := divisions + 1

	positions := make([]mgl32.Vec3, 0, row*row)
	for z := range row {
		for x := range row {
			positions = append(positions, mgl32.Vec3{-half + float32(x)*step, y, -half + float32(z)*step})
		}
	}

	indices := make([]uint32, 0, divisions*divisions*6)
	for z := range divisions {
		for x := range divisions {
			i0 := uint32(z*row + x)
			i1 := i0 + 1
			i2 := i0 + uint32(row)
			i3 := i2 + 1
			indices = append(indices, i0, i2, i1, i1, i2, i3)
		}
	}

	m, _ := NewMesh(positions, indices, 0)
	return m
}
