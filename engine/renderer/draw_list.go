package renderer

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// drawRange is one DrawIndexed call: a contiguous run of visible chunks of one mesh.
type drawRange struct {
	mesh       *scene.Mesh
	firstIndex uint32
	indexCount uint32
}

// Stats summarizes the most recent frame.
type Stats struct {
	// Draws is the number of indexed draw calls issued.
	Draws int
	// VisibleChunks and CulledChunks partition the chunks of every drawn mesh.
	VisibleChunks int
	CulledChunks  int
	// Triangles is the number of triangles submitted.
	Triangles int
}

// buildDrawList collects the visible chunks of every non-hidden mesh node. Adjacent visible
// chunks of the same mesh are merged into one range. A nil frustum disables culling.
//
// Parameters:
//   - nodes: the scene nodes in draw order
//   - f: the view frustum, or nil
//
// Returns:
//   - []drawRange: the draw calls to issue
//   - Stats: the frame statistics
func buildDrawList(nodes []*scene.Node, f *common.Frustum) ([]drawRange, Stats) {
	var (
		draws []drawRange
		stats Stats
	)
	for _, n := range nodes {
		if n == nil || n.Hidden || n.Mesh == nil || n.Mesh.TriangleCount() == 0 {
			continue
		}
		open := false
		for _, c := range n.Mesh.Chunks() {
			if f != nil && !f.IntersectsSphere(c.Center, c.Radius) {
				stats.CulledChunks++
				open = false
				continue
			}
			stats.VisibleChunks++
			stats.Triangles += int(c.IndexCount / 3)
			if open {
				last := &draws[len(draws)-1]
				if last.firstIndex+last.indexCount == c.FirstIndex {
					last.indexCount += c.IndexCount
					continue
				}
			}
			draws = append(draws, drawRange{mesh: n.Mesh, firstIndex: c.FirstIndex, indexCount: c.IndexCount})
			open = true
		}
	}
	stats.Draws = len(draws)
	return draws, stats
}

// heightRange returns the vertical extent of every visible mesh, used to normalize height shading.
// An empty scene yields [0, 1].
func heightRange(nodes []*scene.Node) (lo, hi float32) {
	found := false
	for _, n := range nodes {
		if n == nil || n.Hidden || n.Mesh == nil || n.Mesh.TriangleCount() == 0 {
			continue
		}
		mlo, mhi := n.Mesh.Bounds()
		if !found {
			lo, hi = mlo.Y(), mhi.Y()
			found = true
			continue
		}
		lo = min(lo, mlo.Y())
		hi = max(hi, mhi.Y())
	}
	if !found || hi-lo < common.Epsilon {
		return lo, lo + 1
	}
	return lo, hi
}

// colorFromHex converts a 0xRRGGBB value to linear-ish [0, 1] channels.
func colorFromHex(rgb uint32) mgl32.Vec4 {
	return mgl32.Vec4{
		float32((rgb>>16)&0xff) / 255,
		float32((rgb>>8)&0xff) / 255,
		float32(rgb&0xff) / 255,
		1,
	}
}
