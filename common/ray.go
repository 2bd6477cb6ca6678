package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Ray is a half-line starting at Origin and travelling along the unit vector Direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// NewRay builds a Ray with a normalized direction.
// A zero direction produces a degenerate ray that never intersects anything.
//
// Parameters:
//   - origin: start point of the ray
//   - direction: travel direction (need not be unit length)
//
// Returns:
//   - Ray: the constructed ray
func NewRay(origin, direction mgl32.Vec3) Ray {
	return Ray{Origin: origin, Direction: SafeNormalize(direction)}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Degenerate reports whether the ray has no usable direction.
func (r Ray) Degenerate() bool {
	return r.Direction.Len() < Epsilon
}

// Hit describes the nearest intersection found by a raycast.
type Hit struct {
	// Distance is the ray parameter of the intersection.
	Distance float32
	// Point is the world-space intersection point.
	Point mgl32.Vec3
	// Normal is the geometric normal of the hit triangle.
	Normal mgl32.Vec3
	// Object names the scene node that was hit.
	Object string
}

// IntersectTriangle tests the ray against triangle (a, b, c) using the Möller-Trumbore algorithm.
// Triangles are double sided so walkable surfaces are found regardless of winding.
//
// Parameters:
//   - a, b, c: triangle vertices
//
// Returns:
//   - float32: the ray parameter of the hit
//   - bool: true if the ray hits the triangle at t >= 0
func (r Ray) IntersectTriangle(a, b, c mgl32.Vec3) (float32, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	// det scales with the edge lengths; the threshold does too so small triangles still hit.
	if math32.Abs(det) <= Epsilon*e1.Len()*e2.Len() {
		return 0, false
	}
	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

// IntersectsSphere reports whether the ray passes within radius of center somewhere in [0, far].
//
// Parameters:
//   - center: sphere center
//   - radius: sphere radius
//   - far: the maximum ray parameter of interest
//
// Returns:
//   - bool: true if the segment touches the sphere
func (r Ray) IntersectsSphere(center mgl32.Vec3, radius, far float32) bool {
	oc := center.Sub(r.Origin)
	along := oc.Dot(r.Direction)
	if along < -radius || along > far+radius {
		return false
	}
	distSq := oc.Dot(oc) - along*along
	return distSq <= radius*radius
}
