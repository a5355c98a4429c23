// Package geom provides the minimal vector, placement, and mesh machinery the
// reference document kernel needs: axis-angle rotations, primitive
// tessellation, and STL output. Real installations delegate geometry to the
// host CAD kernel; this package exists so the repository is self-contained and
// testable.
package geom

import "math"

// Vec3 is a point or direction in document space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the cross product of v and o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalized returns v scaled to unit length. The zero vector normalizes to
// the +Z axis, matching the rotate operation's axis default.
func (v Vec3) Normalized() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{Z: 1}
	}
	return v.Scale(1 / n)
}

// Rotation is an axis-angle rotation. A zero Rotation is the identity.
type Rotation struct {
	Axis     Vec3    `json:"axis"`
	AngleDeg float64 `json:"angle_deg"`
}

// Apply rotates p about the origin using Rodrigues' formula.
func (r Rotation) Apply(p Vec3) Vec3 {
	if r.AngleDeg == 0 {
		return p
	}
	axis := r.Axis.Normalized()
	theta := r.AngleDeg * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)

	term1 := p.Scale(cos)
	term2 := axis.Cross(p).Scale(sin)
	term3 := axis.Scale(axis.Dot(p) * (1 - cos))
	return term1.Add(term2).Add(term3)
}

// Placement positions an object: rotate about the local origin, then
// translate by Base.
type Placement struct {
	Base     Vec3     `json:"base"`
	Rotation Rotation `json:"rotation"`
}

// Transform maps a point from object-local space into document space.
func (p Placement) Transform(local Vec3) Vec3 {
	return p.Rotation.Apply(local).Add(p.Base)
}
