// Package math3d collects the xz-plane vector helpers shared by the crowd
// and behavior packages: steering, obstacle avoidance and corridor code all
// reason about agents as points moving on the xz ground plane, with y used
// only for height.
package math3d

import (
	"github.com/aurelien-rainone/gogeo/f32/d3"
	"github.com/aurelien-rainone/math32"
)

// Vec3 is the vector type shared across the engine. It is a direct alias of
// the teacher's own vector representation so that navmesh, crowd and
// behavior code can pass values between packages without conversion.
type Vec3 = d3.Vec3

// New allocates a zeroed Vec3.
func New() Vec3 { return d3.NewVec3() }

// XYZ allocates Vec3{x, y, z}.
func XYZ(x, y, z float32) Vec3 { return d3.NewVec3XYZ(x, y, z) }

// Zero2D builds a vector with a zeroed y component, matching the engine's
// convention of keeping steering math confined to the xz-plane.
func Zero2D(x, z float32) Vec3 { return d3.NewVec3XYZ(x, 0, z) }

// Perp2D returns the xz-plane perpendicular of v (rotate 90° about y).
func Perp2D(v Vec3) Vec3 {
	return d3.NewVec3XYZ(v[2], 0, -v[0])
}

// Normalize2D returns the xz-plane unit vector in the direction of v. The y
// component of the result is always zero. The zero vector is returned
// unchanged.
func Normalize2D(v Vec3) Vec3 {
	d := v[0]*v[0] + v[2]*v[2]
	if d < 1e-12 {
		return d3.NewVec3XYZ(0, 0, 0)
	}
	inv := 1.0 / math32.Sqrt(d)
	return d3.NewVec3XYZ(v[0]*inv, 0, v[2]*inv)
}

// Len2D returns the xz-plane length of v.
func Len2D(v Vec3) float32 {
	return math32.Sqrt(v[0]*v[0] + v[2]*v[2])
}

// Dist2D returns the xz-plane distance between a and b.
func Dist2D(a, b Vec3) float32 {
	dx := b[0] - a[0]
	dz := b[2] - a[2]
	return math32.Sqrt(dx*dx + dz*dz)
}

// Dot2D returns the xz-plane dot product of a and b.
func Dot2D(a, b Vec3) float32 {
	return a[0]*b[0] + a[2]*b[2]
}

// RotatePolar2D rotates the unit vector derived from dir by angle radians
// about the y axis, used to orient the adaptive sampling pattern along the
// agent's desired velocity.
func RotatePolar2D(dir Vec3, angle float32) Vec3 {
	s, c := math32.Sin(angle), math32.Cos(angle)
	return d3.NewVec3XYZ(dir[0]*c-dir[2]*s, 0, dir[0]*s+dir[2]*c)
}

// ClampLength2D returns v scaled down so its xz-plane length does not exceed
// max; v is returned unchanged if it is already within bounds or max <= 0
// guards against division by zero by returning the zero vector in that case.
func ClampLength2D(v Vec3, max float32) Vec3 {
	if max <= 0 {
		return d3.NewVec3XYZ(0, 0, 0)
	}
	l := Len2D(v)
	if l <= max || l < 1e-12 {
		return d3.NewVec3From(v)
	}
	scale := max / l
	return d3.NewVec3XYZ(v[0]*scale, v[1], v[2]*scale)
}

// Lerp2D linearly interpolates between a and b, zeroing y.
func Lerp2D(a, b Vec3, t float32) Vec3 {
	return d3.NewVec3XYZ(a[0]+(b[0]-a[0])*t, 0, a[2]+(b[2]-a[2])*t)
}
