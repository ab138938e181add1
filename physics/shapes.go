package physics

import (
	"math"

	"github.com/lguibr/voxelrealm/values"
)

// support returns the point of b farthest along world-space direction dir,
// the primitive GJK needs; each shape contributes its own support mapping.
// Grounded on the teacher's GJK narrow phase (_examples/gazed-vu/physics/gjk.go),
// which drives an identical loop over a support_point_of_minkowski_difference
// function — here split per shape instead of per rigid-body-pair.
func (b *body) support(dir values.Vector3) values.Vector3 {
	local := b.pose.VectorToLocal(dir)
	h := b.halfExtents()
	switch b.shape {
	case values.ShapeBall:
		r := h.X
		u := local.Unit()
		if u == (values.Vector3{}) {
			u = values.Vector3{X: 1}
		}
		return b.pose.PointToWorld(u.Scale(r))
	case values.ShapeCylinder:
		r, hh := h.X, h.Y
		xz := values.Vector3{X: local.X, Z: local.Z}
		xzLen := xz.Length()
		var rim values.Vector3
		if xzLen > 1e-9 {
			rim = xz.Scale(r / xzLen)
		}
		y := hh
		if local.Y < 0 {
			y = -hh
		}
		return b.pose.PointToWorld(values.Vector3{X: rim.X, Y: y, Z: rim.Z})
	case values.ShapeWedge:
		best, bestDot := wedgeVertices(h)[0], math.Inf(-1)
		for _, v := range wedgeVertices(h) {
			d := v.Dot(local)
			if d > bestDot {
				bestDot, best = d, v
			}
		}
		return b.pose.PointToWorld(best)
	default: // ShapeBox
		v := values.Vector3{
			X: math.Copysign(h.X, local.X),
			Y: math.Copysign(h.Y, local.Y),
			Z: math.Copysign(h.Z, local.Z),
		}
		return b.pose.PointToWorld(v)
	}
}

// wedgeVertices returns the 6 local-space corners of a wedge ramp: a
// triangular prism extruded along X, rising from the back-bottom edge to
// the front-top edge so characters can walk up its slope along +Z.
func wedgeVertices(h values.Vector3) []values.Vector3 {
	tri := []values.Vector3{
		{Y: -h.Y, Z: -h.Z}, // bottom-back
		{Y: -h.Y, Z: h.Z},  // bottom-front
		{Y: h.Y, Z: h.Z},   // top-front
	}
	out := make([]values.Vector3, 0, 6)
	for _, x := range []float64{-h.X, h.X} {
		for _, t := range tri {
			out = append(out, values.Vector3{X: x, Y: t.Y, Z: t.Z})
		}
	}
	return out
}

// wedgePlanes returns the wedge's 5 local-space faces as (normal, offset)
// pairs under the convention normal·p <= offset is inside. Used by the
// generic plane-clipped raycast so wedge tests use true convex geometry
// rather than the shape's AABB (spec §4.3, §9).
// wedgePlanes' 5 faces: two triangular end caps (X+/X-) and three
// rectangular side faces (bottom, front, slope) connecting the cross
// section's three edges. There is no "back" face: the prism comes to an
// edge where bottom and slope meet at z=-hz.
func wedgePlanes(h values.Vector3) []plane {
	return []plane{
		{normal: values.Vector3{X: 1}, offset: h.X},
		{normal: values.Vector3{X: -1}, offset: h.X},
		{normal: values.Vector3{Y: -1}, offset: h.Y},
		{normal: values.Vector3{Z: 1}, offset: h.Z},
		// slope face through bottom-back(-hy,-hz) and top-front(hy,hz),
		// oriented so bottom-front(-hy,+hz) lies inside: normal=(0,hz,-hy),
		// offset=0 in local space (both edge points give hz*y - hy*z = 0).
		{normal: values.Vector3{Y: h.Z, Z: -h.Y}.Unit(), offset: 0},
	}
}

func boxPlanes(h values.Vector3) []plane {
	return []plane{
		{normal: values.Vector3{X: 1}, offset: h.X},
		{normal: values.Vector3{X: -1}, offset: h.X},
		{normal: values.Vector3{Y: 1}, offset: h.Y},
		{normal: values.Vector3{Y: -1}, offset: h.Y},
		{normal: values.Vector3{Z: 1}, offset: h.Z},
		{normal: values.Vector3{Z: -1}, offset: h.Z},
	}
}

// boundingSphereRadius bounds any supported shape, used for the broad phase.
func (b *body) boundingSphereRadius() float64 {
	h := b.halfExtents()
	switch b.shape {
	case values.ShapeBall:
		return h.X
	case values.ShapeCylinder:
		return math.Sqrt(h.X*h.X + h.Y*h.Y)
	default:
		return h.Length()
	}
}

// aabb returns a world-space axis-aligned bounding box, used for the broad
// phase, the simplified resting-contact nudge in Step, and the character
// capsule's push-out and ground sensing — never for the exact
// overlap/raycast contracts, which go through support()/wedgePlanes.
func (b *body) aabb() (min, max values.Vector3) {
	r := b.boundingSphereRadius()
	switch b.shape {
	case values.ShapeBox, values.ShapeWedge:
		h := b.halfExtents()
		corners := []values.Vector3{
			{X: -h.X, Y: -h.Y, Z: -h.Z}, {X: h.X, Y: -h.Y, Z: -h.Z},
			{X: -h.X, Y: h.Y, Z: -h.Z}, {X: h.X, Y: h.Y, Z: -h.Z},
			{X: -h.X, Y: -h.Y, Z: h.Z}, {X: h.X, Y: -h.Y, Z: h.Z},
			{X: -h.X, Y: h.Y, Z: h.Z}, {X: h.X, Y: h.Y, Z: h.Z},
		}
		min = b.pose.PointToWorld(corners[0])
		max = min
		for _, c := range corners[1:] {
			w := b.pose.PointToWorld(c)
			min, max = minVec(min, w), maxVec(max, w)
		}
		return min, max
	default:
		c := b.pose.Position
		return c.Sub(values.NewVector3(r, r, r)), c.Add(values.NewVector3(r, r, r))
	}
}

func minVec(a, b values.Vector3) values.Vector3 {
	return values.Vector3{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}
func maxVec(a, b values.Vector3) values.Vector3 {
	return values.Vector3{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}

func aabbOverlap(aMin, aMax, bMin, bMax values.Vector3) bool {
	return aMin.X <= bMax.X && aMax.X >= bMin.X &&
		aMin.Y <= bMax.Y && aMax.Y >= bMin.Y &&
		aMin.Z <= bMax.Z && aMax.Z >= bMin.Z
}
