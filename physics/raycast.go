package physics

import (
	"math"
	"sort"

	"github.com/lguibr/voxelrealm/values"
)

// plane is a local-space half-space under the convention normal·p <= offset
// is inside. Grounded on the teacher's point-in-plane / edge-clipping
// idiom (_examples/gazed-vu/physics/clipping.go: cPlane, is_point_in_plane,
// plane_edge_intersection), generalized from polygon clipping to ray
// interval clipping (Cyrus-Beck/Liang-Barsky) so box, wedge, and cylinder
// caps all share one routine.
type plane struct {
	normal values.Vector3
	offset float64
}

const rayEpsilon = 1e-9

// clipRayAgainstPlanes narrows [tmin,tmax] to the sub-interval where the ray
// ro+t*rd stays inside every plane's half-space. A direction component that
// is (near-)zero never tightens the interval for a plane it is parallel to,
// matching spec §4.3's "zero-direction component leaves the slab
// unconstrained" raycast contract.
func clipRayAgainstPlanes(ro, rd values.Vector3, planes []plane, tmin, tmax float64) (float64, float64, bool) {
	for _, p := range planes {
		denom := rd.Dot(p.normal)
		dist := p.offset - ro.Dot(p.normal)
		if math.Abs(denom) < rayEpsilon {
			if dist < 0 {
				return 0, 0, false
			}
			continue
		}
		t := dist / denom
		if denom < 0 {
			if t > tmin {
				tmin = t
			}
		} else if t < tmax {
			tmax = t
		}
		if tmin > tmax {
			return 0, 0, false
		}
	}
	if tmax < 0 {
		return 0, 0, false
	}
	if tmin < 0 {
		tmin = 0
	}
	return tmin, tmax, true
}

func raycastSphere(ro, rd values.Vector3, radius float64) (float64, bool) {
	a := rd.Dot(rd)
	if a < rayEpsilon {
		return 0, false
	}
	b := 2 * ro.Dot(rd)
	c := ro.Dot(ro) - radius*radius
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t1, t2 := (-b-sq)/(2*a), (-b+sq)/(2*a)
	if t2 < 0 {
		return 0, false
	}
	if t1 < 0 {
		return 0, true
	}
	return t1, true
}

func raycastCylinder(ro, rd values.Vector3, radius, halfHeight float64) (float64, bool) {
	a := rd.X*rd.X + rd.Z*rd.Z
	tmin, tmax := 0.0, math.Inf(1)
	if a < rayEpsilon {
		if ro.X*ro.X+ro.Z*ro.Z > radius*radius {
			return 0, false
		}
	} else {
		b := 2 * (ro.X*rd.X + ro.Z*rd.Z)
		c := ro.X*ro.X + ro.Z*ro.Z - radius*radius
		disc := b*b - 4*a*c
		if disc < 0 {
			return 0, false
		}
		sq := math.Sqrt(disc)
		tmin, tmax = (-b-sq)/(2*a), (-b+sq)/(2*a)
	}
	capPlanes := []plane{
		{normal: values.Vector3{Y: 1}, offset: halfHeight},
		{normal: values.Vector3{Y: -1}, offset: halfHeight},
	}
	t0, t1, ok := clipRayAgainstPlanes(ro, rd, capPlanes, tmin, tmax)
	if !ok {
		return 0, false
	}
	if t0 < 0 {
		t0 = t1
		if t0 < 0 {
			return 0, false
		}
	}
	return t0, true
}

// Raycast finds the nearest body hit along origin+t*direction (t >= 0)
// among bodies passing params, honoring true convex shape geometry for
// wedge/cylinder rather than their AABBs (spec §4.3, §9).
func (w *World) Raycast(origin, direction values.Vector3, params QueryParams) (*RaycastHit, bool) {
	w.mu.Lock()
	bodies := make([]*body, 0, len(w.bodies))
	for _, b := range w.bodies {
		bodies = append(bodies, b)
	}
	w.mu.Unlock()

	var best *RaycastHit
	for _, b := range bodies {
		if !b.queries || !params.passes(b) {
			continue
		}
		lo := b.pose.PointToLocal(origin)
		ld := b.pose.VectorToLocal(direction)
		h := b.halfExtents()

		var t float64
		var ok bool
		switch b.shape {
		case values.ShapeBall:
			t, ok = raycastSphere(lo, ld, h.X)
		case values.ShapeCylinder:
			t, ok = raycastCylinder(lo, ld, h.X, h.Y)
		case values.ShapeWedge:
			t, _, ok = clipRayAgainstPlanes(lo, ld, wedgePlanes(h), 0, math.Inf(1))
		default:
			t, _, ok = clipRayAgainstPlanes(lo, ld, boxPlanes(h), 0, math.Inf(1))
		}
		if !ok {
			continue
		}
		if best != nil && t >= best.Distance {
			continue
		}
		localHit := lo.Add(ld.Scale(t))
		worldHit := b.pose.PointToWorld(localHit)
		best = &RaycastHit{
			PartID:   b.id,
			Position: worldHit,
			Normal:   approximateNormal(b, localHit),
			Distance: origin.Distance(worldHit),
		}
	}
	return best, best != nil
}

// approximateNormal picks the local axis the hit point projects farthest
// along, good enough for the script-facing surface normal (no torque or
// friction in this engine reads it).
func approximateNormal(b *body, localHit values.Vector3) values.Vector3 {
	h := b.halfExtents()
	candidates := []struct {
		axis values.Vector3
		frac float64
	}{
		{values.Vector3{X: 1}, math.Abs(localHit.X) / maxf(h.X, rayEpsilon)},
		{values.Vector3{Y: 1}, math.Abs(localHit.Y) / maxf(h.Y, rayEpsilon)},
		{values.Vector3{Z: 1}, math.Abs(localHit.Z) / maxf(h.Z, rayEpsilon)},
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].frac > candidates[j].frac })
	axis := candidates[0].axis
	sign := 1.0
	if axis.X != 0 && localHit.X < 0 {
		sign = -1
	} else if axis.Y != 0 && localHit.Y < 0 {
		sign = -1
	} else if axis.Z != 0 && localHit.Z < 0 {
		sign = -1
	}
	return b.pose.VectorToWorld(axis.Scale(sign))
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
