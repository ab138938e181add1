package physics

import "github.com/lguibr/voxelrealm/values"

func boxSupport(pose values.CFrame, half values.Vector3) supportFunc {
	return func(dir values.Vector3) values.Vector3 {
		local := pose.VectorToLocal(dir)
		v := values.Vector3{
			X: signedExtent(half.X, local.X),
			Y: signedExtent(half.Y, local.Y),
			Z: signedExtent(half.Z, local.Z),
		}
		return pose.PointToWorld(v)
	}
}

func signedExtent(half, comp float64) float64 {
	if comp < 0 {
		return -half
	}
	return half
}

func sphereSupport(center values.Vector3, radius float64) supportFunc {
	return func(dir values.Vector3) values.Vector3 {
		u := dir.Unit()
		if u == (values.Vector3{}) {
			u = values.Vector3{X: 1}
		}
		return center.Add(u.Scale(radius))
	}
}

// PartBoundsInBox returns parts whose collider overlaps an oriented query
// box, via the same GJK test bodies use against each other.
func (w *World) PartBoundsInBox(frame values.CFrame, size values.Vector3, params QueryParams) []uint64 {
	half := values.Vector3{X: size.X / 2, Y: size.Y / 2, Z: size.Z / 2}
	q := boxSupport(frame, half)
	return w.queryOverlap(q, params)
}

// PartBoundsInRadius returns parts overlapping a world-space sphere.
func (w *World) PartBoundsInRadius(center values.Vector3, radius float64, params QueryParams) []uint64 {
	q := sphereSupport(center, radius)
	return w.queryOverlap(q, params)
}

// PartsInPart returns parts overlapping the given body's own collider.
func (w *World) PartsInPart(id uint64, params QueryParams) []uint64 {
	w.mu.Lock()
	target, ok := w.bodies[id]
	w.mu.Unlock()
	if !ok {
		return nil
	}
	return w.queryOverlap(target.support, params)
}

func (w *World) queryOverlap(q supportFunc, params QueryParams) []uint64 {
	w.mu.Lock()
	bodies := make([]*body, 0, len(w.bodies))
	for _, b := range w.bodies {
		bodies = append(bodies, b)
	}
	w.mu.Unlock()

	var hits []uint64
	for _, b := range bodies {
		if !b.queries || !params.passes(b) {
			continue
		}
		if gjkOverlap(q, b.support) {
			hits = append(hits, b.id)
			if params.MaxParts > 0 && len(hits) >= params.MaxParts {
				break
			}
		}
	}
	return hits
}

// HasLineOfSight reports whether a ray from "from" to "to" reaches "to"
// without any collidable, queryable body in between (excluding excludeBody,
// typically the observer's own HumanoidRootPart).
func (w *World) HasLineOfSight(from, to values.Vector3, excludeBody uint64) bool {
	dir := to.Sub(from)
	dist := dir.Length()
	if dist < rayEpsilon {
		return true
	}
	hit, ok := w.Raycast(from, dir, QueryParams{
		FilterMode:        FilterExclude,
		FilterInstances:   []uint64{excludeBody},
		RespectCanCollide: true,
	})
	if !ok {
		return true
	}
	return hit.Distance >= dist-1e-6
}
