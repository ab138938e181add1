package physics

// Step advances every dynamic body by dt: integrate gravity into velocity,
// integrate position, then settle resting contact against any collidable
// body beneath it. Broad phase prunes pairs by bounding-sphere distance the
// way the teacher's broad.go does (broad_get_collision_pairs), before the
// narrow, shape-exact GJK test gates the settle.
//
// This is a deliberately simple integrator, not a full contact-manifold
// solver (no friction, no angular dynamics, no body-vs-body push resolution
// beyond resting-on-top) — see DESIGN.md for why: the spec's testable
// physics properties only require free-fall under gravity and exact convex
// query/raycast geometry, not multi-body stacking dynamics.
func (w *World) Step(dt float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	dynamics := make([]*body, 0, len(w.bodies))
	statics := make([]*body, 0, len(w.bodies))
	for _, b := range w.bodies {
		if b.kind == BodyDynamic {
			dynamics = append(dynamics, b)
		} else {
			statics = append(statics, b)
		}
	}

	g := w.gravity
	for _, d := range dynamics {
		d.velocity.Y -= g * dt
		d.pose.Position = d.pose.Position.Add(d.velocity.Scale(dt))
	}

	for _, d := range dynamics {
		w.settleDynamic(d, statics)
		w.settleDynamic(d, dynamics)
	}
}

func (w *World) settleDynamic(d *body, others []*body) {
	if !d.collides {
		return
	}
	dMin, dMax := d.aabb()
	dRadius := d.boundingSphereRadius()
	for _, o := range others {
		if o == d || !o.collides {
			continue
		}
		// Broad phase: bounding-sphere distance prune (teacher's
		// broad_get_collision_pairs), before the exact GJK narrow phase.
		if d.pose.Position.Distance(o.pose.Position) > dRadius+o.boundingSphereRadius()+0.1 {
			continue
		}
		oMin, oMax := o.aabb()
		if !aabbOverlap(dMin, dMax, oMin, oMax) {
			continue
		}
		if !gjkOverlap(d.support, o.support) {
			continue
		}
		// Resting contact: if d is falling onto o's top face, snap it to
		// rest there and zero the downward velocity.
		if d.velocity.Y <= 0 && dMin.Y < oMax.Y && dMax.Y > oMax.Y {
			lift := oMax.Y - dMin.Y
			d.pose.Position.Y += lift
			d.velocity.Y = 0
			dMin, dMax = d.aabb()
		}
	}
}
