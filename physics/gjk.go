package physics

import "github.com/lguibr/voxelrealm/values"

// The narrow-phase overlap test below is the Gilbert-Johnson-Keerthi
// algorithm over a support-function pair, adapted from the teacher's
// per-shape simplex evolution (_examples/gazed-vu/physics/gjk.go:
// gjk_Simplex, add_to_simplex, do_simplex_2/3/4, triple_cross). That
// version special-cased each rigid body pair; this one drives off two
// closures so it works uniformly across box/ball/cylinder/wedge without a
// shape×shape case table.

type simplex struct {
	pts [4]values.Vector3
	n   int
}

func (s *simplex) push(p values.Vector3) {
	for i := s.n; i > 0; i-- {
		s.pts[i] = s.pts[i-1]
	}
	s.pts[0] = p
	s.n++
	if s.n > 4 {
		s.n = 4
	}
}

func tripleCross(a, b, c values.Vector3) values.Vector3 {
	return a.Cross(b).Cross(c)
}

// supportFunc returns the farthest point of a convex shape along dir.
type supportFunc func(dir values.Vector3) values.Vector3

func minkowskiSupport(a, b supportFunc, dir values.Vector3) values.Vector3 {
	return a(dir).Sub(b(dir.Scale(-1)))
}

// gjkOverlap reports whether the Minkowski difference of a and b contains
// the origin, i.e. whether the two convex shapes overlap.
func gjkOverlap(a, b supportFunc) bool {
	dir := values.Vector3{X: 1}
	var s simplex
	p := minkowskiSupport(a, b, dir)
	s.push(p)
	dir = p.Scale(-1)

	for i := 0; i < 64; i++ {
		next := minkowskiSupport(a, b, dir)
		if next.Dot(dir) < 0 {
			return false
		}
		s.push(next)
		var hit bool
		hit, dir = doSimplex(&s, dir)
		if hit {
			return true
		}
	}
	return false
}

func doSimplex(s *simplex, dir values.Vector3) (bool, values.Vector3) {
	switch s.n {
	case 2:
		return doLine(s, dir)
	case 3:
		return doTriangle(s, dir)
	case 4:
		return doTetrahedron(s, dir)
	default:
		return false, dir
	}
}

func doLine(s *simplex, _ values.Vector3) (bool, values.Vector3) {
	a, b := s.pts[0], s.pts[1]
	ao, ab := a.Scale(-1), b.Sub(a)
	if ab.Dot(ao) > 0 {
		return false, tripleCross(ab, ao, ab)
	}
	s.pts[0] = a
	s.n = 1
	return false, ao
}

func doTriangle(s *simplex, _ values.Vector3) (bool, values.Vector3) {
	a, b, c := s.pts[0], s.pts[1], s.pts[2]
	ao := a.Scale(-1)
	ab, ac := b.Sub(a), c.Sub(a)
	abc := ab.Cross(ac)

	if abc.Cross(ac).Dot(ao) > 0 {
		if ac.Dot(ao) > 0 {
			s.pts[0], s.pts[1], s.n = a, c, 2
			return false, tripleCross(ac, ao, ac)
		}
		return doLineAB(s, a, b, ao)
	}
	if ab.Cross(abc).Dot(ao) > 0 {
		return doLineAB(s, a, b, ao)
	}
	if abc.Dot(ao) > 0 {
		s.pts[0], s.pts[1], s.pts[2], s.n = a, b, c, 3
		return false, abc
	}
	s.pts[0], s.pts[1], s.pts[2], s.n = a, c, b, 3
	return false, abc.Scale(-1)
}

func doLineAB(s *simplex, a, b, ao values.Vector3) (bool, values.Vector3) {
	ab := b.Sub(a)
	if ab.Dot(ao) > 0 {
		s.pts[0], s.pts[1], s.n = a, b, 2
		return false, tripleCross(ab, ao, ab)
	}
	s.pts[0], s.n = a, 1
	return false, ao
}

func doTetrahedron(s *simplex, _ values.Vector3) (bool, values.Vector3) {
	a, b, c, d := s.pts[0], s.pts[1], s.pts[2], s.pts[3]
	ao := a.Scale(-1)
	ab, ac, ad := b.Sub(a), c.Sub(a), d.Sub(a)
	abc, acd, adb := ab.Cross(ac), ac.Cross(ad), ad.Cross(ab)

	outside := 0
	if abc.Dot(ao) > 0 {
		outside |= 1
	}
	if acd.Dot(ao) > 0 {
		outside |= 2
	}
	if adb.Dot(ao) > 0 {
		outside |= 4
	}
	if outside == 0 {
		return true, values.Vector3{}
	}
	// Fall back to the face simplex check for whichever face(s) the origin
	// is outside of; re-running doTriangle against that face narrows the
	// simplex and direction for the next iteration.
	if outside&1 != 0 {
		s.pts[0], s.pts[1], s.pts[2], s.n = a, b, c, 3
		return doTriangle(s, ao)
	}
	if outside&2 != 0 {
		s.pts[0], s.pts[1], s.pts[2], s.n = a, c, d, 3
		return doTriangle(s, ao)
	}
	s.pts[0], s.pts[1], s.pts[2], s.n = a, d, b, 3
	return doTriangle(s, ao)
}
