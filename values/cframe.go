package values

import "math"

// CFrame is an orthonormal 3D frame: a position plus a right-handed rotation
// basis (right, up, back columns), mirroring Roblox's CFrame semantics.
// Composition (Mul) and Inverse follow the standard affine-transform rules so
// that weld propagation (Part1 = F0.Mul(C0).Mul(C1.Inverse())) and CFrame
// math in scripts behave identically to the reference implementation.
type CFrame struct {
	Position Vector3
	// Rotation columns, each a unit vector; together an orthonormal basis.
	Right Vector3
	Up    Vector3
	Back  Vector3
}

// IdentityCFrame is the identity transform at the origin.
var IdentityCFrame = CFrame{
	Position: Vector3{},
	Right:    Vector3{X: 1},
	Up:       Vector3{Y: 1},
	Back:     Vector3{Z: 1},
}

// NewCFrameAt builds an identity-rotation frame at the given position.
func NewCFrameAt(pos Vector3) CFrame {
	c := IdentityCFrame
	c.Position = pos
	return c
}

// CFrameFromYaw builds a frame at pos rotated by yaw radians about the Y axis
// (the rotation the character controller applies when auto-rotating toward
// its motion direction).
func CFrameFromYaw(pos Vector3, yaw float64) CFrame {
	s, c := math.Sin(yaw), math.Cos(yaw)
	// Right-handed rotation about +Y; Back is the +Z-facing column before rotation.
	return CFrame{
		Position: pos,
		Right:    Vector3{X: c, Y: 0, Z: s},
		Up:       Vector3{X: 0, Y: 1, Z: 0},
		Back:     Vector3{X: -s, Y: 0, Z: c},
	}
}

// Yaw extracts the rotation about Y implied by the Back column, inverse of CFrameFromYaw.
func (c CFrame) Yaw() float64 {
	return math.Atan2(-c.Back.X, c.Back.Z)
}

func (c CFrame) vectorToWorld(v Vector3) Vector3 {
	return Vector3{
		X: c.Right.X*v.X + c.Up.X*v.Y + c.Back.X*v.Z,
		Y: c.Right.Y*v.X + c.Up.Y*v.Y + c.Back.Y*v.Z,
		Z: c.Right.Z*v.X + c.Up.Z*v.Y + c.Back.Z*v.Z,
	}
}

// PointToWorld transforms a point from this frame's local space to world space.
func (c CFrame) PointToWorld(p Vector3) Vector3 {
	return c.vectorToWorld(p).Add(c.Position)
}

// VectorToWorld rotates (without translating) a direction from this frame's
// local space to world space. Used by physics to turn local-space shape axes
// and ray directions into world-space ones.
func (c CFrame) VectorToWorld(v Vector3) Vector3 { return c.vectorToWorld(v) }

// VectorToLocal rotates (without translating) a world-space direction into
// this frame's local space; the inverse of VectorToWorld since the rotation
// basis is orthonormal (inverse rotation is the transpose).
func (c CFrame) VectorToLocal(v Vector3) Vector3 {
	return Vector3{X: c.Right.Dot(v), Y: c.Up.Dot(v), Z: c.Back.Dot(v)}
}

// PointToLocal transforms a world-space point into this frame's local space.
func (c CFrame) PointToLocal(p Vector3) Vector3 {
	return c.VectorToLocal(p.Sub(c.Position))
}

// Mul composes two frames: c.Mul(o) applies o in c's local space (c * o).
func (c CFrame) Mul(o CFrame) CFrame {
	return CFrame{
		Position: c.PointToWorld(o.Position),
		Right:    c.vectorToWorld(o.Right),
		Up:       c.vectorToWorld(o.Up),
		Back:     c.vectorToWorld(o.Back),
	}
}

// Inverse returns the frame such that c.Mul(c.Inverse()) == Identity.
// Because the rotation basis is orthonormal, the inverse rotation is the
// transpose; the inverse translation is -R^T * position.
func (c CFrame) Inverse() CFrame {
	// Rows of the inverse (transpose of the column-major basis above).
	rRow := Vector3{X: c.Right.X, Y: c.Right.Y, Z: c.Right.Z}
	uRow := Vector3{X: c.Up.X, Y: c.Up.Y, Z: c.Up.Z}
	bRow := Vector3{X: c.Back.X, Y: c.Back.Y, Z: c.Back.Z}

	invRight := Vector3{X: c.Right.X, Y: c.Up.X, Z: c.Back.X}
	invUp := Vector3{X: c.Right.Y, Y: c.Up.Y, Z: c.Back.Y}
	invBack := Vector3{X: c.Right.Z, Y: c.Up.Z, Z: c.Back.Z}

	p := c.Position
	invPos := Vector3{
		X: -(rRow.X*p.X + rRow.Y*p.Y + rRow.Z*p.Z),
		Y: -(uRow.X*p.X + uRow.Y*p.Y + uRow.Z*p.Z),
		Z: -(bRow.X*p.X + bRow.Y*p.Y + bRow.Z*p.Z),
	}
	return CFrame{Position: invPos, Right: invRight, Up: invUp, Back: invBack}
}

// Lerp interpolates position linearly and holds rotation from c (sufficient
// for the spec's usage: weld propagation and teleport smoothing never need
// spherical rotation interpolation).
func (c CFrame) Lerp(o CFrame, t float64) CFrame {
	r := c
	r.Position = c.Position.Lerp(o.Position, t)
	return r
}
