// Package values implements the immutable math and tagged-enum value types
// exposed to scripts: Vector3, CFrame, UDim2, Color3, and the closed enums.
package values

import "math"

// Vector3 is an immutable 3-component vector (position, velocity, or direction).
type Vector3 struct {
	X, Y, Z float64
}

// Zero3 is the additive identity.
var Zero3 = Vector3{}

func NewVector3(x, y, z float64) Vector3 { return Vector3{X: x, Y: y, Z: z} }

func (v Vector3) Add(o Vector3) Vector3 { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vector3) Sub(o Vector3) Vector3 { return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vector3) Scale(s float64) Vector3 { return Vector3{v.X * s, v.Y * s, v.Z * s} }

func (v Vector3) Dot(o Vector3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vector3) LengthSq() float64 { return v.Dot(v) }
func (v Vector3) Length() float64   { return math.Sqrt(v.LengthSq()) }

// Unit returns the normalized vector, or the zero vector if v has zero length.
func (v Vector3) Unit() Vector3 {
	l := v.Length()
	if l < 1e-12 {
		return Vector3{}
	}
	return v.Scale(1 / l)
}

func (v Vector3) Distance(o Vector3) float64 { return v.Sub(o).Length() }

// DistanceXZ is the horizontal (ground-plane) distance, used by MoveTo reach checks.
func (v Vector3) DistanceXZ(o Vector3) float64 {
	dx, dz := v.X-o.X, v.Z-o.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// Lerp linearly interpolates toward o by t in [0, 1].
func (v Vector3) Lerp(o Vector3, t float64) Vector3 {
	return Vector3{
		X: v.X + (o.X-v.X)*t,
		Y: v.Y + (o.Y-v.Y)*t,
		Z: v.Z + (o.Z-v.Z)*t,
	}
}

// Round2 rounds each component to 2 decimal places, the only lossy transform
// observations apply on the wire.
func (v Vector3) Round2() Vector3 {
	return Vector3{round2(v.X), round2(v.Y), round2(v.Z)}
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
