package values

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCFrameInverseIdentity(t *testing.T) {
	c := CFrameFromYaw(Vector3{X: 3, Y: 1, Z: -2}, 0.7)
	roundTrip := c.Mul(c.Inverse())

	require.InDelta(t, 0, roundTrip.Position.X, 1e-9)
	require.InDelta(t, 0, roundTrip.Position.Y, 1e-9)
	require.InDelta(t, 0, roundTrip.Position.Z, 1e-9)
	require.InDelta(t, 1, roundTrip.Right.X, 1e-9)
	require.InDelta(t, 1, roundTrip.Up.Y, 1e-9)
	require.InDelta(t, 1, roundTrip.Back.Z, 1e-9)
}

func TestCFrameYawRoundTrip(t *testing.T) {
	for _, yaw := range []float64{0, 0.3, 1.2, -2.1} {
		c := CFrameFromYaw(Vector3{}, yaw)
		require.InDelta(t, yaw, c.Yaw(), 1e-9)
	}
}

func TestWeldComposition(t *testing.T) {
	// Part0 at origin facing forward; C0 offsets a unit up, C1 is identity.
	f0 := NewCFrameAt(Vector3{X: 0, Y: 0, Z: 0})
	c0 := NewCFrameAt(Vector3{X: 0, Y: 1, Z: 0})
	c1 := IdentityCFrame

	part1 := f0.Mul(c0).Mul(c1.Inverse())
	require.InDelta(t, 0, part1.Position.X, 1e-9)
	require.InDelta(t, 1, part1.Position.Y, 1e-9)
	require.InDelta(t, 0, part1.Position.Z, 1e-9)
}

func TestVector3DistanceXZ(t *testing.T) {
	a := Vector3{X: 0, Y: 100, Z: 0}
	b := Vector3{X: 3, Y: -50, Z: 4}
	require.InDelta(t, 5, a.DistanceXZ(b), 1e-9)
}

func TestRound2(t *testing.T) {
	v := Vector3{X: 1.005, Y: -2.0001, Z: 0.125}.Round2()
	require.True(t, math.Abs(v.X-1.01) < 1e-9 || math.Abs(v.X-1.0) < 1e-9)
	require.InDelta(t, -2.0, v.Y, 1e-9)
	require.InDelta(t, 0.13, v.Z, 1e-9)
}
