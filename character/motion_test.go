package character

import (
	"math"
	"testing"

	"github.com/lguibr/voxelrealm/values"
	"github.com/stretchr/testify/require"
)

func TestComputeGravityIntegratesWhenAirborne(t *testing.T) {
	plan := Compute(PlanInput{
		Position:         values.NewVector3(0, 10, 0),
		Gravity:          -30,
		Dt:               1.0 / 60,
		Grounded:         false,
		ReachEpsilon:     0.5,
	})
	require.InDelta(t, -0.5, plan.VY, 1e-9)
	require.InDelta(t, -0.5/60.0, plan.Desired.Y, 1e-9)
}

func TestComputeGroundedZeroesDownwardDisplacement(t *testing.T) {
	plan := Compute(PlanInput{
		Position:     values.NewVector3(0, 0, 0),
		Gravity:      -30,
		Dt:           1.0 / 60,
		Grounded:     true,
		ReachEpsilon: 0.5,
	})
	require.Equal(t, 0.0, plan.Desired.Y)
}

func TestComputeJumpSetsVYFromPowerAndHeight(t *testing.T) {
	plan := Compute(PlanInput{
		Gravity:      -30,
		Dt:           1.0 / 60,
		Grounded:     true,
		JumpConsumed: true,
		JumpPower:    50,
		JumpHeight:   7.2,
		ReachEpsilon: 0.5,
	})
	want := math.Min(50, math.Sqrt(2*30*7.2))
	require.InDelta(t, want, plan.VY, 1e-9)
}

func TestComputeHorizontalPursuitReachesWithinEpsilon(t *testing.T) {
	target := values.NewVector3(10, 0, 0)
	plan := Compute(PlanInput{
		Position:     values.NewVector3(0, 0, 0),
		Target:       &target,
		WalkSpeed:    16,
		Gravity:      -30,
		Dt:           1.0 / 60,
		Grounded:     true,
		ReachEpsilon: 0.5,
	})
	require.False(t, plan.Reached)
	require.Greater(t, plan.Desired.X, 0.0)
	require.LessOrEqual(t, plan.Desired.X, 16.0/60+1e-9)

	near := values.NewVector3(0.3, 0, 0)
	plan = Compute(PlanInput{
		Position:     values.NewVector3(0, 0, 0),
		Target:       &near,
		WalkSpeed:    16,
		Gravity:      -30,
		Dt:           1.0 / 60,
		Grounded:     true,
		ReachEpsilon: 0.5,
	})
	require.True(t, plan.Reached)
	require.Equal(t, values.Vector3{}, plan.Desired)
}

func TestComputeCarriedByPlatformAddsPlatformVelocity(t *testing.T) {
	plan := Compute(PlanInput{
		Gravity:           -30,
		Dt:                1.0 / 60,
		Grounded:          true,
		CarriedByPlatform: true,
		PlatformVelocity:  values.NewVector3(6, 0, 0),
		ReachEpsilon:      0.5,
	})
	require.InDelta(t, 6.0/60, plan.Desired.X, 1e-9)
}

func TestResolveVerticalVelocityClampsAfterLanding(t *testing.T) {
	require.Equal(t, 0.0, ResolveVerticalVelocity(-5, true, 0, 0))
	require.Equal(t, 0.0, ResolveVerticalVelocity(5, true, 1.0, 0.01))
	require.Equal(t, 5.0, ResolveVerticalVelocity(5, false, 1.0, 1.0))
}
