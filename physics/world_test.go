package physics

import (
	"testing"

	"github.com/lguibr/voxelrealm/values"
	"github.com/stretchr/testify/require"
)

func TestGravityDropFallsAndStaysPositive(t *testing.T) {
	w := NewWorld(DefaultConfig())
	w.AddPart(1, values.NewCFrameAt(values.NewVector3(0, 10, 0)), values.NewVector3(1, 1, 1), false, true, values.ShapeBox)

	dt := 1.0 / 60.0
	for i := 0; i < 60; i++ {
		w.Step(dt)
	}

	pose, ok := w.Pose(1)
	require.True(t, ok)
	require.Less(t, pose.Position.Y, 10.0)
	require.Greater(t, pose.Position.Y, 0.0)

	vel, ok := w.Velocity(1)
	require.True(t, ok)
	require.Less(t, vel.Y, 0.0)
}

func TestRestingContactStopsAtopAnchoredFloor(t *testing.T) {
	w := NewWorld(DefaultConfig())
	w.AddPart(1, values.NewCFrameAt(values.NewVector3(0, 0, 0)), values.NewVector3(20, 1, 20), true, true, values.ShapeBox)
	w.AddPart(2, values.NewCFrameAt(values.NewVector3(0, 2, 0)), values.NewVector3(1, 1, 1), false, true, values.ShapeBox)

	dt := 1.0 / 60.0
	for i := 0; i < 180; i++ {
		w.Step(dt)
	}

	pose, _ := w.Pose(2)
	require.InDelta(t, 1.0, pose.Position.Y, 0.05)
	vel, _ := w.Velocity(2)
	require.Equal(t, 0.0, vel.Y)
}

func TestPartIDsReflectsAddRemove(t *testing.T) {
	w := NewWorld(DefaultConfig())
	w.AddPart(1, values.IdentityCFrame, values.NewVector3(1, 1, 1), true, true, values.ShapeBox)
	require.True(t, w.HasPart(1))
	require.ElementsMatch(t, []uint64{1}, w.PartIDs())

	w.RemovePart(1)
	require.False(t, w.HasPart(1))
	require.Empty(t, w.PartIDs())
}

func TestSetKinematicPositionWithDtDerivesVelocity(t *testing.T) {
	w := NewWorld(DefaultConfig())
	w.AddPart(1, values.NewCFrameAt(values.NewVector3(0, 0, 0)), values.NewVector3(5, 1, 5), true, true, values.ShapeBox)
	w.SetKinematicPositionWithDt(1, values.NewVector3(1, 0, 0), 0.5)

	support, ok := w.GetGroundKinematicSupport(mustAddCharacterAbove(w, 1), 10)
	require.True(t, ok)
	require.InDelta(t, 2.0, support.Velocity.X, 1e-9)
}

func mustAddCharacterAbove(w *World, _ uint64) uint64 {
	w.AddCharacter(100, values.NewVector3(0, 1.5, 0), 0.5, 2)
	return 100
}
