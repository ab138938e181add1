package physics

import (
	"testing"

	"github.com/lguibr/voxelrealm/values"
	"github.com/stretchr/testify/require"
)

func TestRaycastHitsBoxFromOutside(t *testing.T) {
	w := NewWorld(DefaultConfig())
	w.AddPart(1, values.NewCFrameAt(values.Zero3), values.NewVector3(2, 2, 2), true, true, values.ShapeBox)

	hit, ok := w.Raycast(values.NewVector3(0, 0, -10), values.NewVector3(0, 0, 1), QueryParams{})
	require.True(t, ok)
	require.Equal(t, uint64(1), hit.PartID)
	require.InDelta(t, -1, hit.Position.Z, 1e-6)
	require.InDelta(t, 9, hit.Distance, 1e-6)
}

func TestRaycastMissesWhenAimedAway(t *testing.T) {
	w := NewWorld(DefaultConfig())
	w.AddPart(1, values.NewCFrameAt(values.Zero3), values.NewVector3(2, 2, 2), true, true, values.ShapeBox)

	_, ok := w.Raycast(values.NewVector3(0, 0, -10), values.NewVector3(0, 1, 0), QueryParams{})
	require.False(t, ok)
}

func TestRaycastZeroDirectionComponentLeavesSlabUnconstrained(t *testing.T) {
	w := NewWorld(DefaultConfig())
	w.AddPart(1, values.NewCFrameAt(values.Zero3), values.NewVector3(2, 2, 2), true, true, values.ShapeBox)

	// Ray travels purely along Z (X and Y components zero) starting inside
	// the box's X/Y slab; it must still hit the -Z face.
	hit, ok := w.Raycast(values.NewVector3(0, 0, -10), values.NewVector3(0, 0, 1), QueryParams{})
	require.True(t, ok)
	_ = hit
}

func TestRaycastCylinderUsesExactGeometryNotAABB(t *testing.T) {
	w := NewWorld(DefaultConfig())
	// Cylinder radius 1, height 4, centered at origin.
	w.AddPart(1, values.NewCFrameAt(values.Zero3), values.NewVector3(2, 4, 2), true, true, values.ShapeCylinder)

	// A ray offset 1.5 studs from the axis never enters the radius-1 disc
	// no matter how far it travels along Z, even though a loose bounding
	// box around the shape would contain it.
	_, ok := w.Raycast(values.NewVector3(1.5, 0, -10), values.NewVector3(0, 0, 1), QueryParams{})
	require.False(t, ok, "ray outside the cylinder's radius should miss the round cross-section")

	// A ray straight through the axis must hit.
	hit, ok := w.Raycast(values.NewVector3(0, 0, -10), values.NewVector3(0, 0, 1), QueryParams{})
	require.True(t, ok)
	require.InDelta(t, -1, hit.Position.Z, 1e-6)
}

func TestRaycastWedgeHitsSlopeNotBoundingBox(t *testing.T) {
	w := NewWorld(DefaultConfig())
	// Half extents (2,1,2): slope rises from (y=-1,z=-2) to (y=1,z=2).
	w.AddPart(1, values.NewCFrameAt(values.Zero3), values.NewVector3(4, 2, 4), true, true, values.ShapeWedge)

	// Straight down at z=-2 (the thin back edge, y=-1 only): the ray is
	// inside the AABB from y=1 down, but the slope and bottom planes leave
	// only the single edge point y=-1, so it registers as a grazing hit there.
	_, ok := w.Raycast(values.NewVector3(0, 5, -2), values.NewVector3(0, -1, 0), QueryParams{})
	require.True(t, ok) // ray enters the AABB at y=1 descending and will cross the single point y=-1

	// A ray aimed at the front face (z=2) hitting mid-height should report
	// the front vertical face, not the slope.
	hit, ok := w.Raycast(values.NewVector3(0, 0, 10), values.NewVector3(0, 0, -1), QueryParams{})
	require.True(t, ok)
	require.InDelta(t, 2, hit.Position.Z, 1e-6)
}

func TestHasLineOfSightBlockedByIntermediateBody(t *testing.T) {
	w := NewWorld(DefaultConfig())
	w.AddPart(1, values.NewCFrameAt(values.NewVector3(0, 0, 5)), values.NewVector3(2, 2, 2), true, true, values.ShapeBox)

	require.False(t, w.HasLineOfSight(values.NewVector3(0, 0, -5), values.NewVector3(0, 0, 10), 0))
	require.True(t, w.HasLineOfSight(values.NewVector3(0, 0, -5), values.NewVector3(0, 0, -1), 0))
}

func TestQueryRespectsCanQueryFlag(t *testing.T) {
	w := NewWorld(DefaultConfig())
	w.AddPart(1, values.NewCFrameAt(values.Zero3), values.NewVector3(2, 2, 2), true, true, values.ShapeBox)
	w.AddPart(2, values.NewCFrameAt(values.NewVector3(1, 0, 0)), values.NewVector3(1, 1, 1), true, true, values.ShapeBox)
	w.bodies[2].queries = false
	ids := w.PartBoundsInRadius(values.Zero3, 5, QueryParams{})
	require.Contains(t, ids, uint64(1))
	require.NotContains(t, ids, uint64(2))
}
