package physics

import (
	"testing"

	"github.com/lguibr/voxelrealm/values"
	"github.com/stretchr/testify/require"
)

func TestGJKOverlapDetectsBoxBoxOverlapAndSeparation(t *testing.T) {
	a := &body{shape: values.ShapeBox, pose: values.NewCFrameAt(values.Zero3), size: values.NewVector3(2, 2, 2)}
	b := &body{shape: values.ShapeBox, pose: values.NewCFrameAt(values.NewVector3(1.5, 0, 0)), size: values.NewVector3(2, 2, 2)}
	require.True(t, gjkOverlap(a.support, b.support))

	b.pose = values.NewCFrameAt(values.NewVector3(10, 0, 0))
	require.False(t, gjkOverlap(a.support, b.support))
}

func TestGJKOverlapBallVsWedgeOnSlope(t *testing.T) {
	// Wedge ramp centered at origin, half extents (2, 1, 2): rises from
	// z=-2 (bottom) to z=+2 (top) across y in [-1, 1].
	wedge := &body{shape: values.ShapeWedge, pose: values.NewCFrameAt(values.Zero3), size: values.NewVector3(4, 2, 4)}
	// A small ball sitting right at the ramp surface near the low (back)
	// end overlaps the wedge; a ball placed well above the wedge does not.
	onSurface := &body{shape: values.ShapeBall, pose: values.NewCFrameAt(values.NewVector3(0, -0.9, -1.9)), size: values.NewVector3(0.4, 0.4, 0.4)}
	require.True(t, gjkOverlap(wedge.support, onSurface.support))

	farAbove := &body{shape: values.ShapeBall, pose: values.NewCFrameAt(values.NewVector3(0, 5, 0)), size: values.NewVector3(0.4, 0.4, 0.4)}
	require.False(t, gjkOverlap(wedge.support, farAbove.support))
}

func TestGJKOverlapCylinderVsBox(t *testing.T) {
	cyl := &body{shape: values.ShapeCylinder, pose: values.NewCFrameAt(values.Zero3), size: values.NewVector3(2, 4, 2)}
	box := &body{shape: values.ShapeBox, pose: values.NewCFrameAt(values.NewVector3(0.5, 0, 0)), size: values.NewVector3(1, 1, 1)}
	require.True(t, gjkOverlap(cyl.support, box.support))

	box.pose = values.NewCFrameAt(values.NewVector3(5, 0, 0))
	require.False(t, gjkOverlap(cyl.support, box.support))
}
