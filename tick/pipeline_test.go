package tick

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lguibr/voxelrealm/character"
	"github.com/lguibr/voxelrealm/instance"
	"github.com/lguibr/voxelrealm/physics"
	"github.com/lguibr/voxelrealm/script"
	"github.com/lguibr/voxelrealm/values"
)

func newTestContext(t *testing.T) (*Context, *instance.Tree, *instance.Node) {
	t.Helper()
	tree := &instance.Tree{}
	workspace := tree.New(instance.ClassWorkspace, "Workspace", nil)
	players := tree.New(instance.ClassPlayers, "Players", nil)
	runService := tree.New(instance.ClassRunService, "RunService", nil)
	dataStore, err := tree.NewInstance(instance.ClassFolder, nil)
	require.NoError(t, err)
	dataStore.SetName("DataStoreService")

	svc := script.Services{Workspace: workspace, Players: players, RunService: runService, DataStoreService: dataStore}
	rt := script.NewRuntime(tree, svc, script.ErrorModeHalt, nil)
	t.Cleanup(rt.Close)

	world := physics.NewWorld(physics.DefaultConfig())
	ctrl := character.NewController(world)

	ctx := NewContext(tree, workspace, runService, rt, world, ctrl, 300*time.Second)
	return ctx, tree, workspace
}

func TestRunAdvancesTickCountAndTime(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	require.NoError(t, ctx.Run(time.Now(), 30))
	require.Equal(t, uint64(1), ctx.TickCount)
	require.InDelta(t, Dt, ctx.GameTimeS, 1e-9)
}

func TestScriptToPhysicsSyncAddsAndRemovesParts(t *testing.T) {
	ctx, tree, workspace := newTestContext(t)
	part, err := tree.NewInstance(instance.ClassPart, workspace)
	require.NoError(t, err)
	part.Part.SetPosition(values.Vector3{X: 1, Y: 2, Z: 3})

	require.NoError(t, ctx.Run(time.Now(), 30))
	require.True(t, ctx.Physics.HasPart(part.ID()))

	part.Destroy()
	require.NoError(t, ctx.Run(time.Now(), 30))
	require.False(t, ctx.Physics.HasPart(part.ID()))
}

func TestTouchDiffFiresTouchedOnOverlap(t *testing.T) {
	ctx, tree, workspace := newTestContext(t)
	a, err := tree.NewInstance(instance.ClassPart, workspace)
	require.NoError(t, err)
	a.Part.SetPosition(values.Vector3{})
	a.Part.SetAnchored(false)

	// Both unanchored: a pair of anchored non-character parts never fires Touched.
	b, err := tree.NewInstance(instance.ClassPart, workspace)
	require.NoError(t, err)
	b.Part.SetPosition(values.Vector3{})
	b.Part.SetAnchored(false)

	touched := false
	a.Part.Touched.Connect(func(args ...any) {
		touched = true
	})

	for i := 0; i < 3; i++ {
		require.NoError(t, ctx.Run(time.Now(), 30))
	}
	require.True(t, touched)
}

func TestHaltedInstanceStopsTicking(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	ctx.Script.HaltedError = "boom"
	err := ctx.Run(time.Now(), 30)
	require.Error(t, err)
	require.Equal(t, uint64(0), ctx.TickCount)
}

func TestKickDrainRemovesPlayer(t *testing.T) {
	ctx, tree, workspace := newTestContext(t)
	playerNode, err := tree.NewInstance(instance.ClassPlayer, workspace)
	require.NoError(t, err)
	ctx.Players["agent-1"] = &PlayerState{AgentID: "agent-1", PlayerNode: playerNode}

	playerNode.Player.RequestKick()
	ctx.kickDrain()

	_, stillPresent := ctx.Players["agent-1"]
	require.False(t, stillPresent)
}
