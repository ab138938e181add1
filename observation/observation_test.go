package observation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lguibr/voxelrealm/instance"
	"github.com/lguibr/voxelrealm/physics"
	"github.com/lguibr/voxelrealm/values"
)

func newTestWorkspace(t *testing.T) (*instance.Tree, *instance.Node, *instance.Node) {
	t.Helper()
	tree := &instance.Tree{}
	workspace := tree.New(instance.ClassWorkspace, "Workspace", nil)
	players := tree.New(instance.ClassPlayers, "Players", nil)
	return tree, workspace, players
}

func addPlayer(t *testing.T, tree *instance.Tree, players *instance.Node, userID uint64, name string, pos values.Vector3) *instance.Node {
	t.Helper()
	playerNode, err := tree.NewInstance(instance.ClassPlayer, players)
	require.NoError(t, err)
	playerNode.Player.UserID = userID
	playerNode.Player.DisplayName = name

	model, err := tree.NewInstance(instance.ClassModel, nil)
	require.NoError(t, err)
	root, err := tree.NewInstance(instance.ClassPart, model)
	require.NoError(t, err)
	root.SetName("HumanoidRootPart")
	root.Part.SetPosition(pos)
	humanoidNode, err := tree.NewInstance(instance.ClassHumanoid, model)
	require.NoError(t, err)
	humanoidNode.Humanoid.Health = 100

	playerNode.Player.SetCharacter(model)
	return playerNode
}

func TestBuildPlayerIncludesNearbyVisiblePlayersOnly(t *testing.T) {
	tree, workspace, players := newTestWorkspace(t)
	world := physics.NewWorld(physics.DefaultConfig())

	self := addPlayer(t, tree, players, 1, "self", values.Vector3{})
	near := addPlayer(t, tree, players, 2, "near", values.Vector3{X: 10})
	far := addPlayer(t, tree, players, 3, "far", values.Vector3{X: 500})

	observer := Observer{UserID: 1, Node: self}
	others := []Observer{
		{UserID: 1, Node: self},
		{UserID: 2, Node: near},
		{UserID: 3, Node: far},
	}

	obs := BuildPlayer(world, workspace, 1, "running", observer, others)

	require.Equal(t, uint64(1), obs.Player.ID)
	require.Len(t, obs.OtherPlayers, 1)
	require.Equal(t, uint64(2), obs.OtherPlayers[0].ID)
}

func TestBuildPlayerSkipsOccludedPlayers(t *testing.T) {
	tree, workspace, players := newTestWorkspace(t)
	world := physics.NewWorld(physics.DefaultConfig())

	wall, err := tree.NewInstance(instance.ClassPart, workspace)
	require.NoError(t, err)
	wall.Part.SetPosition(values.Vector3{X: 5})
	wall.Part.Size = values.Vector3{X: 1, Y: 20, Z: 20}
	wall.Part.SetAnchored(true)
	world.AddPart(wall.ID(), wall.Part.CFrame, wall.Part.Size, true, true, wall.Part.Shape)

	self := addPlayer(t, tree, players, 1, "self", values.Vector3{})
	behind := addPlayer(t, tree, players, 2, "behind", values.Vector3{X: 10})

	observer := Observer{UserID: 1, Node: self}
	others := []Observer{{UserID: 2, Node: behind}}

	obs := BuildPlayer(world, workspace, 1, "running", observer, others)
	require.Empty(t, obs.OtherPlayers)
}

func TestDynamicEntitiesExcludeStaticTaggedParts(t *testing.T) {
	tree, workspace, _ := newTestWorkspace(t)
	world := physics.NewWorld(physics.DefaultConfig())

	dynamic, err := tree.NewInstance(instance.ClassPart, workspace)
	require.NoError(t, err)
	dynamic.SetName("Crate")

	static, err := tree.NewInstance(instance.ClassPart, workspace)
	require.NoError(t, err)
	static.SetName("Floor")
	static.AddTag("Static")

	observer := Observer{UserID: 1}
	obs := BuildPlayer(world, workspace, 1, "running", observer, nil)

	names := map[string]bool{}
	for _, e := range obs.World.Entities {
		names[e.Name] = true
	}
	require.True(t, names["Crate"])
	require.False(t, names["Floor"])
}

func TestBuildMapReturnsOnlyStaticTaggedParts(t *testing.T) {
	tree, workspace, _ := newTestWorkspace(t)

	floor, err := tree.NewInstance(instance.ClassPart, workspace)
	require.NoError(t, err)
	floor.SetName("Floor")
	floor.AddTag("Static")

	crate, err := tree.NewInstance(instance.ClassPart, workspace)
	require.NoError(t, err)
	crate.SetName("Crate")

	m := BuildMap(workspace)
	require.Len(t, m.Entities, 1)
	require.Equal(t, "Floor", m.Entities[0].Name)
}

func TestBuildSpectatorIncludesAllPlayersAndEntities(t *testing.T) {
	tree, workspace, players := newTestWorkspace(t)

	_, err := tree.NewInstance(instance.ClassPart, workspace)
	require.NoError(t, err)
	addPlayer(t, tree, players, 1, "alice", values.Vector3{X: 1, Y: 2, Z: 3})
	addPlayer(t, tree, players, 2, "bob", values.Vector3{})

	obs := BuildSpectator("instance-1", 5, 1000, "running", workspace, players)

	require.Equal(t, "instance-1", obs.InstanceID)
	require.Equal(t, uint64(5), obs.Tick)
	require.Len(t, obs.Entities, 1)
	require.Len(t, obs.Players, 2)
}

func TestPartEntityOmitsIdentityRotation(t *testing.T) {
	tree, workspace, _ := newTestWorkspace(t)

	part, err := tree.NewInstance(instance.ClassPart, workspace)
	require.NoError(t, err)

	e := partEntity(part)
	require.Nil(t, e.Rotation)
}

func TestVec3RoundsToTwoDecimals(t *testing.T) {
	v := vec3(values.Vector3{X: 1.23456, Y: -0.001, Z: 2.005})
	require.InDelta(t, 1.23, v.X, 1e-9)
	require.InDelta(t, 0, v.Y, 1e-9)
}
