package script

import (
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/voxelrealm/instance"
)

func newTestRuntime(t *testing.T) (*Runtime, *instance.Tree) {
	t.Helper()
	tree := &instance.Tree{}
	workspace := tree.New(instance.ClassWorkspace, "Workspace", nil)
	players := tree.New(instance.ClassPlayers, "Players", nil)
	runService := tree.New(instance.ClassRunService, "RunService", nil)
	dataStore, err := tree.NewInstance(instance.ClassFolder, nil)
	require.NoError(t, err)
	dataStore.SetName("DataStoreService")

	svc := Services{
		Workspace:        workspace,
		Players:          players,
		RunService:       runService,
		DataStoreService: dataStore,
	}
	rt := NewRuntime(tree, svc, ErrorModeHalt, nil)
	t.Cleanup(rt.Close)
	return rt, tree
}

func TestRunSourceExecutesImmediately(t *testing.T) {
	rt, _ := newTestRuntime(t)
	err := rt.RunSource("main", `
		part = Instance.new("Part", game.Workspace)
		part.Name = "Brick"
	`, nil)
	require.NoError(t, err)
	require.False(t, rt.Halted())

	brick := rt.game.FindFirstChild("Brick")
	require.NotNil(t, brick)
	require.Equal(t, instance.ClassPart, brick.Class())
}

func TestTaskWaitSuspendsAndResumes(t *testing.T) {
	rt, _ := newTestRuntime(t)
	err := rt.RunSource("main", `
		done = false
		task.spawn(function()
			task.wait(0.01)
			done = true
		end)
	`, nil)
	require.NoError(t, err)

	require.Equal(t, lua.LFalse, rt.VM().GetGlobal("done"))
	rt.Poll(time.Now().Add(time.Second))
	require.Equal(t, lua.LTrue, rt.VM().GetGlobal("done"))
}

func TestVector3ArithmeticAndAccessors(t *testing.T) {
	rt, _ := newTestRuntime(t)
	err := rt.RunSource("main", `
		a = Vector3.new(1, 2, 3)
		b = Vector3.new(1, 1, 1)
		c = a + b
		x, y, z = c:X(), c:Y(), c:Z()
	`, nil)
	require.NoError(t, err)
	require.Equal(t, lua.LNumber(2), rt.VM().GetGlobal("x"))
	require.Equal(t, lua.LNumber(3), rt.VM().GetGlobal("y"))
	require.Equal(t, lua.LNumber(4), rt.VM().GetGlobal("z"))
}

func TestHaltModeStopsOnScriptError(t *testing.T) {
	rt, _ := newTestRuntime(t)
	err := rt.RunSource("main", `error("boom")`, nil)
	require.NoError(t, err)
	require.True(t, rt.Halted())
	require.Contains(t, rt.HaltedError, "boom")
}

func TestSignalConnectFiresOnDestroy(t *testing.T) {
	rt, _ := newTestRuntime(t)
	err := rt.RunSource("main", `
		part = Instance.new("Part", game.Workspace)
		destroyed = false
		part.Destroying:Connect(function()
			destroyed = true
		end)
		part:Destroy()
	`, nil)
	require.NoError(t, err)
	require.False(t, rt.Halted())
	require.Equal(t, lua.LTrue, rt.VM().GetGlobal("destroyed"))
}

type fakeBroker struct {
	replies map[string]AsyncReply
}

func (b *fakeBroker) Get(store, key string) string {
	b.replies["r1"] = AsyncReply{Value: "hello"}
	return "r1"
}
func (b *fakeBroker) Set(store, key string, value any) string { return "r2" }
func (b *fakeBroker) GetSorted(store string, ascending bool, limit int) string { return "r3" }
func (b *fakeBroker) PollReplies() map[string]AsyncReply {
	out := b.replies
	b.replies = make(map[string]AsyncReply)
	return out
}

func TestDataStoreGetAsyncResumesWithBrokerReply(t *testing.T) {
	rt, _ := newTestRuntime(t)
	rt.SetBroker(&fakeBroker{replies: make(map[string]AsyncReply)})

	err := rt.RunSource("main", `
		store = game.DataStoreService:GetDataStore("scores")
		task.spawn(function()
			value, err = store:GetAsync("best")
		end)
	`, nil)
	require.NoError(t, err)
	rt.Poll(time.Now())
	require.Equal(t, lua.LString("hello"), rt.VM().GetGlobal("value"))
}
