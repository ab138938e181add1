package manager

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, emptyTimeout time.Duration) *Manager {
	t.Helper()
	metrics := NewMetrics(prometheus.NewRegistry())
	mgr := New(Config{
		MaxPlayersPerInstance: 2,
		MaxInstancesPerGame:   2,
		EmptyTimeout:          emptyTimeout,
		Metrics:               metrics,
	})
	mgr.RegisterGame(GameDef{ID: "game-1"})
	return mgr
}

func TestFindOrCreateRejectsUnknownGame(t *testing.T) {
	mgr := newTestManager(t, time.Minute)
	_, err := mgr.FindOrCreate("ghost-game")
	require.Error(t, err)
}

func TestFindOrCreateReusesInstanceWithCapacity(t *testing.T) {
	mgr := newTestManager(t, time.Minute)

	inst1, err := mgr.FindOrCreate("game-1")
	require.NoError(t, err)
	t.Cleanup(func() { inst1.Close() })

	inst2, err := mgr.FindOrCreate("game-1")
	require.NoError(t, err)
	require.Equal(t, inst1.ID, inst2.ID)
}

func TestFindOrCreateMakesNewInstanceWhenFull(t *testing.T) {
	mgr := newTestManager(t, time.Minute)

	inst1, err := mgr.FindOrCreate("game-1")
	require.NoError(t, err)
	t.Cleanup(func() { inst1.Close() })
	require.NoError(t, inst1.Join("a1", 1, "Alice"))
	require.NoError(t, inst1.Join("a2", 2, "Bob"))

	inst2, err := mgr.FindOrCreate("game-1")
	require.NoError(t, err)
	t.Cleanup(func() { inst2.Close() })
	require.NotEqual(t, inst1.ID, inst2.ID)
}

func TestFindOrCreateRespectsInstanceLimit(t *testing.T) {
	mgr := newTestManager(t, time.Minute)
	mgr.cfg.MaxInstancesPerGame = 1

	inst1, err := mgr.FindOrCreate("game-1")
	require.NoError(t, err)
	t.Cleanup(func() { inst1.Close() })
	require.NoError(t, inst1.Join("a1", 1, "Alice"))
	require.NoError(t, inst1.Join("a2", 2, "Bob"))

	_, err = mgr.FindOrCreate("game-1")
	require.Error(t, err)
}

func TestJoinInstanceValidatesGameAndDuplicateAgent(t *testing.T) {
	mgr := newTestManager(t, time.Minute)
	inst, err := mgr.FindOrCreate("game-1")
	require.NoError(t, err)
	t.Cleanup(func() { inst.Close() })

	_, err = mgr.JoinInstance(inst.ID, "wrong-game", "a1", 1, "Alice")
	require.Error(t, err)

	_, err = mgr.JoinInstance(inst.ID, "game-1", "a1", 1, "Alice")
	require.NoError(t, err)

	_, err = mgr.JoinInstance(inst.ID, "game-1", "a1", 1, "Alice")
	require.Error(t, err)

	_, err = mgr.JoinInstance("missing-id", "game-1", "a2", 2, "Bob")
	require.Error(t, err)
}

func TestLeaveRemovesPlayerAndIndex(t *testing.T) {
	mgr := newTestManager(t, time.Minute)
	inst, err := mgr.FindOrCreate("game-1")
	require.NoError(t, err)
	t.Cleanup(func() { inst.Close() })

	_, err = mgr.JoinInstance(inst.ID, "game-1", "a1", 1, "Alice")
	require.NoError(t, err)

	require.NoError(t, mgr.Leave("a1"))
	require.Error(t, mgr.Leave("a1"))

	_, ok := mgr.InstanceForAgent("a1")
	require.False(t, ok)
}

func TestTickAllPublishesObservationsAndReapsEmptyInstances(t *testing.T) {
	mgr := newTestManager(t, 1*time.Millisecond)
	inst, err := mgr.FindOrCreate("game-1")
	require.NoError(t, err)
	_, err = mgr.JoinInstance(inst.ID, "game-1", "a1", 1, "Alice")
	require.NoError(t, err)

	mgr.TickAll(context.Background())

	obs, err := mgr.GetObservation("a1")
	require.NoError(t, err)
	require.Equal(t, uint64(1), obs.Tick)

	require.NoError(t, mgr.Leave("a1"))
	time.Sleep(2 * time.Millisecond)
	mgr.TickAll(context.Background())

	require.Empty(t, mgr.ListInstances())
}

func TestDestroyInstanceRemovesItImmediately(t *testing.T) {
	mgr := newTestManager(t, time.Minute)
	inst, err := mgr.FindOrCreate("game-1")
	require.NoError(t, err)

	require.True(t, mgr.DestroyInstance(inst.ID))
	require.False(t, mgr.DestroyInstance(inst.ID))
	_, ok := mgr.Instance(inst.ID)
	require.False(t, ok)
}

func TestGetGameInfoReportsCounts(t *testing.T) {
	mgr := newTestManager(t, time.Minute)
	inst, err := mgr.FindOrCreate("game-1")
	require.NoError(t, err)
	t.Cleanup(func() { inst.Close() })
	_, err = mgr.JoinInstance(inst.ID, "game-1", "a1", 1, "Alice")
	require.NoError(t, err)

	def, instanceCount, playerCount, err := mgr.GetGameInfo("game-1")
	require.NoError(t, err)
	require.Equal(t, "game-1", def.ID)
	require.Equal(t, 1, instanceCount)
	require.Equal(t, 1, playerCount)
}
