package command

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/voxelrealm/manager"
)

func newTestSurface(t *testing.T) *Surface {
	t.Helper()
	mgr := manager.New(manager.Config{
		MaxPlayersPerInstance: 1,
		Metrics:               manager.NewMetrics(prometheus.NewRegistry()),
	})
	mgr.RegisterGame(manager.GameDef{ID: "game-1"})
	return New(mgr)
}

func TestFindOrCreateInstanceReturnsID(t *testing.T) {
	s := newTestSurface(t)
	id, err := s.FindOrCreateInstance("game-1")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = s.FindOrCreateInstance("ghost-game")
	require.Error(t, err)
	ce, ok := AsError(err)
	require.True(t, ok)
	require.Equal(t, KindNotFound, ce.Kind)
}

func TestJoinInstanceClassifiesErrors(t *testing.T) {
	s := newTestSurface(t)
	id, err := s.FindOrCreateInstance("game-1")
	require.NoError(t, err)

	require.NoError(t, s.JoinInstance(id, "game-1", "a1", "Alice", 1))

	err = s.JoinInstance(id, "game-1", "a2", "Bob", 2)
	require.Error(t, err)
	ce, ok := AsError(err)
	require.True(t, ok)
	require.Equal(t, KindCapacityExceeded, ce.Kind)

	err = s.JoinInstance("missing-id", "game-1", "a3", "Carl", 3)
	require.Error(t, err)
	ce, ok = AsError(err)
	require.True(t, ok)
	require.Equal(t, KindNotFound, ce.Kind)

	err = s.JoinInstance(id, "wrong-game", "a4", "Dan", 4)
	require.Error(t, err)
}

func TestQueueInputRejectsUnjoinedAgent(t *testing.T) {
	s := newTestSurface(t)
	err := s.QueueInput("ghost", "Move", nil)
	require.Error(t, err)
	ce, ok := AsError(err)
	require.True(t, ok)
	require.Equal(t, KindNotFound, ce.Kind)
}

func TestLeaveInstanceErrorsWhenNotJoined(t *testing.T) {
	s := newTestSurface(t)
	err := s.LeaveInstance("ghost")
	require.Error(t, err)
	ce, ok := AsError(err)
	require.True(t, ok)
	require.Equal(t, KindNotFound, ce.Kind)
}

func TestGetGameInfoAndListGames(t *testing.T) {
	s := newTestSurface(t)
	_, err := s.FindOrCreateInstance("game-1")
	require.NoError(t, err)

	info, err := s.GetGameInfo("game-1")
	require.NoError(t, err)
	require.Equal(t, "game-1", info.GameID)
	require.Equal(t, 1, info.InstanceCount)

	require.Contains(t, s.ListGames(), "game-1")
}

func TestDestroyInstance(t *testing.T) {
	s := newTestSurface(t)
	id, err := s.FindOrCreateInstance("game-1")
	require.NoError(t, err)

	require.True(t, s.DestroyInstance(id))
	require.False(t, s.DestroyInstance(id))
}
