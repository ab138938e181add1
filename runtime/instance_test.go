package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewInstanceStartsWaitingAndEmpty(t *testing.T) {
	inst := New(Config{GameID: "g1", MaxPlayers: 2})
	t.Cleanup(inst.Close)

	require.Equal(t, StatusWaiting, inst.Status())
	require.Equal(t, 0, inst.PlayerCount())
	require.NotNil(t, inst.EmptySince())
	require.True(t, inst.HasCapacity())
}

func TestJoinAddsPlayerAndTicksToPlaying(t *testing.T) {
	inst := New(Config{GameID: "g1", MaxPlayers: 2})
	t.Cleanup(inst.Close)

	require.NoError(t, inst.Join("agent-1", 1, "Alice"))
	require.Equal(t, 1, inst.PlayerCount())
	require.Nil(t, inst.EmptySince())

	require.NoError(t, inst.Tick(time.Now()))
	require.Equal(t, StatusPlaying, inst.Status())

	bodyID, playerNode, ok := inst.AgentBody("agent-1")
	require.True(t, ok)
	require.NotZero(t, bodyID)
	require.NotNil(t, playerNode)
}

func TestJoinRejectsDuplicateAgentAndOverCapacity(t *testing.T) {
	inst := New(Config{GameID: "g1", MaxPlayers: 1})
	t.Cleanup(inst.Close)

	require.NoError(t, inst.Join("agent-1", 1, "Alice"))
	require.Error(t, inst.Join("agent-1", 1, "Alice"))
	require.Error(t, inst.Join("agent-2", 2, "Bob"))
	require.False(t, inst.HasCapacity())
}

func TestLeaveIsIdempotentlyErrorOnUnknownAgent(t *testing.T) {
	inst := New(Config{GameID: "g1", MaxPlayers: 2})
	t.Cleanup(inst.Close)

	require.Error(t, inst.Leave("ghost"))

	require.NoError(t, inst.Join("agent-1", 1, "Alice"))
	require.NoError(t, inst.Leave("agent-1"))
	require.Equal(t, 0, inst.PlayerCount())
	require.NotNil(t, inst.EmptySince())
}

func TestQueueInputRejectsUnknownAgent(t *testing.T) {
	inst := New(Config{GameID: "g1", MaxPlayers: 2})
	t.Cleanup(inst.Close)

	require.Error(t, inst.QueueInput("ghost", "Move", nil))

	require.NoError(t, inst.Join("agent-1", 1, "Alice"))
	require.NoError(t, inst.QueueInput("agent-1", "Move", map[string]any{"x": 1.0}))
}

func TestCharacterDefaultsApplyWhenConfigZero(t *testing.T) {
	inst := New(Config{GameID: "g1", MaxPlayers: 2})
	t.Cleanup(inst.Close)
	require.Equal(t, 0.5, inst.characterRadius)
	require.Equal(t, 2.0, inst.characterHeight)
	require.Equal(t, 16.0, inst.walkSpeed)
	require.Equal(t, 7.2, inst.jumpHeight)
}

func TestCharacterConfigOverridesDefaults(t *testing.T) {
	inst := New(Config{GameID: "g1", MaxPlayers: 2, CharacterRadius: 1.0, CharacterHeight: 3.0, WalkSpeed: 20, JumpHeight: 10})
	t.Cleanup(inst.Close)
	require.Equal(t, 1.0, inst.characterRadius)
	require.Equal(t, 3.0, inst.characterHeight)
	require.Equal(t, 20.0, inst.walkSpeed)
	require.Equal(t, 10.0, inst.jumpHeight)
}
