package asyncio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lguibr/voxelrealm/bollywood"
	"github.com/lguibr/voxelrealm/script"
)

func newTestBroker(t *testing.T) *Broker {
	t.Helper()
	engine := bollywood.NewEngine()
	t.Cleanup(func() { engine.Shutdown(time.Second) })
	return NewBroker(engine, time.Second)
}

func waitForReply(t *testing.T, b *Broker, id string) script.AsyncReply {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		replies := b.PollReplies()
		if r, ok := replies[id]; ok {
			return r
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("reply %s never arrived", id)
	return script.AsyncReply{}
}

func TestSetThenGetRoundTrips(t *testing.T) {
	b := newTestBroker(t)

	setID := b.Set("players", "alice", 42.0)
	setReply := waitForReply(t, b, setID)
	require.NoError(t, setReply.Err)

	getID := b.Get("players", "alice")
	getReply := waitForReply(t, b, getID)
	require.NoError(t, getReply.Err)
	require.Equal(t, 42.0, getReply.Value)
}

func TestGetMissingKeyReturnsError(t *testing.T) {
	b := newTestBroker(t)
	id := b.Get("players", "ghost")
	reply := waitForReply(t, b, id)
	require.Error(t, reply.Err)
}

func TestGetSortedOrdersAndLimits(t *testing.T) {
	b := newTestBroker(t)
	for _, name := range []string{"charlie", "alice", "bob"} {
		waitForReply(t, b, b.Set("scores", name, name))
	}

	id := b.GetSorted("scores", true, 2)
	reply := waitForReply(t, b, id)
	require.NoError(t, reply.Err)
	values, ok := reply.Value.([]any)
	require.True(t, ok)
	require.Equal(t, []any{"alice", "bob"}, values)
}

func TestPollRepliesDrainsOnlyOnce(t *testing.T) {
	b := newTestBroker(t)
	id := b.Set("store", "key", "value")
	waitForReply(t, b, id)

	replies := b.PollReplies()
	require.Nil(t, replies)
}
