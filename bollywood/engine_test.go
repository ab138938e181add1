package bollywood

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type echoActor struct {
	received chan interface{}
}

func (a *echoActor) Receive(ctx Context) {
	switch msg := ctx.Message().(type) {
	case string:
		ctx.Reply("echo:" + msg)
	case Started, Stopping, Stopped:
		// ignore lifecycle messages
	default:
		a.received <- msg
	}
}

func TestEngineSpawnSendDeliversToReceive(t *testing.T) {
	engine := NewEngine()
	received := make(chan interface{}, 1)
	pid := engine.Spawn(NewProps(func() Actor { return &echoActor{received: received} }))
	require.NotNil(t, pid)

	engine.Send(pid, 42, nil)
	select {
	case msg := <-received:
		require.Equal(t, 42, msg)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestEngineAskWaitsForReply(t *testing.T) {
	engine := NewEngine()
	pid := engine.Spawn(NewProps(func() Actor { return &echoActor{received: make(chan interface{}, 1)} }))

	reply, err := engine.Ask(pid, "ping", time.Second)
	require.NoError(t, err)
	require.Equal(t, "echo:ping", reply)
}

func TestEngineAskTimesOutWhenNoReply(t *testing.T) {
	engine := NewEngine()
	pid := engine.Spawn(NewProps(func() Actor { return &echoActor{received: make(chan interface{}, 1)} }))

	_, err := engine.Ask(pid, 7, 10*time.Millisecond)
	require.ErrorIs(t, err, ErrAskTimeout)
}

func TestEngineStopPreventsFurtherDelivery(t *testing.T) {
	engine := NewEngine()
	received := make(chan interface{}, 4)
	pid := engine.Spawn(NewProps(func() Actor { return &echoActor{received: received} }))

	engine.Stop(pid)
	time.Sleep(20 * time.Millisecond)
	engine.Send(pid, 1, nil)

	select {
	case <-received:
		t.Fatal("message delivered to stopped actor")
	case <-time.After(30 * time.Millisecond):
	}
}
