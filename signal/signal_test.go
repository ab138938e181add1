package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnectFireSync(t *testing.T) {
	s := New()
	got := 0
	s.Connect(func(args ...any) { got = args[0].(int) })
	s.FireSync(nil, 42)
	require.Equal(t, 42, got)
}

func TestOnceAutoDisconnects(t *testing.T) {
	s := New()
	calls := 0
	s.Once(func(args ...any) { calls++ })
	s.FireSync(nil)
	s.FireSync(nil)
	require.Equal(t, 1, calls)
}

func TestDisconnect(t *testing.T) {
	s := New()
	calls := 0
	c := s.Connect(func(args ...any) { calls++ })
	c.Disconnect()
	s.FireSync(nil)
	require.Equal(t, 0, calls)
}

func TestFireSyncRecoversPanic(t *testing.T) {
	s := New()
	var recovered any
	s.Connect(func(args ...any) { panic("boom") })
	s.FireSync(func(r any) { recovered = r })
	require.Equal(t, "boom", recovered)
}

func TestWaitReceivesFireArgs(t *testing.T) {
	s := New()
	done := make(chan []any, 1)
	go func() { done <- s.Wait() }()
	// Give the waiter goroutine a chance to register before firing.
	time.Sleep(10 * time.Millisecond)
	s.FireSync(nil, "hello", 7)
	args := <-done
	require.Equal(t, []any{"hello", 7}, args)
}
