package script

import lua "github.com/yuin/gopher-lua"

// AsyncRequest is one typed request queued to the async I/O broker (spec
// §4.7): Get/Set/GetSorted over a named store.
type AsyncRequest struct {
	Store     string
	Key       string
	Value     any
	Ascending bool
	Limit     int
}

// AsyncReply is the one-shot result of an AsyncRequest.
type AsyncReply struct {
	Value any
	Err   error
}

// Broker is the narrow interface package asyncio's client handle satisfies.
// script depends only on this so the two packages don't import each other
// (asyncio is wired to a Runtime by package manager/runtime).
type Broker interface {
	Get(store, key string) string
	Set(store, key string, value any) string
	GetSorted(store string, ascending bool, limit int) string
	PollReplies() map[string]AsyncReply
}

// asyncBridge holds completed replies keyed by request id until the
// scheduler resumes the continuation waiting on them, per spec §4.7's
// "awaitable that, when polled, either returns the reply or reports still
// pending".
type asyncBridge struct {
	ready map[string]AsyncReply
}

func newAsyncBridge() *asyncBridge {
	return &asyncBridge{ready: make(map[string]AsyncReply)}
}

// drain pulls every completed reply out of broker into the ready set;
// called once per Runtime.Poll.
func (b *asyncBridge) drain(broker Broker) {
	if broker == nil {
		return
	}
	for id, reply := range broker.PollReplies() {
		b.ready[id] = reply
	}
}

// poll reports whether requestID's reply has arrived, consuming it if so.
// The two returned values are pushed to the resumed continuation as
// (value, err) — Lua's usual async-call convention (spec §4.7).
func (b *asyncBridge) poll(requestID string) (lua.LValue, lua.LValue, bool) {
	reply, ok := b.ready[requestID]
	if !ok {
		return lua.LNil, lua.LNil, false
	}
	delete(b.ready, requestID)
	if reply.Err != nil {
		return lua.LNil, lua.LString(reply.Err.Error()), true
	}
	return goValueToLua(reply.Value), lua.LNil, true
}

// SetBroker attaches the async I/O broker client; DataStoreService methods
// return an AsyncUnavailable-style error (spec §7) when none is attached.
func (rt *Runtime) SetBroker(b Broker) { rt.broker = b }
