package script

import (
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/lguibr/voxelrealm/signal"
)

// continuation is a suspended script execution a scheduler pass can resume,
// per spec §9's "thread-safe registry of suspended continuations keyed by a
// registry handle". Each one owns its own Lua thread (gopher-lua coroutine)
// so a yield inside it never blocks any other continuation or the tick
// thread itself.
type continuation struct {
	id        uint64
	thread    *lua.LState
	wakeAt     time.Time // zero means "ready on next poll"
	cancelled bool
	pendingKey string              // non-"" while suspended on an asyncio reply (see asyncbridge.go)
	waitCh     chan []lua.LValue // non-nil while suspended on a Signal:Wait() (see instance.go)
}

// scheduler implements task.{spawn,defer,delay,wait,cancel} and the per-pass
// drain described in spec §4.2/§9: a cancellation check, a one-shot async
// result check, a Signal:Wait() check, and a wake-time check, in that order.
type scheduler struct {
	rt       *Runtime
	nextID   uint64
	pending  map[uint64]*continuation
	deferred []func()
}

func newScheduler(rt *Runtime) *scheduler {
	return &scheduler{rt: rt, pending: make(map[uint64]*continuation)}
}

// spawnFunction runs fn immediately in a fresh continuation (task.spawn).
// If it yields, the continuation is tracked under the handle returned.
func (s *scheduler) spawnFunction(fn *lua.LFunction, args []lua.LValue) uint64 {
	th := s.rt.vm.NewThread()
	return s.resume(th, fn, args)
}

// resume drives th through one Resume step, storing it back into the
// pending table if it yielded. A returned id of 0 means the call already
// finished (no continuation left to track).
func (s *scheduler) resume(th *lua.LState, fn *lua.LFunction, args []lua.LValue) uint64 {
	state, values, err := s.rt.vm.Resume(th, fn, args...)
	if err != nil {
		s.rt.reportError("coroutine", err)
		return 0
	}
	switch state {
	case lua.ResumeYield:
		s.nextID++
		id := s.nextID
		c := &continuation{id: id, thread: th}
		applyYieldDirective(c, values)
		s.pending[id] = c
		return id
	default: // ResumeOK: the continuation ran to completion.
		return 0
	}
}

// resumeExisting continues an already-yielded continuation with the given
// resume values (the result task.wait/a signal Wait()/an async reply
// delivers to it).
func (s *scheduler) resumeExisting(c *continuation, resumeValues []lua.LValue) {
	state, values, err := s.rt.vm.Resume(c.thread, nil, resumeValues...)
	if err != nil {
		s.rt.reportError("coroutine", err)
		delete(s.pending, c.id)
		return
	}
	if state == lua.ResumeYield {
		applyYieldDirective(c, values)
		return
	}
	delete(s.pending, c.id)
}

// applyYieldDirective interprets what a yielding Go-backed call (task.wait,
// a pending asyncio future, Signal.Wait) asked the scheduler for.
func applyYieldDirective(c *continuation, values []lua.LValue) {
	c.wakeAt = time.Time{}
	c.pendingKey = ""
	c.waitCh = nil
	if len(values) == 0 {
		return
	}
	switch v := values[0].(type) {
	case lua.LNumber:
		c.wakeAt = time.Now().Add(time.Duration(float64(v) * float64(time.Second)))
	case lua.LString:
		c.pendingKey = string(v)
	case *lua.LUserData:
		if wt, ok := v.Value.(*waitToken); ok {
			c.waitCh = wt.ch
		}
	}
}

// deferCall schedules fn to run at the next tick boundary (task.defer).
func (s *scheduler) deferCall(fn *lua.LFunction, args []lua.LValue) {
	s.deferred = append(s.deferred, func() { s.spawnFunction(fn, args) })
}

// delayCall schedules fn to resume after d real seconds (task.delay): spawn
// it immediately inside a thread that yields for d seconds up front.
func (s *scheduler) delayCall(d time.Duration, fn *lua.LFunction, args []lua.LValue) {
	wrapper, err := s.rt.vm.LoadString("local d, f = ...; coroutine.yield(d); return f(select(3, ...))")
	if err != nil {
		s.rt.reportError("task.delay", err)
		return
	}
	th := s.rt.vm.NewThread()
	id := s.resume(th, wrapper, append([]lua.LValue{lua.LNumber(d.Seconds()), fn}, args...))
	if id == 0 {
		return
	}
	s.pending[id].wakeAt = time.Now().Add(d)
}

// cancel marks the continuation referenced by handle cancelled; the next
// poll pass discards it without resuming (task.cancel).
func (s *scheduler) cancel(id uint64) {
	if c, ok := s.pending[id]; ok {
		c.cancelled = true
	}
}

// poll runs the deferred queue, then drains the pending table: wake-time,
// one-shot async result, and cancellation, per spec §9.
func (s *scheduler) poll(now time.Time) {
	deferred := s.deferred
	s.deferred = nil
	for _, fn := range deferred {
		fn()
	}

	for id, c := range s.pending {
		if c.cancelled {
			delete(s.pending, id)
			continue
		}
		if c.pendingKey != "" {
			if value, errv, ok := s.rt.asyncBridge.poll(c.pendingKey); ok {
				s.resumeExisting(c, []lua.LValue{value, errv})
			}
			continue
		}
		if c.waitCh != nil {
			select {
			case args := <-c.waitCh:
				s.resumeExisting(c, args)
			default:
			}
			continue
		}
		if !c.wakeAt.IsZero() && now.Before(c.wakeAt) {
			continue
		}
		elapsed := 0.0
		if !c.wakeAt.IsZero() {
			elapsed = float64(now.Sub(c.wakeAt)) / float64(time.Second)
		}
		s.resumeExisting(c, []lua.LValue{lua.LNumber(elapsed)})
	}
}

// fireSignalCoroutine fires sig's connections "as coroutines" (spec §4.2):
// each connected handler already resumes via its own Lua thread (see
// luaHandler), so no extra goroutine wrapping is needed here.
func (s *scheduler) fireSignalCoroutine(sig *signal.Signal, args ...any) {
	sig.FireCoroutine(func(fn func()) { fn() }, s.rt.onCallbackError, args...)
}

// luaHandler adapts a Lua callback into the Go closure signal.Connect
// expects, driving it through a fresh thread so a yield inside the callback
// suspends only that callback's continuation.
func (rt *Runtime) luaHandler(fn *lua.LFunction) func(args ...any) {
	return func(args ...any) {
		th := rt.vm.NewThread()
		rt.sched.resume(th, fn, toLuaValues(rt.vm, args))
	}
}

// onCallbackError implements the Continue/Halt policy for signal handler
// panics surfaced through invokeGuarded's recover().
func (rt *Runtime) onCallbackError(recovered any) {
	if recovered == nil {
		return
	}
	rt.reportError("callback", fmt.Errorf("%v", recovered))
}
