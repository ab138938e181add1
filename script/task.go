package script

import (
	"time"

	lua "github.com/yuin/gopher-lua"
)

// registerTaskLibrary installs task.spawn/defer/delay/wait/cancel (spec
// §4.2), each a thin wrapper over the scheduler's continuation registry.
func registerTaskLibrary(vm *lua.LState, sched *scheduler) {
	task := vm.NewTable()

	vm.SetField(task, "spawn", vm.NewFunction(func(L *lua.LState) int {
		fn := L.CheckFunction(1)
		id := sched.spawnFunction(fn, extraArgs(L, 2))
		L.Push(lua.LNumber(id))
		return 1
	}))

	vm.SetField(task, "defer", vm.NewFunction(func(L *lua.LState) int {
		fn := L.CheckFunction(1)
		sched.deferCall(fn, extraArgs(L, 2))
		return 0
	}))

	vm.SetField(task, "delay", vm.NewFunction(func(L *lua.LState) int {
		seconds := float64(L.CheckNumber(1))
		fn := L.CheckFunction(2)
		sched.delayCall(time.Duration(seconds*float64(time.Second)), fn, extraArgs(L, 3))
		return 0
	}))

	vm.SetField(task, "wait", vm.NewFunction(func(L *lua.LState) int {
		seconds := 0.0
		if n, ok := L.Get(1).(lua.LNumber); ok {
			seconds = float64(n)
		}
		return L.Yield(lua.LNumber(seconds))
	}))

	vm.SetField(task, "cancel", vm.NewFunction(func(L *lua.LState) int {
		id := uint64(L.CheckNumber(1))
		sched.cancel(id)
		return 0
	}))

	vm.SetGlobal("task", task)
}

// extraArgs collects the variadic arguments to task.spawn/defer/delay
// starting at stack index from.
func extraArgs(L *lua.LState, from int) []lua.LValue {
	top := L.GetTop()
	if from > top {
		return nil
	}
	args := make([]lua.LValue, 0, top-from+1)
	for i := from; i <= top; i++ {
		args = append(args, L.Get(i))
	}
	return args
}
