package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/lguibr/voxelrealm/instance"
)

// moduleLoader implements require(moduleScript) with cycle detection and a
// module cache keyed by the ModuleScript's scene-tree id (spec §4.2, grounded
// on original_source's module system: require takes the instance itself,
// never a path string, since the scene tree is the only namespace).
type moduleLoader struct {
	rt      *Runtime
	cache   map[uint64]lua.LValue
	loading map[uint64]bool
}

func newModuleLoader(rt *Runtime) *moduleLoader {
	return &moduleLoader{
		rt:      rt,
		cache:   make(map[uint64]lua.LValue),
		loading: make(map[uint64]bool),
	}
}

// registerRequire installs the global require(moduleScript) function.
func registerRequire(vm *lua.LState, mods *moduleLoader) {
	vm.SetGlobal("require", vm.NewFunction(func(L *lua.LState) int {
		ud, ok := L.Get(1).(*lua.LUserData)
		if !ok {
			L.RaiseError("require: argument is not a ModuleScript instance")
			return 0
		}
		node, ok := ud.Value.(*instance.Node)
		if !ok || node.ScriptSource == nil || !node.IsA(string(instance.ClassModuleScript)) {
			L.RaiseError("require: argument is not a ModuleScript instance")
			return 0
		}
		val, err := mods.load(L, node)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		L.Push(val)
		return 1
	}))
}

// load runs node's source to completion and caches its single return value,
// rejecting a require cycle rather than recursing forever.
func (m *moduleLoader) load(L *lua.LState, node *instance.Node) (lua.LValue, error) {
	id := node.ID()
	if v, ok := m.cache[id]; ok {
		return v, nil
	}
	if m.loading[id] {
		return nil, fmt.Errorf("require: cyclic dependency through %q", node.Name())
	}
	m.loading[id] = true
	defer delete(m.loading, id)

	fn, err := L.LoadString(node.ScriptSource.Source)
	if err != nil {
		return nil, fmt.Errorf("require %s: parse error: %w", node.Name(), err)
	}
	// ModuleScripts run synchronously to completion; they may not yield
	// (spec §4.2), so this is a plain protected call, not a coroutine.
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}); err != nil {
		return nil, fmt.Errorf("require %s: %w", node.Name(), err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	m.cache[id] = ret
	return ret, nil
}
