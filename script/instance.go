package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/lguibr/voxelrealm/instance"
	"github.com/lguibr/voxelrealm/signal"
	"github.com/lguibr/voxelrealm/values"
)

const (
	nodeMetaName   = "Instance"
	signalMetaName = "Signal"
)

// waitToken is the sentinel a Signal:Wait() yield carries back to the
// scheduler (see applyYieldDirective): ch receives the fired arguments
// exactly once, from whatever goroutine calls FireSync/FireCoroutine.
type waitToken struct {
	ch chan []lua.LValue
}

func wrapNode(L *lua.LState, n *instance.Node) lua.LValue {
	if n == nil {
		return lua.LNil
	}
	ud := L.NewUserData()
	ud.Value = n
	ud.Metatable = L.GetTypeMetatable(nodeMetaName)
	return ud
}

func checkNode(L *lua.LState, n int) *instance.Node {
	ud := L.CheckUserData(n)
	node, _ := ud.Value.(*instance.Node)
	return node
}

func wrapSignal(L *lua.LState, sig *signal.Signal) lua.LValue {
	if sig == nil {
		return lua.LNil
	}
	ud := L.NewUserData()
	ud.Value = sig
	ud.Metatable = L.GetTypeMetatable(signalMetaName)
	return ud
}

func checkSignal(L *lua.LState, n int) *signal.Signal {
	ud := L.CheckUserData(n)
	sig, _ := ud.Value.(*signal.Signal)
	return sig
}

// registerInstanceFactory installs the Instance.new(className, parent)
// factory and the Instance/Node metatable (spec §4.2, §3).
func registerInstanceFactory(vm *lua.LState, rt *Runtime) {
	registerSignalType(vm, rt)

	mt := vm.NewTypeMetatable(nodeMetaName)
	vm.SetField(mt, "__index", vm.NewFunction(func(L *lua.LState) int { return nodeIndex(L, rt) }))
	vm.SetField(mt, "__newindex", vm.NewFunction(nodeNewIndex))

	ctor := vm.NewTable()
	vm.SetField(ctor, "new", vm.NewFunction(func(L *lua.LState) int {
		class := L.CheckString(1)
		var parent *instance.Node
		if ud, ok := L.Get(2).(*lua.LUserData); ok {
			parent, _ = ud.Value.(*instance.Node)
		}
		n, err := rt.tree.NewInstance(instance.ClassName(class), parent)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		L.Push(wrapNode(L, n))
		return 1
	}))
	vm.SetGlobal("Instance", ctor)
}

// registerSignalType installs the Signal metatable: Connect, Once,
// Disconnect (via the returned connection), and Wait (spec §4.2).
func registerSignalType(vm *lua.LState, rt *Runtime) {
	mt := vm.NewTypeMetatable(signalMetaName)
	methods := vm.NewTable()
	vm.SetField(mt, "__index", methods)

	connMT := vm.NewTypeMetatable("SignalConnection")
	vm.SetField(connMT, "__index", vm.SetFuncs(vm.NewTable(), map[string]lua.LGFunction{
		"Disconnect": func(L *lua.LState) int {
			if conn, ok := L.CheckUserData(1).Value.(*signal.Connection); ok {
				conn.Disconnect()
			}
			return 0
		},
	}))
	pushConn := func(L *lua.LState, conn *signal.Connection) int {
		L.Push(&lua.LUserData{Value: conn, Metatable: connMT})
		return 1
	}

	vm.SetField(methods, "Connect", vm.NewFunction(func(L *lua.LState) int {
		sig := checkSignal(L, 1)
		fn := L.CheckFunction(2)
		return pushConn(L, sig.Connect(rt.luaHandler(fn)))
	}))
	vm.SetField(methods, "Once", vm.NewFunction(func(L *lua.LState) int {
		sig := checkSignal(L, 1)
		fn := L.CheckFunction(2)
		return pushConn(L, sig.Once(rt.luaHandler(fn)))
	}))
	vm.SetField(methods, "Wait", vm.NewFunction(func(L *lua.LState) int {
		sig := checkSignal(L, 1)
		ch := make(chan []lua.LValue, 1)
		sig.Once(func(args ...any) {
			ch <- toLuaValues(L, args)
		})
		ud := L.NewUserData()
		ud.Value = &waitToken{ch: ch}
		return L.Yield(ud)
	}))
}

// nodeIndex implements Instance.__index: well-known fields, signals, methods,
// variant-payload properties, then attribute fallback.
func nodeIndex(L *lua.LState, rt *Runtime) int {
	n := checkNode(L, 1)
	key := L.CheckString(2)

	switch key {
	case "Name":
		L.Push(lua.LString(n.Name()))
		return 1
	case "ClassName":
		L.Push(lua.LString(string(n.Class())))
		return 1
	case "Parent":
		L.Push(wrapNode(L, n.Parent()))
		return 1
	case "ChildAdded":
		L.Push(wrapSignal(L, n.ChildAdded))
		return 1
	case "ChildRemoved":
		L.Push(wrapSignal(L, n.ChildRemoved))
		return 1
	case "Destroying":
		L.Push(wrapSignal(L, n.Destroying))
		return 1
	case "AttributeChanged":
		L.Push(wrapSignal(L, n.AttributeChanged))
		return 1
	case "Stepped":
		if n.Class() == instance.ClassRunService {
			L.Push(wrapSignal(L, rt.stepped))
			return 1
		}
	case "Heartbeat":
		if n.Class() == instance.ClassRunService {
			L.Push(wrapSignal(L, rt.heartbeat))
			return 1
		}
	case "GetDataStore":
		if n == rt.dataStoreService {
			L.Push(L.NewFunction(func(L *lua.LState) int {
				L.Push(wrapDataStore(L, L.CheckString(2)))
				return 1
			}))
			return 1
		}
	}

	if fn, ok := nodeMethods[key]; ok {
		L.Push(L.NewFunction(fn))
		return 1
	}
	if v, ok := variantPropertyGet(L, n, key); ok {
		L.Push(v)
		return 1
	}
	if v, ok := n.GetAttribute(key); ok {
		L.Push(goValueToLua(v))
		return 1
	}
	L.Push(lua.LNil)
	return 1
}

// nodeNewIndex implements Instance.__newindex: Parent/Name reassignment and
// every variant-payload property setter.
func nodeNewIndex(L *lua.LState) int {
	n := checkNode(L, 1)
	key := L.CheckString(2)
	val := L.Get(3)

	switch key {
	case "Name":
		n.SetName(L.CheckString(3))
		return 0
	case "Parent":
		var parent *instance.Node
		if ud, ok := val.(*lua.LUserData); ok {
			parent, _ = ud.Value.(*instance.Node)
		}
		n.SetParent(parent)
		return 0
	}
	if variantPropertySet(L, n, key, val) {
		return 0
	}
	n.SetAttribute(key, luaValueToGo(val))
	return 0
}

var nodeMethods = map[string]lua.LGFunction{
	"SetAttribute": func(L *lua.LState) int {
		n := checkNode(L, 1)
		n.SetAttribute(L.CheckString(2), luaValueToGo(L.Get(3)))
		return 0
	},
	"GetAttribute": func(L *lua.LState) int {
		n := checkNode(L, 1)
		v, ok := n.GetAttribute(L.CheckString(2))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(goValueToLua(v))
		return 1
	},
	"AddTag": func(L *lua.LState) int {
		checkNode(L, 1).AddTag(L.CheckString(2))
		return 0
	},
	"RemoveTag": func(L *lua.LState) int {
		checkNode(L, 1).RemoveTag(L.CheckString(2))
		return 0
	},
	"HasTag": func(L *lua.LState) int {
		L.Push(lua.LBool(checkNode(L, 1).HasTag(L.CheckString(2))))
		return 1
	},
	"IsA": func(L *lua.LState) int {
		L.Push(lua.LBool(checkNode(L, 1).IsA(L.CheckString(2))))
		return 1
	},
	"Destroy": func(L *lua.LState) int {
		checkNode(L, 1).Destroy()
		return 0
	},
	"FindFirstChild": func(L *lua.LState) int {
		L.Push(wrapNode(L, checkNode(L, 1).FindFirstChild(L.CheckString(2))))
		return 1
	},
	"GetDescendantsOfClass": func(L *lua.LState) int {
		n := checkNode(L, 1)
		class := instance.ClassName(L.CheckString(2))
		descendants := n.GetDescendantsOfClass(class)
		tbl := L.NewTable()
		for i, d := range descendants {
			tbl.RawSetInt(i+1, wrapNode(L, d))
		}
		L.Push(tbl)
		return 1
	},
	"GetPropertyChangedSignal": func(L *lua.LState) int {
		n := checkNode(L, 1)
		L.Push(wrapSignal(L, n.PropertyChangedSignal(L.CheckString(2))))
		return 1
	},
}

// variantPropertyGet dispatches a property read to whichever variant payload
// n carries (spec §3's "at most one non-nil payload" invariant).
func variantPropertyGet(L *lua.LState, n *instance.Node, key string) (lua.LValue, bool) {
	switch {
	case n.Part != nil:
		if v, ok := partGet(L, n.Part, key); ok {
			return v, true
		}
	case n.Humanoid != nil:
		if v, ok := humanoidGet(L, n.Humanoid, key); ok {
			return v, true
		}
	case n.Player != nil:
		if v, ok := playerGet(L, n.Player, key); ok {
			return v, true
		}
	case n.Model != nil:
		if key == "PrimaryPart" {
			return wrapNode(L, n.Model.PrimaryPart), true
		}
	case n.Weld != nil:
		if v, ok := weldGet(L, n.Weld, key); ok {
			return v, true
		}
	case n.ScriptSource != nil:
		switch key {
		case "Source":
			return lua.LString(n.ScriptSource.Source), true
		case "Disabled":
			return lua.LBool(n.ScriptSource.Disabled), true
		}
	}
	return lua.LNil, false
}

func variantPropertySet(L *lua.LState, n *instance.Node, key string, val lua.LValue) bool {
	switch {
	case n.Part != nil:
		return partSet(L, n.Part, key, val)
	case n.Humanoid != nil:
		return humanoidSet(L, n.Humanoid, key, val)
	case n.Player != nil:
		return playerSet(n.Player, key, val)
	case n.Model != nil:
		if key == "PrimaryPart" {
			if ud, ok := val.(*lua.LUserData); ok {
				n.Model.PrimaryPart, _ = ud.Value.(*instance.Node)
			}
			return true
		}
	case n.Weld != nil:
		return weldSet(n.Weld, key, val)
	case n.ScriptSource != nil:
		switch key {
		case "Source":
			n.ScriptSource.Source = L.CheckString(3)
			return true
		case "Disabled":
			n.ScriptSource.Disabled = bool(L.Get(3).(lua.LBool))
			return true
		}
	}
	return false
}

func partGet(L *lua.LState, p *instance.Part, key string) (lua.LValue, bool) {
	s := p.Snapshot()
	switch key {
	case "Position":
		return wrapVector3(L, s.Position), true
	case "CFrame":
		return wrapCFrame(L, s.CFrame), true
	case "Size":
		return wrapVector3(L, s.Size), true
	case "Velocity":
		return wrapVector3(L, s.Velocity), true
	case "Color":
		return wrapColor3(L, s.Color), true
	case "Material":
		return lua.LString(s.Material.String()), true
	case "Shape":
		return lua.LString(s.Shape.String()), true
	case "Transparency":
		return lua.LNumber(s.Transparency), true
	case "Anchored":
		return lua.LBool(s.Anchored), true
	case "CanCollide":
		return lua.LBool(s.CanCollide), true
	case "CanTouch":
		return lua.LBool(s.CanTouch), true
	case "CanQuery":
		return lua.LBool(s.CanQuery), true
	case "Touched":
		return wrapSignal(L, p.Touched), true
	case "TouchEnded":
		return wrapSignal(L, p.TouchEnded), true
	}
	return lua.LNil, false
}

func partSet(L *lua.LState, p *instance.Part, key string, val lua.LValue) bool {
	switch key {
	case "Position":
		p.SetPosition(checkVector3(L, 3))
		return true
	case "CFrame":
		p.SetCFrame(checkCFrame(L, 3))
		return true
	case "Size":
		p.SetSize(checkVector3(L, 3))
		return true
	case "Velocity":
		p.SetVelocity(checkVector3(L, 3))
		return true
	case "Anchored":
		p.SetAnchored(bool(val.(lua.LBool)))
		return true
	case "CanCollide":
		p.SetCanCollide(bool(val.(lua.LBool)))
		return true
	case "CanTouch":
		p.CanTouch = bool(val.(lua.LBool))
		return true
	case "CanQuery":
		p.CanQuery = bool(val.(lua.LBool))
		return true
	case "Transparency":
		p.Transparency = float64(val.(lua.LNumber))
		return true
	case "Color":
		ud, _ := val.(*lua.LUserData)
		if c, ok := ud.Value.(values.Color3); ok {
			p.Color = c
		}
		return true
	}
	return false
}

func humanoidGet(L *lua.LState, h *instance.Humanoid, key string) (lua.LValue, bool) {
	switch key {
	case "Health":
		return lua.LNumber(h.Health), true
	case "MaxHealth":
		return lua.LNumber(h.MaxHealth), true
	case "WalkSpeed":
		return lua.LNumber(h.WalkSpeed), true
	case "JumpPower":
		return lua.LNumber(h.JumpPower), true
	case "JumpHeight":
		return lua.LNumber(h.JumpHeight), true
	case "AutoRotate":
		return lua.LBool(h.AutoRotate), true
	case "HipHeight":
		return lua.LNumber(h.HipHeight), true
	case "MoveDirection":
		return wrapVector3(L, h.MoveDirection), true
	case "RunningSpeed":
		return lua.LNumber(h.RunningSpeed), true
	case "State":
		return lua.LString(h.State.String()), true
	case "Died":
		return wrapSignal(L, h.Died), true
	case "HealthChanged":
		return wrapSignal(L, h.HealthChanged), true
	case "MoveToFinished":
		return wrapSignal(L, h.MoveToFinished), true
	case "Running":
		return wrapSignal(L, h.Running), true
	case "StateChanged":
		return wrapSignal(L, h.StateChanged), true
	case "MoveTo":
		return L.NewFunction(func(L *lua.LState) int {
			hh := checkHumanoidSelf(L, h)
			hh.MoveTo(checkVector3(L, 2))
			return 0
		}), true
	case "Jump":
		return L.NewFunction(func(L *lua.LState) int {
			h.RequestJump()
			return 0
		}), true
	}
	return lua.LNil, false
}

// checkHumanoidSelf exists only so MoveTo's closure reads cleanly; the
// humanoid is already bound by the outer closure.
func checkHumanoidSelf(L *lua.LState, h *instance.Humanoid) *instance.Humanoid { return h }

func humanoidSet(L *lua.LState, h *instance.Humanoid, key string, val lua.LValue) bool {
	switch key {
	case "Health":
		h.SetHealth(float64(val.(lua.LNumber)))
		return true
	case "WalkSpeed":
		h.WalkSpeed = float64(val.(lua.LNumber))
		return true
	case "JumpPower":
		h.JumpPower = float64(val.(lua.LNumber))
		return true
	case "JumpHeight":
		h.JumpHeight = float64(val.(lua.LNumber))
		return true
	case "AutoRotate":
		h.AutoRotate = bool(val.(lua.LBool))
		return true
	case "HipHeight":
		h.HipHeight = float64(val.(lua.LNumber))
		return true
	}
	return false
}

func playerGet(L *lua.LState, p *instance.Player, key string) (lua.LValue, bool) {
	switch key {
	case "UserId":
		return lua.LNumber(p.UserID), true
	case "DisplayName":
		return lua.LString(p.DisplayName), true
	case "Character":
		return wrapNode(L, p.Character), true
	case "PlayerGui":
		return wrapNode(L, p.PlayerGui), true
	case "CharacterAdded":
		return wrapSignal(L, p.CharacterAdded), true
	case "CharacterRemoving":
		return wrapSignal(L, p.CharacterRemoving), true
	case "Kick":
		return L.NewFunction(func(L *lua.LState) int {
			p.RequestKick()
			return 0
		}), true
	}
	return lua.LNil, false
}

func playerSet(p *instance.Player, key string, val lua.LValue) bool {
	if key == "Character" {
		if ud, ok := val.(*lua.LUserData); ok {
			n, _ := ud.Value.(*instance.Node)
			p.SetCharacter(n)
			return true
		}
	}
	return false
}

func weldGet(L *lua.LState, w *instance.Weld, key string) (lua.LValue, bool) {
	switch key {
	case "Part0":
		return wrapNode(L, w.Part0), true
	case "Part1":
		return wrapNode(L, w.Part1), true
	case "C0":
		return wrapCFrame(L, w.C0), true
	case "C1":
		return wrapCFrame(L, w.C1), true
	case "Enabled":
		return lua.LBool(w.Enabled), true
	}
	return lua.LNil, false
}

func weldSet(w *instance.Weld, key string, val lua.LValue) bool {
	switch key {
	case "Part0":
		if ud, ok := val.(*lua.LUserData); ok {
			w.Part0, _ = ud.Value.(*instance.Node)
		}
		return true
	case "Part1":
		if ud, ok := val.(*lua.LUserData); ok {
			w.Part1, _ = ud.Value.(*instance.Node)
		}
		return true
	case "C0":
		if ud, ok := val.(*lua.LUserData); ok {
			w.C0, _ = ud.Value.(values.CFrame)
		}
		return true
	case "C1":
		if ud, ok := val.(*lua.LUserData); ok {
			w.C1, _ = ud.Value.(values.CFrame)
		}
		return true
	case "Enabled":
		w.Enabled = bool(val.(lua.LBool))
		return true
	}
	return false
}

func wrapVector3(L *lua.LState, v values.Vector3) lua.LValue {
	return newUserdata(L, vector3MetaName, v)
}

func wrapCFrame(L *lua.LState, c values.CFrame) lua.LValue {
	return newUserdata(L, cframeMetaName, c)
}

func wrapColor3(L *lua.LState, c values.Color3) lua.LValue {
	return newUserdata(L, color3MetaName, c)
}

// registerGameRoot installs the `game` global and its fixed service list
// (spec §2's closed service set).
func registerGameRoot(vm *lua.LState, rt *Runtime, svc Services) {
	game := vm.NewTable()
	set := func(name string, n *instance.Node) {
		vm.SetField(game, name, wrapNode(vm, n))
	}
	set("Workspace", svc.Workspace)
	set("Players", svc.Players)
	set("RunService", svc.RunService)
	set("AgentInputService", svc.AgentInputService)
	set("DataStoreService", svc.DataStoreService)
	set("RemoteEventService", svc.RemoteEventService)
	set("HttpService", svc.HttpService)

	services := map[string]*instance.Node{
		"Workspace":          svc.Workspace,
		"Players":            svc.Players,
		"RunService":         svc.RunService,
		"AgentInputService":  svc.AgentInputService,
		"DataStoreService":   svc.DataStoreService,
		"RemoteEventService": svc.RemoteEventService,
		"HttpService":        svc.HttpService,
	}
	vm.SetField(game, "GetService", vm.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		n, ok := services[name]
		if !ok {
			L.RaiseError("unknown service %q", name)
			return 0
		}
		L.Push(wrapNode(L, n))
		return 1
	}))

	vm.SetGlobal("game", game)

	registerDataStoreService(vm, rt, svc.DataStoreService)
}

const dataStoreMetaName = "DataStore"

// registerDataStoreService installs the DataStore metatable; the
// DataStoreService node's GetDataStore method (added in nodeIndex) wraps a
// store name as one of these handles. GetAsync/SetAsync/GetSortedAsync
// submit a request to rt.broker and yield the pendingKey sentinel (spec
// §4.7). Calling them with no broker attached raises an error the
// Continue/Halt policy turns into an AsyncUnavailable-kind failure (spec §7).
func registerDataStoreService(vm *lua.LState, rt *Runtime, dataStoreService *instance.Node) {
	if dataStoreService == nil {
		return
	}
	mt := vm.NewTypeMetatable(dataStoreMetaName)
	methods := vm.NewTable()
	vm.SetField(mt, "__index", methods)

	vm.SetField(methods, "GetAsync", vm.NewFunction(func(L *lua.LState) int {
		store := checkDataStoreName(L, 1)
		if rt.broker == nil {
			L.RaiseError("async I/O unavailable: no broker attached")
			return 0
		}
		requestID := rt.broker.Get(store, L.CheckString(2))
		return L.Yield(lua.LString(requestID))
	}))
	vm.SetField(methods, "SetAsync", vm.NewFunction(func(L *lua.LState) int {
		store := checkDataStoreName(L, 1)
		if rt.broker == nil {
			L.RaiseError("async I/O unavailable: no broker attached")
			return 0
		}
		requestID := rt.broker.Set(store, L.CheckString(2), luaValueToGo(L.Get(3)))
		return L.Yield(lua.LString(requestID))
	}))
	vm.SetField(methods, "GetSortedAsync", vm.NewFunction(func(L *lua.LState) int {
		store := checkDataStoreName(L, 1)
		if rt.broker == nil {
			L.RaiseError("async I/O unavailable: no broker attached")
			return 0
		}
		ascending := L.OptBool(2, true)
		limit := L.OptInt(3, 50)
		requestID := rt.broker.GetSorted(store, ascending, limit)
		return L.Yield(lua.LString(requestID))
	}))
}

func wrapDataStore(L *lua.LState, name string) lua.LValue {
	ud := L.NewUserData()
	ud.Value = name
	ud.Metatable = L.GetTypeMetatable(dataStoreMetaName)
	return ud
}

func checkDataStoreName(L *lua.LState, n int) string {
	ud := L.CheckUserData(n)
	name, _ := ud.Value.(string)
	return name
}
