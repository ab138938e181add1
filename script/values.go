package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/lguibr/voxelrealm/values"
)

const (
	vector3MetaName = "Vector3"
	cframeMetaName  = "CFrame"
	color3MetaName  = "Color3"
	udim2MetaName   = "UDim2"
)

// registerValueConstructors installs the value types scripts construct
// directly: Vector3.new, CFrame.new, Color3.new/fromRGB, UDim2.new (spec
// §4.2's value-type list), each backed by package values's immutable Go
// structs and surfaced to Lua as userdata with an accessor metatable.
func registerValueConstructors(vm *lua.LState) {
	registerVector3(vm)
	registerCFrame(vm)
	registerColor3(vm)
	registerUDim2(vm)
}

func newUserdata(vm *lua.LState, metaName string, value any) *lua.LUserData {
	ud := vm.NewUserData()
	ud.Value = value
	ud.Metatable = vm.GetTypeMetatable(metaName)
	return ud
}

func registerVector3(vm *lua.LState) {
	mt := vm.NewTypeMetatable(vector3MetaName)
	vm.SetGlobal(vector3MetaName, mt)
	vm.SetField(mt, "new", vm.NewFunction(func(L *lua.LState) int {
		L.Push(newUserdata(L, vector3MetaName, values.NewVector3(floatArg(L, 1), floatArg(L, 2), floatArg(L, 3))))
		return 1
	}))
	methods := vm.NewTable()
	vm.SetField(mt, "__index", methods)
	vm.SetField(methods, "X", vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(checkVector3(L, 1).X))
		return 1
	}))
	vm.SetField(methods, "Y", vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(checkVector3(L, 1).Y))
		return 1
	}))
	vm.SetField(methods, "Z", vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(checkVector3(L, 1).Z))
		return 1
	}))
	vm.SetField(mt, "__add", vm.NewFunction(func(L *lua.LState) int {
		L.Push(newUserdata(L, vector3MetaName, checkVector3(L, 1).Add(checkVector3(L, 2))))
		return 1
	}))
	vm.SetField(mt, "__sub", vm.NewFunction(func(L *lua.LState) int {
		L.Push(newUserdata(L, vector3MetaName, checkVector3(L, 1).Sub(checkVector3(L, 2))))
		return 1
	}))
}

func registerCFrame(vm *lua.LState) {
	mt := vm.NewTypeMetatable(cframeMetaName)
	vm.SetGlobal(cframeMetaName, mt)
	vm.SetField(mt, "new", vm.NewFunction(func(L *lua.LState) int {
		pos := values.NewVector3(floatArg(L, 1), floatArg(L, 2), floatArg(L, 3))
		L.Push(newUserdata(L, cframeMetaName, values.NewCFrameAt(pos)))
		return 1
	}))
	methods := vm.NewTable()
	vm.SetField(mt, "__index", methods)
	vm.SetField(methods, "Position", vm.NewFunction(func(L *lua.LState) int {
		L.Push(newUserdata(L, vector3MetaName, checkCFrame(L, 1).Position))
		return 1
	}))
}

func registerColor3(vm *lua.LState) {
	mt := vm.NewTypeMetatable(color3MetaName)
	vm.SetGlobal(color3MetaName, mt)
	vm.SetField(mt, "new", vm.NewFunction(func(L *lua.LState) int {
		L.Push(newUserdata(L, color3MetaName, values.NewColor3(floatArg(L, 1), floatArg(L, 2), floatArg(L, 3))))
		return 1
	}))
	vm.SetField(mt, "fromRGB", vm.NewFunction(func(L *lua.LState) int {
		L.Push(newUserdata(L, color3MetaName, values.FromRGB255(intArg(L, 1), intArg(L, 2), intArg(L, 3))))
		return 1
	}))
}

func registerUDim2(vm *lua.LState) {
	mt := vm.NewTypeMetatable(udim2MetaName)
	vm.SetGlobal(udim2MetaName, mt)
	vm.SetField(mt, "new", vm.NewFunction(func(L *lua.LState) int {
		L.Push(newUserdata(L, udim2MetaName, values.NewUDim2(
			floatArg(L, 1), floatArg(L, 2), floatArg(L, 3), floatArg(L, 4),
		)))
		return 1
	}))
}

func floatArg(L *lua.LState, n int) float64 {
	if num, ok := L.Get(n).(lua.LNumber); ok {
		return float64(num)
	}
	return 0
}

func intArg(L *lua.LState, n int) int { return int(floatArg(L, n)) }

func checkVector3(L *lua.LState, n int) values.Vector3 {
	ud := L.CheckUserData(n)
	v, _ := ud.Value.(values.Vector3)
	return v
}

func checkCFrame(L *lua.LState, n int) values.CFrame {
	ud := L.CheckUserData(n)
	v, _ := ud.Value.(values.CFrame)
	return v
}

// toLuaValues marshals a Go argument list (the payload a signal.Signal
// fires with) into Lua values for a resumed continuation.
func toLuaValues(vm *lua.LState, args []any) []lua.LValue {
	out := make([]lua.LValue, 0, len(args))
	for _, a := range args {
		out = append(out, goValueToLua(a))
	}
	return out
}

// goValueToLua converts one Go value into its Lua representation, covering
// the primitive set the engine's own state (health, timers, ids) is made
// of; value types round-trip as userdata carrying the same Go struct the
// constructors above produce.
func goValueToLua(v any) lua.LValue {
	switch t := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return t
	case string:
		return lua.LString(t)
	case bool:
		return lua.LBool(t)
	case int:
		return lua.LNumber(t)
	case int64:
		return lua.LNumber(t)
	case uint64:
		return lua.LNumber(t)
	case float32:
		return lua.LNumber(t)
	case float64:
		return lua.LNumber(t)
	case values.Vector3:
		return &lua.LUserData{Value: t}
	case values.CFrame:
		return &lua.LUserData{Value: t}
	case values.Color3:
		return &lua.LUserData{Value: t}
	default:
		return &lua.LUserData{Value: t}
	}
}

// luaValueToGo converts a Lua value back to a plain Go value, used when a
// script passes data out through DataStoreService:SetAsync or a RemoteEvent.
func luaValueToGo(v lua.LValue) any {
	switch t := v.(type) {
	case lua.LString:
		return string(t)
	case lua.LNumber:
		return float64(t)
	case lua.LBool:
		return bool(t)
	case *lua.LUserData:
		return t.Value
	case *lua.LNilType:
		return nil
	default:
		return v.String()
	}
}
