package instance

// ScriptSource is the payload for Script and ModuleScript nodes: the raw
// source text and a disabled flag. Script execution state (whether it has
// already been started as a coroutine, module cache entries) lives in
// package script, not here, since it's a VM-runtime concern rather than a
// scene-tree property.
type ScriptSource struct {
	Source   string
	Disabled bool
}

func NewScriptSource(source string) *ScriptSource {
	return &ScriptSource{Source: source}
}
