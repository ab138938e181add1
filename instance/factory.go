package instance

import "fmt"

// NewInstance creates a Node of class under parent (nil for a root) and attaches
// the variant payload the class needs, mirroring `Instance.new(class_tag,
// parent)` from spec §4.2. Returns an error for an unknown class tag
// (spec §7 InvalidInput).
func (t *Tree) NewInstance(class ClassName, parent *Node) (*Node, error) {
	if !ValidClass(class) {
		return nil, fmt.Errorf("unknown class tag %q", class)
	}
	n := t.New(class, string(class), parent)
	switch class {
	case ClassPart:
		n.Part = NewPart()
	case ClassHumanoid:
		n.Humanoid = NewHumanoid()
	case ClassPlayer:
		n.Player = NewPlayer(0, "")
	case ClassModel:
		n.Model = NewModel()
	case ClassWeld:
		n.Weld = NewWeld()
	case ClassBillboardGui:
		n.Billboard = NewBillboardGui()
	case ClassScreenGui, ClassFrame, ClassTextLabel, ClassTextButton, ClassImageLabel, ClassImageButton:
		n.Gui = NewGuiObject()
		if class == ClassScreenGui {
			n.Gui.Enabled = true
		}
	case ClassScript, ClassModuleScript:
		n.ScriptSource = NewScriptSource("")
	}
	return n, nil
}
