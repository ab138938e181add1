package instance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewInstanceUnknownClassFails(t *testing.T) {
	tr := &Tree{}
	_, err := tr.NewInstance(ClassName("NotAThing"), nil)
	require.Error(t, err)
}

func TestParentChildTreeAndChildAdded(t *testing.T) {
	tr := &Tree{}
	workspace, _ := tr.NewInstance(ClassWorkspace, nil)
	var added *Node
	workspace.ChildAdded.Connect(func(args ...any) { added = args[0].(*Node) })

	part, _ := tr.NewInstance(ClassPart, workspace)
	require.Equal(t, part, added)
	require.Len(t, workspace.Children(), 1)
	require.Equal(t, workspace, part.Parent())
}

func TestSetParentRejectsCycle(t *testing.T) {
	tr := &Tree{}
	a, _ := tr.NewInstance(ClassFolder, nil)
	b, _ := tr.NewInstance(ClassFolder, a)
	ok := a.SetParent(b)
	require.False(t, ok)
	require.Nil(t, a.Parent())
}

func TestDestroySubtreeFiresDestroyingOnEveryNode(t *testing.T) {
	tr := &Tree{}
	root, _ := tr.NewInstance(ClassFolder, nil)
	child, _ := tr.NewInstance(ClassFolder, root)
	grandchild, _ := tr.NewInstance(ClassPart, child)

	var firedRoot, firedChild, firedGrandchild bool
	root.Destroying.Connect(func(args ...any) { firedRoot = true })
	child.Destroying.Connect(func(args ...any) { firedChild = true })
	grandchild.Destroying.Connect(func(args ...any) { firedGrandchild = true })

	root.Destroy()

	require.True(t, firedRoot)
	require.True(t, firedChild)
	require.True(t, firedGrandchild)
	require.True(t, root.Destroyed())
	require.True(t, child.Destroyed())
	require.Empty(t, root.Children())
}

func TestAttributesRoundTrip(t *testing.T) {
	tr := &Tree{}
	n, _ := tr.NewInstance(ClassFolder, nil)
	var changedKey string
	n.AttributeChanged.Connect(func(args ...any) { changedKey = args[0].(string) })

	n.SetAttribute("Static", true)
	v, ok := n.GetAttribute("Static")
	require.True(t, ok)
	require.Equal(t, true, v)
	require.Equal(t, "Static", changedKey)
}

func TestIsACategories(t *testing.T) {
	require.True(t, IsA(ClassTextButton, "GuiButton"))
	require.True(t, IsA(ClassTextButton, "GuiObject"))
	require.True(t, IsA(ClassPart, "Instance"))
	require.False(t, IsA(ClassPart, "GuiObject"))
}
