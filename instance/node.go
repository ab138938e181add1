// Package instance implements the universal scene-tree node (spec §3) and
// its variant payloads, following the "tagged union of payload variants"
// design note (spec §9): dynamic dispatch over class tags maps onto a
// single Node struct carrying optional payload pointers, one per ClassName
// that needs extra state.
package instance

import (
	"sync"
	"sync/atomic"

	"github.com/lguibr/voxelrealm/signal"
)

// AttributeValue is the tagged payload of one attribute slot: string,
// float64, bool, Vector3, Color3, or nil (absent). Stored as `any` and
// validated on write by SetAttribute; this mirrors the original's small
// closed union without needing a generated sum type in Go.
type AttributeValue = any

// idGenerator hands out monotonically increasing ids; each Tree owns one,
// so ids are unique within one scene tree, not across the process.
type idGenerator struct{ next uint64 }

func (g *idGenerator) next_() uint64 { return atomic.AddUint64(&g.next, 1) }

// Node is the universal scene-tree entity. Every script-visible object,
// from Workspace down to a single TextLabel, is one Node plus (optionally)
// one variant payload.
type Node struct {
	mu sync.RWMutex

	id    uint64
	name  string
	class ClassName

	parent   *Node
	children []*Node

	attributes map[string]AttributeValue
	tags       map[string]struct{}

	// Signals common to every instance.
	ChildAdded  *signal.Signal
	ChildRemoved *signal.Signal
	Destroying  *signal.Signal
	AttributeChanged *signal.Signal // fires with the attribute name

	propertyChanged map[string]*signal.Signal
	attributeSignal map[string]*signal.Signal

	// Variant payloads; at most the one matching Class is non-nil.
	Part         *Part
	Humanoid     *Humanoid
	Player       *Player
	Model        *Model
	Weld         *Weld
	Billboard    *BillboardGui
	Gui          *GuiObject
	ScriptSource *ScriptSource

	destroyed bool
}

// Tree owns the id counter for one instance's scene tree; every Node
// created via Tree.New shares it, matching the original's per-instance
// (never process-global) lua_id space (spec §9).
type Tree struct {
	ids idGenerator
}

// New constructs a Node of the given class with the given name, parented
// under parent (nil for a root). Panics are never used for bad input here;
// callers (the Instance.new factory in package script) validate class tags
// before calling this.
func (t *Tree) New(class ClassName, name string, parent *Node) *Node {
	n := &Node{
		id:               t.ids.next_(),
		name:             name,
		class:            class,
		attributes:       make(map[string]AttributeValue),
		tags:             make(map[string]struct{}),
		ChildAdded:       signal.New(),
		ChildRemoved:     signal.New(),
		Destroying:       signal.New(),
		AttributeChanged: signal.New(),
		propertyChanged:  make(map[string]*signal.Signal),
		attributeSignal:  make(map[string]*signal.Signal),
	}
	if parent != nil {
		n.SetParent(parent)
	}
	return n
}

func (n *Node) ID() uint64        { return n.id }
func (n *Node) Name() string      { n.mu.RLock(); defer n.mu.RUnlock(); return n.name }
func (n *Node) Class() ClassName  { return n.class }

func (n *Node) SetName(name string) {
	n.mu.Lock()
	n.name = name
	n.mu.Unlock()
	n.firePropertyChanged("Name")
}

func (n *Node) Parent() *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parent
}

// Children returns a snapshot slice of direct children.
func (n *Node) Children() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// SetParent reparents n under newParent (nil detaches it as a root),
// maintaining invariant (a): the parent graph is a forest (no cycles).
// ancestorOf walks the existing tree, so a cycle can only be introduced by
// reparenting an ancestor under its own descendant; we reject that.
func (n *Node) SetParent(newParent *Node) bool {
	if newParent != nil && (newParent == n || newParent.isDescendantOf(n)) {
		return false
	}

	n.mu.Lock()
	old := n.parent
	n.mu.Unlock()

	if old != nil {
		old.removeChild(n)
	}
	if newParent != nil {
		newParent.addChild(n)
	}

	n.mu.Lock()
	n.parent = newParent
	n.mu.Unlock()

	n.firePropertyChanged("Parent")
	return true
}

func (n *Node) isDescendantOf(ancestor *Node) bool {
	p := n.Parent()
	for p != nil {
		if p == ancestor {
			return true
		}
		p = p.Parent()
	}
	return false
}

func (n *Node) addChild(c *Node) {
	n.mu.Lock()
	n.children = append(n.children, c)
	n.mu.Unlock()
	n.ChildAdded.FireSync(nil, c)
}

func (n *Node) removeChild(c *Node) {
	n.mu.Lock()
	for i, ch := range n.children {
		if ch == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			break
		}
	}
	n.mu.Unlock()
	n.ChildRemoved.FireSync(nil, c)
}

func (n *Node) firePropertyChanged(prop string) {
	n.mu.RLock()
	sig := n.propertyChanged[prop]
	n.mu.RUnlock()
	if sig != nil {
		sig.FireSync(nil, prop)
	}
}

// PropertyChangedSignal returns (creating if needed) the per-property signal
// for prop.
func (n *Node) PropertyChangedSignal(prop string) *signal.Signal {
	n.mu.Lock()
	defer n.mu.Unlock()
	sig, ok := n.propertyChanged[prop]
	if !ok {
		sig = signal.New()
		n.propertyChanged[prop] = sig
	}
	return sig
}

// SetAttribute stores a validated attribute value and fires
// AttributeChanged plus the per-attribute signal.
func (n *Node) SetAttribute(key string, value AttributeValue) {
	n.mu.Lock()
	if value == nil {
		delete(n.attributes, key)
	} else {
		n.attributes[key] = value
	}
	sig := n.attributeSignal[key]
	n.mu.Unlock()

	n.AttributeChanged.FireSync(nil, key)
	if sig != nil {
		sig.FireSync(nil, value)
	}
}

func (n *Node) GetAttribute(key string) (AttributeValue, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.attributes[key]
	return v, ok
}

// Attributes returns a snapshot copy of all attributes.
func (n *Node) Attributes() map[string]AttributeValue {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[string]AttributeValue, len(n.attributes))
	for k, v := range n.attributes {
		out[k] = v
	}
	return out
}

// AttributeChangedSignal returns (creating if needed) the per-attribute signal.
func (n *Node) AttributeChangedSignal(key string) *signal.Signal {
	n.mu.Lock()
	defer n.mu.Unlock()
	sig, ok := n.attributeSignal[key]
	if !ok {
		sig = signal.New()
		n.attributeSignal[key] = sig
	}
	return sig
}

func (n *Node) AddTag(tag string) {
	n.mu.Lock()
	n.tags[tag] = struct{}{}
	n.mu.Unlock()
}

func (n *Node) RemoveTag(tag string) {
	n.mu.Lock()
	delete(n.tags, tag)
	n.mu.Unlock()
}

func (n *Node) HasTag(tag string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.tags[tag]
	return ok
}

func (n *Node) Tags() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, 0, len(n.tags))
	for t := range n.tags {
		out = append(out, t)
	}
	return out
}

// IsA reports whether this node's class satisfies the named class/category.
func (n *Node) IsA(name string) bool { return IsA(n.class, name) }

// Destroyed reports whether Destroy has already run on this node.
func (n *Node) Destroyed() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.destroyed
}

// Destroy tears down n and its entire subtree (invariant b): every node in
// the subtree fires Destroying before any are detached, children-first is
// not required by the invariant (only "before tearing down"), so both passes
// run top-down: Destroying fires parent before children, then each node is
// marked destroyed and its child list cleared before its children are torn down.
func (n *Node) Destroy() {
	n.fireDestroyingRecursive()
	n.teardownRecursive()
	if p := n.Parent(); p != nil {
		p.removeChild(n)
	}
	n.mu.Lock()
	n.parent = nil
	n.mu.Unlock()
}

func (n *Node) fireDestroyingRecursive() {
	n.mu.RLock()
	already := n.destroyed
	kids := append([]*Node(nil), n.children...)
	n.mu.RUnlock()
	if already {
		return
	}
	n.Destroying.FireSync(nil)
	for _, c := range kids {
		c.fireDestroyingRecursive()
	}
}

func (n *Node) teardownRecursive() {
	n.mu.Lock()
	kids := append([]*Node(nil), n.children...)
	n.destroyed = true
	n.children = nil
	n.mu.Unlock()
	for _, c := range kids {
		c.teardownRecursive()
	}
}

// Descendants returns every node in the subtree rooted at n, n excluded,
// in depth-first order.
func (n *Node) Descendants() []*Node {
	var out []*Node
	for _, c := range n.Children() {
		out = append(out, c)
		out = append(out, c.Descendants()...)
	}
	return out
}

// FindFirstChild returns the first direct child named name, or nil.
func (n *Node) FindFirstChild(name string) *Node {
	for _, c := range n.Children() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// GetDescendantsOfClass returns every descendant whose class equals class.
func (n *Node) GetDescendantsOfClass(class ClassName) []*Node {
	var out []*Node
	for _, d := range n.Descendants() {
		if d.Class() == class {
			out = append(out, d)
		}
	}
	return out
}
