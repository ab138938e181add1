package instance

import (
	"sync"

	"github.com/lguibr/voxelrealm/signal"
	"github.com/lguibr/voxelrealm/values"
)

// PartDirty tracks which Part fields changed since the last script->physics
// sync (spec §4.1 phase 6), so the tick pipeline only pushes what moved.
type PartDirty struct {
	Position   bool
	Size       bool
	Anchored   bool
	CanCollide bool
	Velocity   bool
	Shape      bool
}

// Part is the physics-simulatable variant payload.
type Part struct {
	mu sync.Mutex

	Position values.Vector3
	CFrame   values.CFrame
	Size     values.Vector3
	Velocity values.Vector3
	Color    values.Color3
	Material values.Material
	Shape    values.Shape

	Transparency float64
	Anchored     bool
	CanCollide   bool
	CanTouch     bool
	CanQuery     bool

	Dirty PartDirty

	Touched    *signal.Signal
	TouchEnded *signal.Signal
}

// NewPart returns a Part payload with the original's defaults (solid,
// touchable, queryable box at the origin).
func NewPart() *Part {
	return &Part{
		CFrame:     values.IdentityCFrame,
		Size:       values.Vector3{X: 4, Y: 1, Z: 2},
		Color:      values.FromRGB255(163, 162, 165),
		CanCollide: true,
		CanTouch:   true,
		CanQuery:   true,
		Touched:    signal.New(),
		TouchEnded: signal.New(),
	}
}

// SetPosition updates position (and keeps CFrame.Position equal, invariant f),
// marking the part dirty for the next script->physics sync.
func (p *Part) SetPosition(v values.Vector3) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Position = v
	p.CFrame.Position = v
	p.Dirty.Position = true
}

// SetCFrame updates the full frame, keeping Position in sync (invariant f).
func (p *Part) SetCFrame(c values.CFrame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CFrame = c
	p.Position = c.Position
	p.Dirty.Position = true
}

func (p *Part) SetSize(v values.Vector3) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Size = v
	p.Dirty.Size = true
}

func (p *Part) SetAnchored(b bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Anchored = b
	p.Dirty.Anchored = true
}

func (p *Part) SetCanCollide(b bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CanCollide = b
	p.Dirty.CanCollide = true
}

func (p *Part) SetVelocity(v values.Vector3) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Velocity = v
	p.Dirty.Velocity = true
}

func (p *Part) SetShape(s values.Shape) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Shape = s
	p.Dirty.Shape = true
}

// ClearDirty resets the dirty-bit set after a sync has consumed it.
func (p *Part) ClearDirty() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Dirty = PartDirty{}
}

// PartState is a value-copy snapshot of a Part's fields, safe to read
// without holding the original's lock.
type PartState struct {
	Position     values.Vector3
	CFrame       values.CFrame
	Size         values.Vector3
	Velocity     values.Vector3
	Color        values.Color3
	Material     values.Material
	Shape        values.Shape
	Transparency float64
	Anchored     bool
	CanCollide   bool
	CanTouch     bool
	CanQuery     bool
	Dirty        PartDirty
}

// Snapshot returns a value-copy of p's fields, safe to read without holding
// the lock (and without the copylock hazard of copying the mutex itself).
func (p *Part) Snapshot() PartState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PartState{
		Position:     p.Position,
		CFrame:       p.CFrame,
		Size:         p.Size,
		Velocity:     p.Velocity,
		Color:        p.Color,
		Material:     p.Material,
		Shape:        p.Shape,
		Transparency: p.Transparency,
		Anchored:     p.Anchored,
		CanCollide:   p.CanCollide,
		CanTouch:     p.CanTouch,
		CanQuery:     p.CanQuery,
		Dirty:        p.Dirty,
	}
}
