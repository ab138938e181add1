package physics

import (
	"sync"

	"github.com/lguibr/voxelrealm/values"
)

// World is one instance's rigid-body + character simulation. All exported
// methods are safe for concurrent use; the tick pipeline calls them from a
// single goroutine per instance, but queries may be read from elsewhere
// (e.g. the observation builder) so the lock is taken defensively.
type World struct {
	mu sync.Mutex

	gravity float64 // studs/s^2, positive magnitude subtracted from Y velocity

	bodies     map[uint64]*body
	characters map[uint64]*character

	jumpBufferWindow  float64
	moveReachEpsilon  float64
	moveToTimeout     float64
	platformStickDist float64
}

// Config carries the tunables spec §6 lists as part of the configuration
// surface that the physics world owns: default gravity, jump buffer window,
// move-to reach epsilon and timeout, and platform stick distance. Character
// radius and height are passed per character to AddCharacter instead.
type Config struct {
	Gravity           float64
	JumpBufferWindow  float64
	MoveReachEpsilon  float64
	MoveToTimeout     float64
	PlatformStickDist float64
}

// DefaultConfig matches the defaults spec §6 names.
func DefaultConfig() Config {
	return Config{
		Gravity:           30,
		JumpBufferWindow:  0.15,
		MoveReachEpsilon:  0.5,
		MoveToTimeout:     10,
		PlatformStickDist: 0.2,
	}
}

func NewWorld(cfg Config) *World {
	return &World{
		gravity:           cfg.Gravity,
		bodies:            make(map[uint64]*body),
		characters:        make(map[uint64]*character),
		jumpBufferWindow:  cfg.JumpBufferWindow,
		moveReachEpsilon:  cfg.MoveReachEpsilon,
		moveToTimeout:     cfg.MoveToTimeout,
		platformStickDist: cfg.PlatformStickDist,
	}
}

// SetGravity mirrors Workspace.Gravity into the world (tick phase 5).
func (w *World) SetGravity(g float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gravity = g
}

// AddPart creates a body+collider for a part: dynamic if not anchored, else
// kinematic position-based (spec §4.3 add_part).
func (w *World) AddPart(id uint64, pose values.CFrame, size values.Vector3, anchored, collides bool, shape values.Shape) {
	w.mu.Lock()
	defer w.mu.Unlock()
	kind := BodyDynamic
	if anchored {
		kind = BodyKinematicPosition
	}
	w.bodies[id] = &body{
		id:       id,
		kind:     kind,
		shape:    shape,
		pose:     pose,
		size:     size,
		anchored: anchored,
		collides: collides,
		queries:  true,
	}
}

func (w *World) RemovePart(id uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.bodies, id)
}

// HasPart reports whether id currently has a physics body (used by the
// script→physics sync phase to decide create-vs-update-vs-remove).
func (w *World) HasPart(id uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.bodies[id]
	return ok
}

// PartIDs returns every body id currently in the world (testable property:
// this set equals Workspace's part descendants outside character bodies).
func (w *World) PartIDs() []uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]uint64, 0, len(w.bodies))
	for id := range w.bodies {
		ids = append(ids, id)
	}
	return ids
}

func (w *World) SetSize(id uint64, size values.Vector3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.bodies[id]; ok {
		b.size = size
	}
}

func (w *World) SetShape(id uint64, shape values.Shape, size values.Vector3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.bodies[id]; ok {
		b.shape = shape
		b.size = size
	}
}

func (w *World) SetAnchored(id uint64, anchored bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.bodies[id]
	if !ok {
		return
	}
	b.anchored = anchored
	if anchored {
		b.kind = BodyKinematicPosition
		b.velocity = values.Vector3{}
	} else {
		b.kind = BodyDynamic
	}
}

func (w *World) SetCanCollide(id uint64, collides bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.bodies[id]; ok {
		b.collides = collides
	}
}

func (w *World) SetVelocity(id uint64, v values.Vector3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.bodies[id]; ok {
		b.velocity = v
	}
}

// SetKinematicPositionWithDt sweeps an anchored/kinematic part to pos,
// deriving an implied velocity from the displacement over dt so it can
// carry riding characters (moving-platform support).
func (w *World) SetKinematicPositionWithDt(id uint64, pos values.Vector3, dt float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.bodies[id]
	if !ok {
		return
	}
	if dt > 1e-9 {
		b.lastKinematicVelocity = pos.Sub(b.pose.Position).Scale(1 / dt)
	}
	b.pose.Position = pos
}

func (w *World) SetKinematicRotation(id uint64, rot values.CFrame) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.bodies[id]; ok {
		r := rot
		r.Position = b.pose.Position
		b.pose = r
	}
}

// Pose reads back a body's current world-space frame.
func (w *World) Pose(id uint64) (values.CFrame, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.bodies[id]
	if !ok {
		return values.CFrame{}, false
	}
	return b.pose, true
}

func (w *World) Velocity(id uint64) (values.Vector3, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.bodies[id]
	if !ok {
		return values.Vector3{}, false
	}
	return b.velocity, true
}
