// Package physics implements the rigid-body and kinematic-character world:
// box/ball/cylinder/wedge colliders, broad+narrow phase overlap, raycasts,
// and the character controller's low-level support queries. It is grounded
// on the shape of github.com/gazed/vu/physics (broad-phase by bounding
// sphere, GJK narrow phase, plane-clipped ray casting) adapted from that
// package's cgo/solver-heavy design to a pure-Go convex-geometry engine
// sized for this server's needs: exact overlap and raycast tests, plus a
// deliberately simple integrator (see World.Step) since the spec's tick
// pipeline only requires that dynamic parts fall and rest, not a full
// contact-manifold solver.
package physics

import "github.com/lguibr/voxelrealm/values"

// BodyKind distinguishes how a part's body is driven.
type BodyKind int

const (
	// BodyDynamic is gravity-integrated each Step.
	BodyDynamic BodyKind = iota
	// BodyKinematicPosition is script/anchored-driven; Step never moves it.
	BodyKinematicPosition
)

// QueryFilterMode selects how FilterInstances is applied in a QueryParams.
type QueryFilterMode int

const (
	FilterNone QueryFilterMode = iota
	FilterInclude
	FilterExclude
)

// QueryParams narrows raycast/overlap queries, mirroring spec §4.3.
type QueryParams struct {
	FilterMode       QueryFilterMode
	FilterInstances  []uint64
	IgnoreWater      bool
	CollisionGroup   string
	RespectCanCollide bool
	MaxParts         int
}

func (p QueryParams) passes(b *body) bool {
	if p.RespectCanCollide && !b.collides {
		return false
	}
	if p.CollisionGroup != "" && b.collisionGroup != p.CollisionGroup {
		return false
	}
	switch p.FilterMode {
	case FilterInclude:
		return containsID(p.FilterInstances, b.id)
	case FilterExclude:
		return !containsID(p.FilterInstances, b.id)
	default:
		return true
	}
}

func containsID(ids []uint64, id uint64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// RaycastHit is the result of a successful World.Raycast.
type RaycastHit struct {
	PartID   uint64
	Position values.Vector3
	Normal   values.Vector3
	Distance float64
}

// GroundSupport is the result of a ground-sensor sample beneath a character.
type GroundSupport struct {
	Distance float64
	Velocity values.Vector3
}

// body is one simulated part: a rigid body plus its collider.
type body struct {
	id             uint64
	kind           BodyKind
	shape          values.Shape
	pose           values.CFrame
	size           values.Vector3
	velocity       values.Vector3
	anchored       bool
	collides       bool
	queries        bool
	collisionGroup string

	// lastKinematicVelocity is the implied velocity of the most recent
	// SetKinematicPositionWithDt call, used as moving-platform carry velocity.
	lastKinematicVelocity values.Vector3
}

func (b *body) halfExtents() values.Vector3 {
	return values.Vector3{X: b.size.X / 2, Y: b.size.Y / 2, Z: b.size.Z / 2}
}

// character is one kinematic-capsule controlled by the character controller.
type character struct {
	id               uint64
	position         values.Vector3
	yaw              float64
	radius           float64
	height           float64
	walkSpeed        float64
	verticalVelocity float64
	grounded         bool
	target           *values.Vector3
	moveToElapsed    float64
	jumpBufferTimer  float64
	pendingJumpPower float64
	contactVelocity  values.Vector3
}
