package physics

import (
	"math"

	"github.com/lguibr/voxelrealm/values"
)

// AddCharacter creates a kinematic capsule (spec §4.3 add_character);
// characters are tracked separately from part bodies since they're driven
// by the character controller's motion plan, not gravity integration here.
func (w *World) AddCharacter(id uint64, pos values.Vector3, radius, height float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.characters[id] = &character{id: id, position: pos, radius: radius, height: height}
}

func (w *World) RemoveCharacter(id uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.characters, id)
}

func (w *World) SetCharacterPosition(id uint64, pos values.Vector3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c, ok := w.characters[id]; ok {
		c.position = pos
	}
}

func (w *World) CharacterPosition(id uint64) (values.Vector3, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.characters[id]
	if !ok {
		return values.Vector3{}, false
	}
	return c.position, true
}

func (w *World) SetCharacterWalkSpeed(id uint64, speed float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c, ok := w.characters[id]; ok {
		c.walkSpeed = speed
	}
}

func (w *World) SetCharacterTarget(id uint64, target *values.Vector3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.characters[id]
	if !ok {
		return
	}
	c.target = target
	c.moveToElapsed = 0
}

func (w *World) SetCharacterYaw(id uint64, yaw float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c, ok := w.characters[id]; ok {
		c.yaw = yaw
	}
}

func (w *World) CharacterYaw(id uint64) (float64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.characters[id]
	if !ok {
		return 0, false
	}
	return c.yaw, true
}

// RequestCharacterJump latches a jump request in the buffer: within the
// buffer window, the next grounded tick consumes it (spec §4.3, §4.4).
func (w *World) RequestCharacterJump(id uint64, power float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.characters[id]
	if !ok {
		return
	}
	c.jumpBufferTimer = w.jumpBufferWindow
	c.pendingJumpPower = power
}

// TryConsumeCharacterJump honours a pending jump request within the buffer
// window: if canJump (grounded or coyote-time) and a jump is pending, it
// returns the requested power and clears the buffer (spec's
// `try_consume_character_jump(can_jump, current_vy) → Option<power>`;
// current_vy is accepted for signature fidelity though this implementation
// doesn't need it to decide consumption).
func (w *World) TryConsumeCharacterJump(id uint64, canJump bool, currentVy float64) (float64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = currentVy
	c, ok := w.characters[id]
	if !ok || !canJump || c.jumpBufferTimer <= 0 {
		return 0, false
	}
	c.jumpBufferTimer = 0
	power := c.pendingJumpPower
	c.pendingJumpPower = 0
	return power, true
}

// TickCharacterJumpBuffer decays every character's jump-buffer timer by dt.
func (w *World) TickCharacterJumpBuffer(dt float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range w.characters {
		if c.jumpBufferTimer > 0 {
			c.jumpBufferTimer -= dt
			if c.jumpBufferTimer < 0 {
				c.jumpBufferTimer = 0
			}
		}
	}
}

// MoveCharacter sweeps the capsule by desired translation, clamping against
// any collidable body it would otherwise penetrate, and reports whether it
// ended the tick grounded (a collidable surface directly beneath its feet).
func (w *World) MoveCharacter(id uint64, desired values.Vector3, dt float64) (values.Vector3, bool) {
	w.mu.Lock()
	c, ok := w.characters[id]
	if !ok {
		w.mu.Unlock()
		return values.Vector3{}, false
	}
	bodies := make([]*body, 0, len(w.bodies))
	for _, b := range w.bodies {
		if b.collides {
			bodies = append(bodies, b)
		}
	}
	w.mu.Unlock()

	applied := desired
	target := c.position.Add(desired)
	capsuleSupport := func(center values.Vector3) supportFunc {
		return sphereSupport(center, c.radius)
	}
	for _, b := range bodies {
		if gjkOverlap(capsuleSupport(target), b.support) {
			// Resolve along the single axis with the least AABB penetration,
			// a deliberate simplification: the controller only
			// needs to stop the capsule from tunnelling, not a full contact
			// manifold.
			target = resolveCapsulePenetration(target, c.radius, b)
		}
	}
	applied = target.Sub(c.position)

	w.mu.Lock()
	c.position = target
	grounded := w.groundedAt(c)
	c.grounded = grounded
	w.mu.Unlock()
	return applied, grounded
}

func resolveCapsulePenetration(center values.Vector3, radius float64, b *body) values.Vector3 {
	bMin, bMax := b.aabb()
	cMin := center.Sub(values.NewVector3(radius, radius, radius))
	cMax := center.Add(values.NewVector3(radius, radius, radius))
	overlapX := math.Min(cMax.X, bMax.X) - math.Max(cMin.X, bMin.X)
	overlapY := math.Min(cMax.Y, bMax.Y) - math.Max(cMin.Y, bMin.Y)
	overlapZ := math.Min(cMax.Z, bMax.Z) - math.Max(cMin.Z, bMin.Z)
	if overlapX <= 0 || overlapY <= 0 || overlapZ <= 0 {
		return center
	}
	bCenter := b.pose.Position
	switch {
	case overlapX <= overlapY && overlapX <= overlapZ:
		if center.X < bCenter.X {
			center.X -= overlapX
		} else {
			center.X += overlapX
		}
	case overlapY <= overlapX && overlapY <= overlapZ:
		if center.Y < bCenter.Y {
			center.Y -= overlapY
		} else {
			center.Y += overlapY
		}
	default:
		if center.Z < bCenter.Z {
			center.Z -= overlapZ
		} else {
			center.Z += overlapZ
		}
	}
	return center
}

// groundedAt reports whether a collidable surface sits within a small
// tolerance directly beneath the capsule's feet. Caller must hold w.mu.
func (w *World) groundedAt(c *character) bool {
	feet := c.position.Add(values.Vector3{Y: -c.height / 2})
	const tol = 0.08
	for _, b := range w.bodies {
		if !b.collides {
			continue
		}
		bMin, bMax := b.aabb()
		if feet.X < bMin.X-c.radius || feet.X > bMax.X+c.radius {
			continue
		}
		if feet.Z < bMin.Z-c.radius || feet.Z > bMax.Z+c.radius {
			continue
		}
		if feet.Y >= bMax.Y-tol && feet.Y <= bMax.Y+tol {
			return true
		}
	}
	return false
}

// GetGroundKinematicSupport samples straight down from the capsule's feet
// for a collidable surface within maxDist, returning its distance and the
// implied kinematic velocity of that surface (for moving-platform carry).
func (w *World) GetGroundKinematicSupport(id uint64, maxDist float64) (*GroundSupport, bool) {
	w.mu.Lock()
	c, ok := w.characters[id]
	if !ok {
		w.mu.Unlock()
		return nil, false
	}
	feet := c.position.Add(values.Vector3{Y: -c.height / 2})
	var best *GroundSupport
	var bestVel values.Vector3
	for _, b := range w.bodies {
		if !b.collides {
			continue
		}
		bMin, bMax := b.aabb()
		if feet.X < bMin.X-c.radius || feet.X > bMax.X+c.radius {
			continue
		}
		if feet.Z < bMin.Z-c.radius || feet.Z > bMax.Z+c.radius {
			continue
		}
		d := feet.Y - bMax.Y
		if d < 0 {
			d = 0
		}
		if d > maxDist {
			continue
		}
		if best == nil || d < best.Distance {
			best = &GroundSupport{Distance: d}
			bestVel = b.lastKinematicVelocity
		}
	}
	w.mu.Unlock()
	if best == nil {
		return nil, false
	}
	best.Velocity = bestVel
	return best, true
}

// GetCharacterContactKinematicVelocity returns the contact velocity last
// stored by SetCharacterContactKinematicVelocity (zero until it is set).
func (w *World) GetCharacterContactKinematicVelocity(id uint64) values.Vector3 {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.characters[id]
	if !ok {
		return values.Vector3{}
	}
	return c.contactVelocity
}

// SetCharacterContactKinematicVelocity stores the character's contact
// velocity. Nothing in this module calls it; the character controller only
// reads the value back, and carries by platform via ground support instead.
func (w *World) SetCharacterContactKinematicVelocity(id uint64, v values.Vector3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c, ok := w.characters[id]; ok {
		c.contactVelocity = v
	}
}

func (w *World) CharacterWalkSpeed(id uint64) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c, ok := w.characters[id]; ok {
		return c.walkSpeed
	}
	return 0
}

func (w *World) CharacterTarget(id uint64) *values.Vector3 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c, ok := w.characters[id]; ok {
		return c.target
	}
	return nil
}

func (w *World) CharacterMoveToElapsed(id uint64) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c, ok := w.characters[id]; ok {
		return c.moveToElapsed
	}
	return 0
}

func (w *World) AdvanceCharacterMoveToElapsed(id uint64, dt float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c, ok := w.characters[id]; ok {
		c.moveToElapsed += dt
	}
}

func (w *World) MoveToTimeout() float64    { return w.moveToTimeout }
func (w *World) MoveReachEpsilon() float64 { return w.moveReachEpsilon }
func (w *World) PlatformStickDistance() float64 { return w.platformStickDist }
func (w *World) Gravity() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gravity
}
