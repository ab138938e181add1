package character

import (
	"math"

	"github.com/lguibr/voxelrealm/instance"
	"github.com/lguibr/voxelrealm/physics"
	"github.com/lguibr/voxelrealm/values"
)

// motionThreshold is the horizontal speed above which Humanoid.Running
// fires.
const motionThreshold = 0.1

// runnerState tracks the one-tick Landed transition per character, keyed by
// the HumanoidRootPart's physics body id.
type runnerState struct {
	wasGrounded bool
	landedTick  bool
}

// Controller advances every character body in a physics.World for one tick,
// driving each owning Humanoid's locomotion state machine and signals.
// One Controller is owned per game instance (spec §4.4).
type Controller struct {
	world  *physics.World
	states map[uint64]*runnerState
	vy     map[uint64]float64
}

func NewController(world *physics.World) *Controller {
	return &Controller{
		world:  world,
		states: make(map[uint64]*runnerState),
		vy:     make(map[uint64]float64),
	}
}

// Step runs the motion plan for one character/humanoid pair and applies it
// (spec §4.1 phase 10). bodyID is the HumanoidRootPart's physics id.
func (c *Controller) Step(bodyID uint64, h *instance.Humanoid, dt float64) {
	st, ok := c.states[bodyID]
	if !ok {
		st = &runnerState{}
		c.states[bodyID] = st
	}

	pos, ok := c.world.CharacterPosition(bodyID)
	if !ok {
		return
	}

	support, hasSupport := c.world.GetGroundKinematicSupport(bodyID, 0.15)
	grounded := hasSupport && support.Distance <= 0.05
	carried := hasSupport && support.Distance <= c.world.PlatformStickDistance()

	if h.ConsumeJumpRequest() {
		c.world.RequestCharacterJump(bodyID, h.JumpPower)
	}

	vy := c.vy[bodyID]
	jumpPower, consumed := c.world.TryConsumeCharacterJump(bodyID, grounded, vy)

	var platformVel values.Vector3
	if carried && hasSupport {
		platformVel = support.Velocity
	}

	plan := Compute(PlanInput{
		Position:          pos,
		Target:            c.world.CharacterTarget(bodyID),
		WalkSpeed:         h.WalkSpeed,
		VerticalVelocity:  vy,
		Gravity:           -c.world.Gravity(),
		Dt:                dt,
		Grounded:          grounded,
		CarriedByPlatform: carried,
		JumpConsumed:      consumed,
		JumpPower:         jumpPower,
		JumpHeight:        h.JumpHeight,
		PlatformVelocity:  platformVel,
		ContactVelocity:   c.world.GetCharacterContactKinematicVelocity(bodyID),
		ReachEpsilon:      c.world.MoveReachEpsilon(),
	})

	applied, nowGrounded := c.world.MoveCharacter(bodyID, plan.Desired, dt)
	resolvedVY := ResolveVerticalVelocity(plan.VY, nowGrounded, plan.Desired.Y, applied.Y)
	c.vy[bodyID] = resolvedVY

	if c.world.CharacterTarget(bodyID) != nil {
		if plan.Reached || c.world.CharacterMoveToElapsed(bodyID) >= c.world.MoveToTimeout() {
			c.world.SetCharacterTarget(bodyID, nil)
			h.FinishMove(plan.Reached)
		} else {
			c.world.AdvanceCharacterMoveToElapsed(bodyID, dt)
		}
	}

	c.updateLocomotionState(st, h, nowGrounded, resolvedVY, applied)
	c.autoRotate(bodyID, h, applied, dt)
}

// Forget drops per-character controller state (vertical velocity, landed
// edge tracking) once a character is removed from the world.
func (c *Controller) Forget(bodyID uint64) {
	delete(c.states, bodyID)
	delete(c.vy, bodyID)
}

func (c *Controller) updateLocomotionState(st *runnerState, h *instance.Humanoid, grounded bool, vy float64, applied values.Vector3) {
	horizSpeed := values.Vector3{X: applied.X, Z: applied.Z}.Length()

	var next values.HumanoidState
	switch {
	case h.Health <= 0:
		next = values.HumanoidStateDead
	case grounded && !st.wasGrounded:
		next = values.HumanoidStateLanded
		st.landedTick = true
	case st.landedTick:
		next = values.HumanoidStateRunning
		st.landedTick = false
	case grounded:
		next = values.HumanoidStateRunning
	case vy > 0:
		next = values.HumanoidStateJumping
	default:
		next = values.HumanoidStateFreefall
	}
	st.wasGrounded = grounded

	h.SetState(next)
	if grounded && horizSpeed > motionThreshold {
		h.FireRunning(horizSpeed / tickDt)
	}
}

const tickDt = 1.0 / 60.0

func (c *Controller) autoRotate(bodyID uint64, h *instance.Humanoid, applied values.Vector3, dt float64) {
	if !h.AutoRotate {
		return
	}
	horiz := values.Vector3{X: applied.X, Z: applied.Z}
	if horiz.Length() < 1e-4 {
		return
	}
	targetYaw := math.Atan2(-horiz.X, horiz.Z)
	currentYaw, _ := c.world.CharacterYaw(bodyID)

	const turnRate = 10.0 // radians/sec toward target yaw
	diff := shortestAngleDiff(currentYaw, targetYaw)
	maxStep := turnRate * dt
	switch {
	case math.Abs(diff) < maxStep:
		currentYaw = targetYaw
	case diff > 0:
		currentYaw += maxStep
	default:
		currentYaw -= maxStep
	}
	c.world.SetCharacterYaw(bodyID, currentYaw)
}

func shortestAngleDiff(from, to float64) float64 {
	d := math.Mod(to-from+math.Pi, 2*math.Pi)
	if d < 0 {
		d += 2 * math.Pi
	}
	return d - math.Pi
}
