// Package character implements the per-player locomotion controller:
// the motion-plan integrator of spec §4.4 and the Running/Jumping/Freefall/
// Landed/Dead/Physics/None state machine, layered on top of package
// physics's kinematic-capsule primitives. Grounded on the teacher's
// per-tick actor-driven update loops (lguibr-pongo/game/paddle.go,
// ball.go) for the "pure function computes a plan, caller applies it"
// shape, adapted from 2D paddle movement to the spec's 3D gravity +
// jump-buffer + platform-carry contract.
package character

import (
	"math"

	"github.com/lguibr/voxelrealm/values"
)

// PlanInput is every input the motion-plan formula in spec §4.4 needs.
type PlanInput struct {
	Position        values.Vector3
	Target          *values.Vector3
	WalkSpeed       float64
	VerticalVelocity float64
	Gravity         float64
	Dt              float64
	Grounded        bool
	CarriedByPlatform bool
	JumpConsumed    bool
	JumpPower       float64
	JumpHeight      float64
	PlatformVelocity values.Vector3
	ContactVelocity values.Vector3
	ReachEpsilon    float64
}

// Plan is the motion-plan function's output: the displacement to apply this
// tick, the new vertical velocity, and whether the target was reached.
type Plan struct {
	Desired values.Vector3
	VY      float64
	Reached bool
}

// Compute implements spec §4.4's motion-plan algorithm exactly: gravity
// integration, jump consumption, horizontal pursuit of Target at WalkSpeed,
// vertical displacement gated by grounded/carried state, and platform +
// contact velocity addition.
func Compute(in PlanInput) Plan {
	vy := in.VerticalVelocity + in.Gravity*in.Dt

	if in.Grounded && in.JumpConsumed {
		vy = math.Min(in.JumpPower, math.Sqrt(2*math.Abs(in.Gravity)*in.JumpHeight))
	}

	var horizontal values.Vector3
	reached := false
	if in.Target != nil {
		toTarget := values.Vector3{X: in.Target.X - in.Position.X, Z: in.Target.Z - in.Position.Z}
		dist := toTarget.Length()
		if dist <= in.ReachEpsilon {
			reached = true
		} else {
			step := in.WalkSpeed * in.Dt
			if step >= dist {
				horizontal = toTarget
			} else {
				horizontal = toTarget.Scale(step / dist)
			}
		}
	}

	var vertical values.Vector3
	if (in.Grounded || in.CarriedByPlatform) && vy <= 0 {
		vertical = values.Vector3{}
	} else {
		vertical = values.Vector3{Y: vy * in.Dt}
	}

	if in.CarriedByPlatform {
		horizontal = horizontal.Add(values.Vector3{X: in.PlatformVelocity.X * in.Dt, Z: in.PlatformVelocity.Z * in.Dt})
		vertical.Y += in.PlatformVelocity.Y * in.Dt
	}

	horizontal = horizontal.Add(values.Vector3{X: in.ContactVelocity.X * in.Dt, Z: in.ContactVelocity.Z * in.Dt})

	return Plan{
		Desired: values.Vector3{X: horizontal.X, Y: vertical.Y, Z: horizontal.Z},
		VY:      vy,
		Reached: reached,
	}
}

// ResolveVerticalVelocity applies the post-move clamp spec §4.4 describes:
// clamp to >= 0 if now grounded and was negative; clamp to 0 if a positive
// desired Y was blocked by the world (applied.Y came back much smaller than
// desired.Y while still trying to rise).
func ResolveVerticalVelocity(vy float64, grounded bool, desiredY, appliedY float64) float64 {
	if grounded && vy < 0 {
		return 0
	}
	if desiredY > 0 && appliedY < desiredY-1e-6 {
		return 0
	}
	return vy
}
