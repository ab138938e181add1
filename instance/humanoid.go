package instance

import (
	"sync"

	"github.com/lguibr/voxelrealm/signal"
	"github.com/lguibr/voxelrealm/values"
)

// Humanoid is the character locomotion state and signal payload.
type Humanoid struct {
	mu sync.Mutex

	Health    float64
	MaxHealth float64

	WalkSpeed   float64
	JumpPower   float64
	JumpHeight  float64
	AutoRotate  bool
	HipHeight   float64

	MoveToTarget  *values.Vector3 // nil when no active MoveTo
	CancelMoveTo  bool
	JumpRequested bool

	RunningSpeed  float64
	MoveDirection values.Vector3

	State values.HumanoidState

	Died          *signal.Signal
	HealthChanged *signal.Signal
	MoveToFinished *signal.Signal
	Running       *signal.Signal
	StateChanged  *signal.Signal
}

// NewHumanoid returns a Humanoid payload with the original's Roblox-like
// defaults (100 health, 16 walk speed, 7.2 jump height).
func NewHumanoid() *Humanoid {
	return &Humanoid{
		Health:     100,
		MaxHealth:  100,
		WalkSpeed:  16,
		JumpPower:  50,
		JumpHeight: 7.2,
		AutoRotate: true,
		HipHeight:  2,
		State:      values.HumanoidStateNone,

		Died:           signal.New(),
		HealthChanged:  signal.New(),
		MoveToFinished: signal.New(),
		Running:        signal.New(),
		StateChanged:   signal.New(),
	}
}

// SetHealth updates health, clamping to [0, MaxHealth] and firing
// HealthChanged/Died as appropriate.
func (h *Humanoid) SetHealth(v float64) {
	h.mu.Lock()
	if v < 0 {
		v = 0
	}
	if v > h.MaxHealth {
		v = h.MaxHealth
	}
	wasAlive := h.Health > 0
	h.Health = v
	h.mu.Unlock()

	h.HealthChanged.FireSync(nil, v)
	if wasAlive && v <= 0 {
		h.SetState(values.HumanoidStateDead)
		h.Died.FireSync(nil)
	}
}

// MoveTo sets a new move-to target, clearing any cancel/timeout bookkeeping.
func (h *Humanoid) MoveTo(target values.Vector3) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t := target
	h.MoveToTarget = &t
	h.CancelMoveTo = false
}

// CancelMove marks the current MoveTo for cancellation; the tick pipeline
// fires MoveToFinished(false) and clears the target on the next controller
// sync phase.
func (h *Humanoid) CancelMove() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.CancelMoveTo = true
}

func (h *Humanoid) RequestJump() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.JumpRequested = true
}

// ConsumeJumpRequest clears and returns JumpRequested, used by the
// controller target sync phase so a request is only latched once.
func (h *Humanoid) ConsumeJumpRequest() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.JumpRequested {
		return false
	}
	h.JumpRequested = false
	return true
}

// FinishMove clears the move-to target and fires MoveToFinished(reached),
// called by the character controller on arrival or timeout.
func (h *Humanoid) FinishMove(reached bool) {
	h.mu.Lock()
	h.MoveToTarget = nil
	h.mu.Unlock()
	h.MoveToFinished.FireSync(nil, reached)
}

// FireRunning records the current horizontal speed and fires Running(speed).
func (h *Humanoid) FireRunning(speed float64) {
	h.mu.Lock()
	h.RunningSpeed = speed
	h.mu.Unlock()
	h.Running.FireSync(nil, speed)
}

// SetState transitions the locomotion state and fires StateChanged(old,new)
// when it actually changes.
func (h *Humanoid) SetState(s values.HumanoidState) {
	h.mu.Lock()
	old := h.State
	if old == s {
		h.mu.Unlock()
		return
	}
	h.State = s
	h.mu.Unlock()
	h.StateChanged.FireSync(nil, old, s)
}
