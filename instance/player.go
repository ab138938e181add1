package instance

import "github.com/lguibr/voxelrealm/signal"

// Player is the per-agent payload: a stable numeric user id, display name,
// and weak references (plain pointers; the instance manager owns the
// strong root) to the player's character model and PlayerGui.
type Player struct {
	UserID      uint64
	DisplayName string

	Character *Node // weak: Model
	PlayerGui *Node // weak: PlayerGui

	CharacterAdded    *signal.Signal
	CharacterRemoving *signal.Signal

	// InputReceived fires (player, type_string, payload) on tick phase 7
	// for every queued agent input (spec §4.1).
	InputReceived *signal.Signal

	// KickRequested is latched by Player:Kick() and consumed by the tick
	// pipeline's kick-drain phase (spec §4.1 phase 1, §4.6).
	KickRequested bool
}

// RequestKick latches a kick request, consumed once by ConsumeKickRequest.
func (p *Player) RequestKick() { p.KickRequested = true }

// ConsumeKickRequest clears and returns KickRequested.
func (p *Player) ConsumeKickRequest() bool {
	if !p.KickRequested {
		return false
	}
	p.KickRequested = false
	return true
}

func NewPlayer(userID uint64, displayName string) *Player {
	return &Player{
		UserID:            userID,
		DisplayName:       displayName,
		CharacterAdded:    signal.New(),
		CharacterRemoving: signal.New(),
		InputReceived:     signal.New(),
	}
}

// SetCharacter assigns the player's character model, firing
// CharacterRemoving for the outgoing one (if any) and CharacterAdded for
// the new one, matching the original's replace-in-place semantics.
func (p *Player) SetCharacter(model *Node) {
	if p.Character != nil {
		p.CharacterRemoving.FireSync(nil, p.Character)
	}
	p.Character = model
	if model != nil {
		p.CharacterAdded.FireSync(nil, model)
	}
}

// Model is the grouping-node payload: a weak reference to its primary part.
type Model struct {
	PrimaryPart *Node
}

func NewModel() *Model { return &Model{} }
