// Package runtime bundles one game instance's owned collaborators —
// scripting runtime, physics world, character controller, scene tree, and
// per-player bookkeeping — behind the single Tick entry point package
// manager drives (spec §3 "Instance (game instance)").
//
// Grounded on original_source/src/game/instance.rs field-for-field (this is
// the most direct transcription in the module, since the spec's own §3
// bundle description names exactly these fields) and on teacher's
// game/game_actor.go struct shape (config + owned state + a single
// lifecycle entry point) for how a teacher "room" struct is organized.
package runtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lguibr/voxelrealm/character"
	"github.com/lguibr/voxelrealm/instance"
	"github.com/lguibr/voxelrealm/physics"
	"github.com/lguibr/voxelrealm/script"
	"github.com/lguibr/voxelrealm/tick"
	"github.com/lguibr/voxelrealm/values"
)

// Status is the instance lifecycle state (spec §3).
type Status int

const (
	StatusWaiting Status = iota
	StatusPlaying
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "Playing"
	case StatusFinished:
		return "Finished"
	default:
		return "Waiting"
	}
}

// Config bundles the tunables a new Instance needs: the game definition it
// belongs to, its capacity, error policy, and an optional startup script.
type Config struct {
	GameID       string
	MaxPlayers   int
	ErrorMode    script.ErrorMode
	ScriptSource string
	AFKTimeout   time.Duration
	Physics      physics.Config
	Broker       script.Broker
	Log          *zap.SugaredLogger

	// CharacterRadius/CharacterHeight/WalkSpeed/JumpHeight default to the
	// spec §6 configuration-surface values (0.5, 2.0, 16, 7.2) when zero.
	CharacterRadius float64
	CharacterHeight float64
	WalkSpeed       float64
	JumpHeight      float64
}

// Instance is one running game world: a process-unique id, its scripting
// runtime, physics world, and the tick pipeline context wired around them.
type Instance struct {
	mu sync.RWMutex

	ID     string
	GameID string

	tree       *instance.Tree
	scriptRT   *script.Runtime
	world      *physics.World
	controller *character.Controller
	ctx        *tick.Context

	workspace  *instance.Node
	players    *instance.Node
	runService *instance.Node

	maxPlayers int
	status     Status
	createdAt  time.Time
	emptySince *time.Time

	characterRadius float64
	characterHeight float64
	walkSpeed       float64
	jumpHeight      float64

	agentPlayer map[string]*instance.Node // agent_id -> Player node
}

// New constructs an empty instance bound to cfg.GameID (spec §3
// "Lifecycle: created by the manager ... Empty at construction").
func New(cfg Config) *Instance {
	tree := &instance.Tree{}
	workspace := tree.New(instance.ClassWorkspace, "Workspace", nil)
	players := tree.New(instance.ClassPlayers, "Players", nil)
	runService := tree.New(instance.ClassRunService, "RunService", nil)
	dataStore, _ := tree.NewInstance(instance.ClassFolder, nil)
	dataStore.SetName("DataStoreService")

	svc := script.Services{
		Workspace:        workspace,
		Players:          players,
		RunService:       runService,
		DataStoreService: dataStore,
	}
	scriptRT := script.NewRuntime(tree, svc, cfg.ErrorMode, cfg.Log)
	if cfg.Broker != nil {
		scriptRT.SetBroker(cfg.Broker)
	}

	physCfg := cfg.Physics
	if physCfg == (physics.Config{}) {
		physCfg = physics.DefaultConfig()
	}
	world := physics.NewWorld(physCfg)
	ctrl := character.NewController(world)

	afk := cfg.AFKTimeout
	if afk <= 0 {
		afk = 300 * time.Second
	}
	ctx := tick.NewContext(tree, workspace, runService, scriptRT, world, ctrl, afk)

	radius, height, walkSpeed, jumpHeight := cfg.CharacterRadius, cfg.CharacterHeight, cfg.WalkSpeed, cfg.JumpHeight
	if radius <= 0 {
		radius = 0.5
	}
	if height <= 0 {
		height = 2.0
	}
	if walkSpeed <= 0 {
		walkSpeed = 16
	}
	if jumpHeight <= 0 {
		jumpHeight = 7.2
	}

	inst := &Instance{
		ID:              uuid.NewString(),
		GameID:          cfg.GameID,
		tree:            tree,
		scriptRT:        scriptRT,
		world:           world,
		controller:      ctrl,
		ctx:             ctx,
		workspace:       workspace,
		players:         players,
		runService:      runService,
		maxPlayers:      cfg.MaxPlayers,
		status:          StatusWaiting,
		createdAt:       time.Now(),
		characterRadius: radius,
		characterHeight: height,
		walkSpeed:       walkSpeed,
		jumpHeight:      jumpHeight,
		agentPlayer:     make(map[string]*instance.Node),
	}
	now := time.Now()
	inst.emptySince = &now

	if cfg.ScriptSource != "" {
		scriptNode, _ := tree.NewInstance(instance.ClassScript, nil)
		scriptNode.SetParent(workspace)
		scriptNode.ScriptSource.Source = cfg.ScriptSource
	}
	return inst
}

// Tick advances the instance by one Δt (spec §4.1). Returns an error (and
// marks the instance Finished) if the pipeline reports a Halt-mode error or
// panics; panics are isolated to this instance (spec §4.6).
func (inst *Instance) Tick(now time.Time) (err error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during tick: %v", r)
			inst.status = StatusFinished
		}
	}()

	if inst.status == StatusFinished {
		return fmt.Errorf("instance %s already finished", inst.ID)
	}
	if runErr := inst.ctx.Run(now, inst.world.Gravity()); runErr != nil {
		inst.status = StatusFinished
		return runErr
	}
	if inst.status == StatusWaiting && len(inst.ctx.Players) > 0 {
		inst.status = StatusPlaying
	}
	return nil
}

// HasCapacity reports whether another player can join (spec §4.6).
func (inst *Instance) HasCapacity() bool {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	return len(inst.ctx.Players) < inst.maxPlayers
}

// Halted reports whether the scripting runtime has frozen this instance.
func (inst *Instance) Halted() bool {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	return inst.scriptRT.Halted()
}

// HaltedError returns the first script error that froze this instance, if any.
func (inst *Instance) HaltedError() string {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	return inst.scriptRT.HaltedError
}

// Status returns the current lifecycle status.
func (inst *Instance) Status() Status {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	return inst.status
}

// PlayerCount returns the number of currently joined players.
func (inst *Instance) PlayerCount() int {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	return len(inst.ctx.Players)
}

// EmptySince returns when the player set last became empty, or nil if it
// currently has players (spec §3).
func (inst *Instance) EmptySince() *time.Time {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	return inst.emptySince
}

// Join adds a player atomically under the instance's write lock (spec
// §4.6): checks capacity and halted state, spawns a character, and returns
// a "full" error when a concurrent join took the last slot; that error is
// passed back to the caller and nothing retries.
func (inst *Instance) Join(agentID string, userID uint64, displayName string) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	if inst.scriptRT.Halted() {
		return fmt.Errorf("instance halted: %s", inst.scriptRT.HaltedError)
	}
	if _, already := inst.agentPlayer[agentID]; already {
		return fmt.Errorf("agent %s already in instance %s", agentID, inst.ID)
	}
	if len(inst.ctx.Players) >= inst.maxPlayers {
		return fmt.Errorf("instance %s is full", inst.ID)
	}

	playerNode, err := inst.tree.NewInstance(instance.ClassPlayer, inst.players)
	if err != nil {
		return err
	}
	playerNode.SetName(displayName)
	playerNode.Player.UserID = userID
	playerNode.Player.DisplayName = displayName

	model, _ := inst.tree.NewInstance(instance.ClassModel, inst.workspace)
	model.SetName(displayName)
	root, _ := inst.tree.NewInstance(instance.ClassPart, model)
	root.SetName("HumanoidRootPart")
	root.Part.SetPosition(values.Vector3{X: 0, Y: 6, Z: 0})
	root.Part.CanCollide = false
	humanoidNode, _ := inst.tree.NewInstance(instance.ClassHumanoid, model)
	humanoidNode.Humanoid.WalkSpeed = inst.walkSpeed
	humanoidNode.Humanoid.JumpHeight = inst.jumpHeight
	model.Model.PrimaryPart = root
	playerNode.Player.SetCharacter(model)

	inst.world.AddCharacter(root.ID(), root.Part.Position, inst.characterRadius, inst.characterHeight)

	inst.agentPlayer[agentID] = playerNode
	inst.ctx.Players[agentID] = &tick.PlayerState{
		AgentID:      agentID,
		PlayerNode:   playerNode,
		BodyID:       root.ID(),
		Humanoid:     humanoidNode.Humanoid,
		LastActivity: time.Now(),
	}
	inst.emptySince = nil
	return nil
}

// Leave removes agentID's player (spec §6 leave_instance). Idempotent: a
// caller leaving a player not present gets a NotFound-shaped error (spec
// §8's idempotence property), never a panic.
func (inst *Instance) Leave(agentID string) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.removeLocked(agentID)
}

func (inst *Instance) removeLocked(agentID string) error {
	playerNode, ok := inst.agentPlayer[agentID]
	if !ok {
		return fmt.Errorf("agent %s not in instance %s", agentID, inst.ID)
	}
	ps := inst.ctx.Players[agentID]
	if ps != nil && ps.BodyID != 0 {
		inst.world.RemoveCharacter(ps.BodyID)
		inst.controller.Forget(ps.BodyID)
	}
	if playerNode.Player != nil && playerNode.Player.Character != nil {
		playerNode.Player.Character.Destroy()
	}
	playerNode.Destroy()

	delete(inst.agentPlayer, agentID)
	delete(inst.ctx.Players, agentID)

	if len(inst.ctx.Players) == 0 {
		now := time.Now()
		inst.emptySince = &now
	}
	return nil
}

// QueueInput pushes a queued input for agentID and updates its activity
// timestamp (spec §6 queue_input).
func (inst *Instance) QueueInput(agentID, typeString string, payload map[string]any) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	ps, ok := inst.ctx.Players[agentID]
	if !ok {
		return fmt.Errorf("agent %s not in instance %s", agentID, inst.ID)
	}
	var guiID uint64
	if typeString == "GuiClick" {
		if id, ok := payload["gui_id"].(float64); ok {
			guiID = uint64(id)
		}
	}
	ps.Queue = append(ps.Queue, tick.InputEvent{Type: typeString, Payload: payload, GUIID: guiID})
	ps.LastActivity = time.Now()
	return nil
}

// Kick requests agentID's removal at the start of the next tick, the path
// Player:Kick() uses from script (spec §4.6).
func (inst *Instance) Kick(agentID string) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if ps, ok := inst.ctx.Players[agentID]; ok {
		ps.KickRequested = true
	}
}

// Workspace exposes the scene root for observation builders.
func (inst *Instance) Workspace() *instance.Node { return inst.workspace }

// PlayersNode exposes the Players service node for observation builders.
func (inst *Instance) PlayersNode() *instance.Node { return inst.players }

// World exposes the physics world for observation builders' line-of-sight
// and position queries.
func (inst *Instance) World() *physics.World { return inst.world }

// TickCount returns the monotone tick counter.
func (inst *Instance) TickCount() uint64 {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	return inst.ctx.TickCount
}

// ServerTimeMs returns milliseconds elapsed since instance creation.
func (inst *Instance) ServerTimeMs() int64 {
	return time.Since(inst.createdAt).Milliseconds()
}

// Agents returns a snapshot of currently joined agent ids.
func (inst *Instance) Agents() []string {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	out := make([]string, 0, len(inst.agentPlayer))
	for id := range inst.agentPlayer {
		out = append(out, id)
	}
	return out
}

// AgentBody returns the HumanoidRootPart body id for agentID, and its
// Player node, for observation builders.
func (inst *Instance) AgentBody(agentID string) (uint64, *instance.Node, bool) {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	ps, ok := inst.ctx.Players[agentID]
	if !ok {
		return 0, nil, false
	}
	return ps.BodyID, ps.PlayerNode, true
}

// Close releases the scripting VM.
func (inst *Instance) Close() { inst.scriptRT.Close() }
