// Package tick implements the fixed-order, 15-phase per-frame pipeline (spec
// §4.1): script lifecycle, physics synchronisation, character locomotion,
// rigid-body stepping, touch-event derivation, and back-propagation of
// simulated state into the script world. Reordering any phase changes
// observable semantics, so Run calls them in exactly the order below.
//
// Grounded on original_source/src/game/instance/tick_pipeline.rs for phase
// order (close to a direct transcription, per the spec's own warning against
// reordering) and on teacher's game/game_actor.go GameTick handler for the
// "one function per phase, called in a fixed order from one Tick method"
// shape.
package tick

import (
	"fmt"
	"time"

	"github.com/lguibr/voxelrealm/character"
	"github.com/lguibr/voxelrealm/instance"
	"github.com/lguibr/voxelrealm/physics"
	"github.com/lguibr/voxelrealm/script"
	"github.com/lguibr/voxelrealm/values"
)

// Dt is the fixed simulation step, spec §4.1's "Δt = 1/60 s".
const Dt = 1.0 / 60.0

// AFKSweepInterval is the tick count between AFK sweeps (spec phase 2).
const AFKSweepInterval = 60

// InputEvent is one queued agent input awaiting delivery (phase 7).
type InputEvent struct {
	Type    string
	Payload map[string]any
	GUIID   uint64 // non-zero when Type == "GuiClick" and it targets a known element
}

// PlayerState is the per-player bookkeeping a Context tracks across ticks:
// the agent's character body, its owning Humanoid, and AFK/kick bookkeeping.
type PlayerState struct {
	AgentID      string
	PlayerNode   *instance.Node
	BodyID       uint64 // HumanoidRootPart physics id
	Humanoid     *instance.Humanoid
	LastActivity time.Time
	KickRequested bool

	Queue []InputEvent
}

// Context is everything one tick of one game instance needs: the scene
// tree, the owned physics world and character controller, the scripting
// runtime, and per-player state. package runtime constructs and owns one of
// these per game instance; package manager drives Run on a fixed-rate loop.
type Context struct {
	Tree       *instance.Tree
	Workspace  *instance.Node
	RunService *instance.Node
	Script     *script.Runtime
	Physics    *physics.World
	Controller *character.Controller

	Players map[string]*PlayerState

	AFKTimeout time.Duration

	TickCount  uint64
	GameTimeS  float64

	prevTouch map[[2]uint64]bool
	started   map[uint64]bool // Script/ModuleScript instance ids already run once
}

// NewContext wires a fresh pipeline context around already-constructed
// collaborators (spec §3's "game instance bundles ... an owned scripting
// runtime; an owned physics world").
func NewContext(tree *instance.Tree, workspace, runService *instance.Node, scriptRT *script.Runtime, world *physics.World, ctrl *character.Controller, afkTimeout time.Duration) *Context {
	return &Context{
		Tree:       tree,
		Workspace:  workspace,
		RunService: runService,
		Script:     scriptRT,
		Physics:    world,
		Controller: ctrl,
		Players:    make(map[string]*PlayerState),
		AFKTimeout: afkTimeout,
		prevTouch:  make(map[[2]uint64]bool),
		started:    make(map[uint64]bool),
	}
}

// Run advances the instance by one Dt, in the spec's 15-phase order. It
// returns the first error reported in Halt mode (the script runtime's own
// HaltedError is the authoritative record; this return value is what lets
// package runtime mark the instance Finished).
func (c *Context) Run(now time.Time, gravity float64) error {
	if c.Script.Halted() {
		return fmt.Errorf("instance halted: %s", c.Script.HaltedError)
	}

	c.kickDrain()
	c.afkSweep(now)
	c.beginFrame(now)
	c.animationStep()
	c.gravitySync(gravity)
	c.scriptToPhysicsSync()
	c.inputDelivery()
	c.controllerTargetSync()
	c.queryRefresh()
	c.characterStep()
	c.physicsStep()
	c.touchDiff()
	c.physicsToScriptSync()
	c.weldPropagation()
	c.endFrame()

	c.TickCount++
	c.GameTimeS += Dt

	if c.Script.Halted() {
		return fmt.Errorf("instance halted: %s", c.Script.HaltedError)
	}
	return nil
}

// kickDrain removes any players the script marked for kicking since the
// last tick (phase 1).
func (c *Context) kickDrain() {
	for agentID, ps := range c.Players {
		kicked := ps.KickRequested
		if ps.PlayerNode != nil && ps.PlayerNode.Player != nil {
			kicked = ps.PlayerNode.Player.ConsumeKickRequest() || kicked
		}
		if !kicked {
			continue
		}
		c.removePlayer(agentID, ps)
	}
}

func (c *Context) removePlayer(agentID string, ps *PlayerState) {
	if ps.BodyID != 0 {
		c.Physics.RemoveCharacter(ps.BodyID)
		c.Controller.Forget(ps.BodyID)
	}
	delete(c.Players, agentID)
}

// afkSweep runs every AFKSweepInterval ticks (phase 2): any player whose
// agent-input queue was non-empty this window already had LastActivity
// bumped by QueueInput; players idle beyond AFKTimeout are kicked.
func (c *Context) afkSweep(now time.Time) {
	if c.AFKTimeout <= 0 || c.TickCount%AFKSweepInterval != 0 {
		return
	}
	for agentID, ps := range c.Players {
		if now.Sub(ps.LastActivity) > c.AFKTimeout {
			ps.KickRequested = true
		}
		_ = agentID
	}
	c.kickDrain()
}

// beginFrame runs the VM's pre-physics block (phase 3): resumes ready
// continuations, fires Stepped, and starts any never-executed Script
// instance found under Workspace.
func (c *Context) beginFrame(now time.Time) {
	c.Script.Poll(now)
	c.Script.FireStepped(c.GameTimeS, Dt)

	for _, n := range c.Workspace.GetDescendantsOfClass(instance.ClassScript) {
		c.runIfNew(n)
	}
}

func (c *Context) runIfNew(n *instance.Node) {
	if n.ScriptSource == nil || n.ScriptSource.Disabled || c.started[n.ID()] {
		return
	}
	c.started[n.ID()] = true
	if err := c.Script.RunSource(n.Name(), n.ScriptSource.Source, n); err != nil {
		c.Script.HaltedError = err.Error()
	}
}

// animationStep advances animation tracks. Animator instances are not yet
// part of SPEC_FULL.md's instance tree (no Animator/AnimationTrack variant
// payload exists in package instance), so phase 4 is a documented no-op
// until that payload lands — weight normalisation has nothing to act on.
func (c *Context) animationStep() {}

// gravitySync mirrors Workspace.Gravity into the physics world (phase 5).
func (c *Context) gravitySync(gravity float64) {
	c.Physics.SetGravity(gravity)
}

// scriptToPhysicsSync creates/updates/removes physics bodies for every Part
// descendant of Workspace (phase 6).
func (c *Context) scriptToPhysicsSync() {
	live := make(map[uint64]bool)
	for _, n := range c.Workspace.GetDescendantsOfClass(instance.ClassPart) {
		p := n.Part
		if p == nil {
			continue
		}
		live[n.ID()] = true
		st := p.Snapshot()

		if !c.Physics.HasPart(n.ID()) {
			c.Physics.AddPart(n.ID(), st.CFrame, st.Size, st.Anchored, st.CanCollide, st.Shape)
			p.ClearDirty()
			continue
		}

		if c.isCharacterBody(n.ID()) {
			if st.Dirty.Position {
				c.Physics.SetKinematicPositionWithDt(n.ID(), st.Position, Dt)
			}
			p.ClearDirty()
			continue
		}

		if st.Dirty.Position {
			c.Physics.SetKinematicRotation(n.ID(), st.CFrame)
		}
		if st.Dirty.Size {
			c.Physics.SetSize(n.ID(), st.Size)
		}
		if st.Dirty.Shape {
			c.Physics.SetShape(n.ID(), st.Shape, st.Size)
		}
		if st.Dirty.CanCollide {
			c.Physics.SetCanCollide(n.ID(), st.CanCollide)
		}
		if st.Dirty.Velocity {
			c.Physics.SetVelocity(n.ID(), st.Velocity)
		}
		if st.Dirty.Anchored {
			c.Physics.SetAnchored(n.ID(), st.Anchored)
		}
		p.ClearDirty()
	}

	for _, id := range c.Physics.PartIDs() {
		if !live[id] && !c.isCharacterBody(id) {
			c.Physics.RemovePart(id)
		}
	}
}

func (c *Context) isCharacterBody(id uint64) bool {
	for _, ps := range c.Players {
		if ps.BodyID == id {
			return true
		}
	}
	return false
}

// inputDelivery fires InputReceived for each player with queued inputs, and
// MouseButton1Click for any GuiClick-tagged input (phase 7).
func (c *Context) inputDelivery() {
	for _, ps := range c.Players {
		if len(ps.Queue) == 0 {
			continue
		}
		queue := ps.Queue
		ps.Queue = nil
		for _, in := range queue {
			if ps.PlayerNode != nil {
				c.fireInputReceived(ps.PlayerNode, in)
			}
			if in.Type == "GuiClick" && in.GUIID != 0 {
				c.fireGUIClick(in.GUIID)
			}
		}
	}
}

func (c *Context) fireInputReceived(player *instance.Node, in InputEvent) {
	if player.Player == nil {
		return
	}
	c.Script.FireCoroutine(player.Player.InputReceived, player, in.Type, in.Payload)
}

func (c *Context) fireGUIClick(guiID uint64) {
	n := c.findByID(c.Workspace, guiID)
	if n == nil || n.Gui == nil {
		return
	}
	c.Script.FireCoroutine(n.Gui.MouseButton1Click, n)
}

func (c *Context) findByID(root *instance.Node, id uint64) *instance.Node {
	if root.ID() == id {
		return root
	}
	for _, ch := range root.Children() {
		if found := c.findByID(ch, id); found != nil {
			return found
		}
	}
	return nil
}

// controllerTargetSync reads each player's humanoid into the physics
// character it drives (phase 8).
func (c *Context) controllerTargetSync() {
	for _, ps := range c.Players {
		if ps.BodyID == 0 || ps.Humanoid == nil {
			continue
		}
		h := ps.Humanoid
		c.Physics.SetCharacterWalkSpeed(ps.BodyID, h.WalkSpeed)

		if h.ConsumeJumpRequest() {
			c.Physics.RequestCharacterJump(ps.BodyID, h.JumpPower)
		}
		if h.CancelMoveTo {
			c.Physics.SetCharacterTarget(ps.BodyID, nil)
			h.CancelMoveTo = false
			h.FinishMove(false)
			continue
		}
		if h.MoveToTarget != nil {
			target := *h.MoveToTarget
			if cur := c.Physics.CharacterTarget(ps.BodyID); cur == nil || *cur != target {
				c.Physics.SetCharacterTarget(ps.BodyID, &target)
			}
		}
	}
}

// queryRefresh rebuilds the broad-phase query structure (phase 9). The
// physics world here recomputes overlaps on demand rather than caching a
// broad-phase snapshot, so this phase is a deliberate no-op
// kept as an explicit pipeline step for fidelity to the spec's phase count.
func (c *Context) queryRefresh() {}

// characterStep advances every character body's motion plan (phase 10).
func (c *Context) characterStep() {
	c.Physics.TickCharacterJumpBuffer(Dt)
	for _, ps := range c.Players {
		if ps.BodyID == 0 || ps.Humanoid == nil {
			continue
		}
		c.Controller.Step(ps.BodyID, ps.Humanoid, Dt)
	}
}

// physicsStep advances rigid-body simulation by Dt (phase 11).
func (c *Context) physicsStep() {
	c.Physics.Step(Dt)
}

// touchDiff derives began/ended touch pairs against the previous frame and
// fires Touched/TouchEnded (phase 12).
func (c *Context) touchDiff() {
	current := make(map[[2]uint64]bool)
	for _, n := range c.Workspace.GetDescendantsOfClass(instance.ClassPart) {
		p := n.Part
		if p == nil || !c.Physics.HasPart(n.ID()) {
			continue
		}
		hits := c.Physics.PartsInPart(n.ID(), physics.QueryParams{RespectCanCollide: false})
		for _, other := range hits {
			if other == n.ID() {
				continue
			}
			pair := orderedPair(n.ID(), other)
			current[pair] = true
		}
	}

	for pair := range current {
		if !c.prevTouch[pair] {
			c.fireTouchPair(pair, true)
		}
	}
	for pair := range c.prevTouch {
		if !current[pair] {
			c.fireTouchPair(pair, false)
		}
	}
	c.prevTouch = current
}

func orderedPair(a, b uint64) [2]uint64 {
	if a < b {
		return [2]uint64{a, b}
	}
	return [2]uint64{b, a}
}

func (c *Context) fireTouchPair(pair [2]uint64, began bool) {
	a := c.findByID(c.Workspace, pair[0])
	b := c.findByID(c.Workspace, pair[1])
	if a == nil || b == nil || a.Part == nil || b.Part == nil {
		return
	}
	if began {
		if !a.Part.CanTouch || !b.Part.CanTouch {
			return
		}
		if a.Part.Anchored && b.Part.Anchored && !c.isCharacterBody(a.ID()) && !c.isCharacterBody(b.ID()) {
			return
		}
		c.Script.FireCoroutine(a.Part.Touched, b)
		c.Script.FireCoroutine(b.Part.Touched, a)
		return
	}
	c.Script.FireCoroutine(a.Part.TouchEnded, b)
	c.Script.FireCoroutine(b.Part.TouchEnded, a)
}

// physicsToScriptSync back-propagates simulated state into the script world
// (phase 13): character bodies adopt physics position/yaw, dynamic parts
// adopt position/rotation/velocity, anchored parts are left alone.
func (c *Context) physicsToScriptSync() {
	for _, n := range c.Workspace.GetDescendantsOfClass(instance.ClassPart) {
		p := n.Part
		if p == nil {
			continue
		}
		if c.isCharacterBody(n.ID()) {
			pos, ok := c.Physics.CharacterPosition(n.ID())
			if !ok {
				continue
			}
			yaw, _ := c.Physics.CharacterYaw(n.ID())
			p.SetCFrame(values.CFrameFromYaw(pos, yaw))
			p.ClearDirty()
			continue
		}
		if p.Anchored {
			continue
		}
		pose, ok := c.Physics.Pose(n.ID())
		if !ok {
			continue
		}
		vel, _ := c.Physics.Velocity(n.ID())
		p.SetCFrame(pose)
		p.SetVelocity(vel)
		p.ClearDirty()
	}
}

// weldPropagation sets Part1's frame from Part0's frame combined with C0
// and the inverse of C1, for every enabled weld (phase 14).
func (c *Context) weldPropagation() {
	for _, n := range c.Workspace.GetDescendantsOfClass(instance.ClassWeld) {
		w := n.Weld
		if w == nil || !w.Enabled || w.Part0 == nil || w.Part1 == nil {
			continue
		}
		if w.Part0.Part == nil || w.Part1.Part == nil {
			continue
		}
		f0 := w.Part0.Part.CFrame
		newFrame := f0.Mul(w.C0).Mul(w.C1.Inverse())
		w.Part1.Part.SetCFrame(newFrame)
	}
}

// endFrame fires Heartbeat (phase 15).
func (c *Context) endFrame() {
	c.Script.FireHeartbeat(Dt)
}
