// Package observation builds the three read-only snapshots the command
// surface serves: the per-player view, the spectator view, and the static
// map (spec §4.5). All float fields are rounded to 2 decimals on the wire,
// the only lossy transform the spec allows (spec §8).
//
// Grounded on original_source/src/game/instance/observation.rs for the
// filtering rules (100-stud radius + line-of-sight, Static-tag map caching)
// and on teacher's GameActor.updateGameStateJSON for "marshal a cached
// snapshot struct with encoding/json" — no pack repo reaches for a
// third-party JSON library for this, so package observation follows suit.
package observation

import (
	"math"

	"github.com/lguibr/voxelrealm/instance"
	"github.com/lguibr/voxelrealm/physics"
	"github.com/lguibr/voxelrealm/values"
)

const otherPlayerRadius = 100.0

// Vec3 is the wire shape for a rounded 3-vector.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func vec3(v values.Vector3) Vec3 {
	r := v.Round2()
	return Vec3{X: r.X, Y: r.Y, Z: r.Z}
}

// PlayerView is one observed player in a PlayerObservation/SpectatorObservation.
type PlayerView struct {
	ID         uint64         `json:"id"`
	Name       string         `json:"name,omitempty"`
	Position   Vec3           `json:"position"`
	Health     float64        `json:"health"`
	Attributes map[string]any `json:"attributes,omitempty"`
	GUI        []GuiElement   `json:"gui,omitempty"`
}

// WorldEntity is one dynamic or static part/folder in the world list.
type WorldEntity struct {
	ID           uint64         `json:"id"`
	Name         string         `json:"name"`
	EntityType   string         `json:"entity_type"`
	Position     Vec3           `json:"position"`
	Size         Vec3           `json:"size,omitempty"`
	Rotation     *[3][3]float64 `json:"rotation,omitempty"`
	Color        *[3]float64    `json:"color,omitempty"`
	Material     string         `json:"material,omitempty"`
	Shape        string         `json:"shape,omitempty"`
	Transparency float64        `json:"transparency,omitempty"`
	Anchored     bool           `json:"anchored"`
	Attributes   map[string]any `json:"attributes,omitempty"`
}

// SpectatorEntity extends WorldEntity with spectator-only extras.
type SpectatorEntity struct {
	WorldEntity
	ModelURL     string        `json:"model_url,omitempty"`
	BillboardGui *GuiElement   `json:"billboard_gui,omitempty"`
}

// GuiElement is a recursive tree mirroring the GUI variant payloads.
type GuiElement struct {
	ClassName string       `json:"class_name"`
	Position  [2]float64   `json:"position"` // UDim2 offset-only simplification: (x.offset, y.offset)
	Size      [2]float64   `json:"size"`
	ZIndex    int          `json:"z_index"`
	Visible   bool         `json:"visible"`
	Text      string       `json:"text,omitempty"`
	Image     string       `json:"image,omitempty"`
	Children  []GuiElement `json:"children,omitempty"`
}

// PlayerObservation is the per-observer snapshot (spec §6).
type PlayerObservation struct {
	Tick         uint64         `json:"tick"`
	GameStatus   string         `json:"game_status"`
	Player       PlayerView     `json:"player"`
	OtherPlayers []PlayerView   `json:"other_players"`
	World        WorldSection   `json:"world"`
	Events       []any          `json:"events"`
}

// WorldSection holds the dynamic entity list of a PlayerObservation.
type WorldSection struct {
	Entities []WorldEntity `json:"entities"`
}

// SpectatorObservation is the full-instance snapshot (spec §6).
type SpectatorObservation struct {
	InstanceID   string            `json:"instance_id"`
	Tick         uint64            `json:"tick"`
	ServerTimeMs int64             `json:"server_time_ms"`
	GameStatus   string            `json:"game_status"`
	Players      []PlayerView      `json:"players"`
	Entities     []SpectatorEntity `json:"entities"`
}

// MapInfo is the static-map snapshot (spec §6), cached per game id.
type MapInfo struct {
	Entities []WorldEntity `json:"entities"`
}

// Observer is the minimal read access the builders need about one observed
// player: its body id (for line-of-sight/distance) and its script-visible
// node (for health/attributes/name).
type Observer struct {
	UserID uint64
	BodyID uint64
	Node   *instance.Node
}

// BuildPlayer produces the observer's PlayerObservation (spec §4.5): the
// observer's own state, other players within 100 studs AND in line of
// sight, and every non-Static part/attributed-folder as a dynamic entity.
func BuildPlayer(world *physics.World, workspace *instance.Node, tick uint64, gameStatus string, observer Observer, others []Observer) PlayerObservation {
	obsPos := observerPosition(world, observer)

	out := PlayerObservation{
		Tick:       tick,
		GameStatus: gameStatus,
		Player:     playerView(observer, obsPos),
		Events:     []any{},
	}

	for _, other := range others {
		if other.UserID == observer.UserID {
			continue
		}
		otherPos := observerPosition(world, other)
		if obsPos.Distance(otherPos) > otherPlayerRadius {
			continue
		}
		if !world.HasLineOfSight(obsPos, otherPos, observer.BodyID) {
			continue
		}
		out.OtherPlayers = append(out.OtherPlayers, playerView(other, otherPos))
	}

	out.World.Entities = dynamicEntities(workspace)
	return out
}

func observerPosition(world *physics.World, o Observer) values.Vector3 {
	if o.BodyID != 0 {
		if pos, ok := world.CharacterPosition(o.BodyID); ok {
			return pos
		}
	}
	if o.Node != nil && o.Node.Player != nil && o.Node.Player.Character != nil {
		if rootPart := o.Node.Player.Character.FindFirstChild("HumanoidRootPart"); rootPart != nil && rootPart.Part != nil {
			return rootPart.Part.Position
		}
	}
	return values.Vector3{}
}

func playerView(o Observer, pos values.Vector3) PlayerView {
	v := PlayerView{ID: o.UserID, Position: vec3(pos)}
	if o.Node == nil || o.Node.Player == nil {
		return v
	}
	v.Name = o.Node.Player.DisplayName
	v.Attributes = o.Node.Attributes()
	if h := humanoidOf(o.Node); h != nil {
		v.Health = h.Health
	}
	return v
}

func humanoidOf(player *instance.Node) *instance.Humanoid {
	if player.Player == nil || player.Player.Character == nil {
		return nil
	}
	for _, c := range player.Player.Character.Children() {
		if c.Humanoid != nil {
			return c.Humanoid
		}
	}
	return nil
}

func dynamicEntities(workspace *instance.Node) []WorldEntity {
	var out []WorldEntity
	for _, n := range workspace.GetDescendantsOfClass(instance.ClassPart) {
		if n.HasTag("Static") {
			continue
		}
		out = append(out, partEntity(n))
	}
	for _, n := range workspace.Descendants() {
		if n.Class() != instance.ClassFolder {
			continue
		}
		if attrs := n.Attributes(); len(attrs) > 0 {
			out = append(out, WorldEntity{
				ID:         n.ID(),
				Name:       n.Name(),
				EntityType: "folder",
				Attributes: attrs,
			})
		}
	}
	return out
}

func partEntity(n *instance.Node) WorldEntity {
	p := n.Part
	e := WorldEntity{
		ID:           n.ID(),
		Name:         n.Name(),
		EntityType:   "part",
		Position:     vec3(p.Position),
		Size:         vec3(p.Size),
		Material:     p.Material.String(),
		Shape:        p.Shape.String(),
		Transparency: round2(p.Transparency),
		Anchored:     p.Anchored,
	}
	if attrs := n.Attributes(); len(attrs) > 0 {
		e.Attributes = attrs
	}
	color := [3]float64{round2(p.Color.R), round2(p.Color.G), round2(p.Color.B)}
	e.Color = &color
	if rot := rotationMatrix(p.CFrame); rot != nil {
		e.Rotation = rot
	}
	return e
}

// rotationMatrix returns nil for an identity rotation (spec §6: "optional
// rotation, omitted if identity") and the 3x3 column-major basis otherwise.
func rotationMatrix(c values.CFrame) *[3][3]float64 {
	if c.Right == (values.Vector3{X: 1}) && c.Up == (values.Vector3{Y: 1}) && c.Back == (values.Vector3{Z: 1}) {
		return nil
	}
	m := [3][3]float64{
		{c.Right.X, c.Right.Y, c.Right.Z},
		{c.Up.X, c.Up.Y, c.Up.Z},
		{c.Back.X, c.Back.Y, c.Back.Z},
	}
	return &m
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }

// BuildSpectator produces the full-instance snapshot (spec §4.5): every
// part, every player with its GUI tree, billboards, and model URLs.
func BuildSpectator(instanceID string, tick uint64, serverTimeMs int64, gameStatus string, workspace, players *instance.Node) SpectatorObservation {
	out := SpectatorObservation{
		InstanceID:   instanceID,
		Tick:         tick,
		ServerTimeMs: serverTimeMs,
		GameStatus:   gameStatus,
	}

	for _, n := range workspace.GetDescendantsOfClass(instance.ClassPart) {
		ent := SpectatorEntity{WorldEntity: partEntity(n)}
		if url, ok := modelURL(n); ok {
			ent.ModelURL = url
		}
		if bb := billboardFor(n); bb != nil {
			ent.BillboardGui = bb
		}
		out.Entities = append(out.Entities, ent)
	}

	for _, n := range players.Children() {
		if n.Player == nil {
			continue
		}
		pos := values.Vector3{}
		if h := humanoidOf(n); h != nil {
			if root := n.Player.Character.FindFirstChild("HumanoidRootPart"); root != nil && root.Part != nil {
				pos = root.Part.Position
			}
			pv := PlayerView{
				ID:         n.Player.UserID,
				Name:       n.Player.DisplayName,
				Position:   vec3(pos),
				Health:     h.Health,
				Attributes: n.Attributes(),
			}
			if n.Player.PlayerGui != nil {
				pv.GUI = guiChildren(n.Player.PlayerGui)
			}
			out.Players = append(out.Players, pv)
		}
	}
	return out
}

func modelURL(n *instance.Node) (string, bool) {
	for _, key := range []string{"ModelUrl", "model_url"} {
		if v, ok := n.GetAttribute(key); ok {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

func billboardFor(n *instance.Node) *GuiElement {
	for _, c := range n.Children() {
		if c.Billboard == nil {
			continue
		}
		el := &GuiElement{ClassName: "BillboardGui", Visible: true}
		return el
	}
	return nil
}

// guiChildren recursively serializes a GUI subtree (spec §4.5).
func guiChildren(root *instance.Node) []GuiElement {
	var out []GuiElement
	for _, c := range root.Children() {
		el, ok := serializeGui(c)
		if !ok {
			continue
		}
		out = append(out, el)
	}
	return out
}

func serializeGui(n *instance.Node) (GuiElement, bool) {
	if n.Gui == nil {
		return GuiElement{}, false
	}
	g := n.Gui
	el := GuiElement{
		ClassName: string(n.Class()),
		Position:  [2]float64{round2(g.Position.X.Offset), round2(g.Position.Y.Offset)},
		Size:      [2]float64{round2(g.Size.X.Offset), round2(g.Size.Y.Offset)},
		ZIndex:    g.ZIndex,
		Visible:   g.Visible,
		Text:      g.Text,
		Image:     g.Image,
		Children:  guiChildren(n),
	}
	return el, true
}

// BuildMap produces the static-map snapshot (spec §4.5): parts tagged
// Static only. Cached per game id by the caller since it never changes
// during play.
func BuildMap(workspace *instance.Node) MapInfo {
	var out MapInfo
	for _, n := range workspace.GetDescendantsOfClass(instance.ClassPart) {
		if n.HasTag("Static") {
			out.Entities = append(out.Entities, partEntity(n))
		}
	}
	return out
}
