// Package manager is the instance registry and tick driver: it finds or
// creates instances per game id, joins/removes players, drives every
// active instance forward at a fixed rate in parallel, and reaps instances
// that have sat empty too long (spec §4.6).
//
// Grounded on original_source/src/game/manager_*.rs (the five manager_*.rs
// files map onto this package's instances/lifecycle/listing/observations/
// tick responsibilities) combined with teacher's game/room_manager.go
// (RoomManagerActor) for the find-a-room-with-capacity-or-make-one
// algorithm, generalized from "one room per request" to "list of
// instances per game_id with capacity scan" per the spec's resolved
// multi-instance-per-game model.
package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lguibr/voxelrealm/observation"
	"github.com/lguibr/voxelrealm/runtime"
	"github.com/lguibr/voxelrealm/script"
)

// defaultMaxInstancesPerGame mirrors teacher's maxRooms cap, generalized to
// a per-game-id limit instead of one process-wide pool.
const defaultMaxInstancesPerGame = 75

// Metrics are the manager's prometheus instruments (spec ADD 4.9).
type Metrics struct {
	InstancesActive  prometheus.Gauge
	PlayersActive    prometheus.Gauge
	TickDuration     prometheus.Histogram
	InstancesHalted  prometheus.Counter
}

// NewMetrics registers the manager's gauges/histograms/counters against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		InstancesActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voxelrealm_instances_active",
			Help: "Number of currently active game instances.",
		}),
		PlayersActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voxelrealm_players_active",
			Help: "Number of currently joined players across all instances.",
		}),
		TickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voxelrealm_tick_duration_seconds",
			Help:    "Wall-clock duration of one manager tick fan-out.",
			Buckets: prometheus.DefBuckets,
		}),
		InstancesHalted: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxelrealm_instances_halted_total",
			Help: "Total instances that transitioned to Finished due to a halt or panic.",
		}),
	}
}

// Config bundles the manager's tunables.
type Config struct {
	MaxPlayersPerInstance int
	MaxInstancesPerGame   int
	EmptyTimeout          time.Duration
	ErrorMode             script.ErrorMode
	Broker                script.Broker
	Log                   *zap.SugaredLogger
	Metrics               *Metrics
}

// GameDef is the static definition a manager creates instances from (spec
// §2's Game concept: an id plus its startup script source).
type GameDef struct {
	ID           string
	ScriptSource string
}

type entry struct {
	inst *runtime.Instance
}

// Manager owns every live instance, indexed both by instance id and by
// game id, plus the reverse player->instance index join/leave need (spec
// §4.6's "instances / game_instances / player_instances" field list).
type Manager struct {
	cfg Config

	mu              sync.RWMutex
	instances       map[string]*entry            // instance id -> entry
	gameInstances   map[string][]string          // game id -> instance ids
	playerInstances map[string]string            // agent id -> instance id
	mapCache        map[string]observation.MapInfo // game id -> cached static map

	games map[string]GameDef

	// playerObsCache/spectatorObsCache are the "lock-free read path" the
	// spec requires (§5): written once per tick by TickAll, read by the
	// command surface without touching the instance's own lock.
	playerObsCache    sync.Map // key: instanceID+"/"+agentID -> observation.PlayerObservation
	spectatorObsCache sync.Map // key: instanceID -> observation.SpectatorObservation

	log *zap.SugaredLogger
}

// New constructs an empty Manager.
func New(cfg Config) *Manager {
	if cfg.MaxInstancesPerGame <= 0 {
		cfg.MaxInstancesPerGame = defaultMaxInstancesPerGame
	}
	if cfg.EmptyTimeout <= 0 {
		cfg.EmptyTimeout = 5 * time.Minute
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Manager{
		cfg:             cfg,
		instances:       make(map[string]*entry),
		gameInstances:   make(map[string][]string),
		playerInstances: make(map[string]string),
		mapCache:        make(map[string]observation.MapInfo),
		games:           make(map[string]GameDef),
		log:             log,
	}
}

// RegisterGame records a game definition so FindOrCreate knows its startup
// script. A game must be registered before any FindOrCreate call names it.
func (m *Manager) RegisterGame(def GameDef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[def.ID] = def
}

// FindOrCreate returns an instance of gameID with spare capacity, creating
// one if every existing instance is full or none exist yet (spec §4.6,
// grounded on RoomManagerActor.handleFindRoom's scan-then-create
// algorithm).
func (m *Manager) FindOrCreate(gameID string) (*runtime.Instance, error) {
	m.mu.Lock()
	def, known := m.games[gameID]
	if !known {
		m.mu.Unlock()
		return nil, fmt.Errorf("unknown game id %q", gameID)
	}

	for _, id := range m.gameInstances[gameID] {
		if e, ok := m.instances[id]; ok && e.inst.HasCapacity() && e.inst.Status() != runtime.StatusFinished {
			m.mu.Unlock()
			return e.inst, nil
		}
	}

	if len(m.gameInstances[gameID]) >= m.cfg.MaxInstancesPerGame {
		m.mu.Unlock()
		return nil, fmt.Errorf("game %q has reached its instance limit (%d)", gameID, m.cfg.MaxInstancesPerGame)
	}
	m.mu.Unlock()

	inst := runtime.New(runtime.Config{
		GameID:       gameID,
		MaxPlayers:   m.cfg.MaxPlayersPerInstance,
		ErrorMode:    m.cfg.ErrorMode,
		ScriptSource: def.ScriptSource,
		Broker:       m.cfg.Broker,
		Log:          m.log,
	})

	m.mu.Lock()
	m.instances[inst.ID] = &entry{inst: inst}
	m.gameInstances[gameID] = append(m.gameInstances[gameID], inst.ID)
	m.mu.Unlock()

	if m.cfg.Metrics != nil {
		m.cfg.Metrics.InstancesActive.Inc()
	}
	m.log.Infow("instance created", "instance_id", inst.ID, "game_id", gameID)
	return inst, nil
}

// JoinInstance places agentID into instanceID, verifying it belongs to
// gameID (spec §6 join_instance: "errors: not found, halted, full, already
// in"). Callers resolve instanceID via FindOrCreate first; join itself is
// atomic (capacity check + add under the instance's own lock) so a race
// between two callers picking the same almost-full instance is resolved
// here, not by retrying.
func (m *Manager) JoinInstance(instanceID, gameID, agentID string, userID uint64, displayName string) (*runtime.Instance, error) {
	m.mu.RLock()
	if existingID, ok := m.playerInstances[agentID]; ok {
		m.mu.RUnlock()
		return nil, fmt.Errorf("agent %s already joined to instance %s", agentID, existingID)
	}
	e, ok := m.instances[instanceID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("instance %q not found", instanceID)
	}
	if e.inst.GameID != gameID {
		return nil, fmt.Errorf("instance %q does not belong to game %q", instanceID, gameID)
	}

	if err := e.inst.Join(agentID, userID, displayName); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.playerInstances[agentID] = instanceID
	m.mu.Unlock()
	if m.cfg.Metrics != nil {
		m.cfg.Metrics.PlayersActive.Inc()
	}
	return e.inst, nil
}

// Leave removes agentID from whichever instance it occupies.
func (m *Manager) Leave(agentID string) error {
	m.mu.Lock()
	instID, ok := m.playerInstances[agentID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("agent %s is not joined to any instance", agentID)
	}
	e, ok := m.instances[instID]
	delete(m.playerInstances, agentID)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("instance %s no longer exists", instID)
	}
	if err := e.inst.Leave(agentID); err != nil {
		return err
	}
	if m.cfg.Metrics != nil {
		m.cfg.Metrics.PlayersActive.Dec()
	}
	return nil
}

// GetPlayerInstance resolves agentID's current instance id within gameID,
// for chat's room-resolution use case (spec §6 get_player_instance).
func (m *Manager) GetPlayerInstance(agentID, gameID string) (string, bool) {
	inst, ok := m.InstanceForAgent(agentID)
	if !ok || inst.GameID != gameID {
		return "", false
	}
	return inst.ID, true
}

// IsInstanceRunning reports whether gameID has at least one non-Finished
// instance (spec §6 is_instance_running).
func (m *Manager) IsInstanceRunning(gameID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.gameInstances[gameID] {
		if e, ok := m.instances[id]; ok && e.inst.Status() != runtime.StatusFinished {
			return true
		}
	}
	return false
}

// ListInstances returns every live instance id (spec §6 list_instances).
func (m *Manager) ListInstances() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.instances))
	for id := range m.instances {
		out = append(out, id)
	}
	return out
}

// ListGames returns every registered game id (spec §6 list_games).
func (m *Manager) ListGames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.games))
	for id := range m.games {
		out = append(out, id)
	}
	return out
}

// GetGameInfo returns gameID's registered definition plus its live
// instance/player counts (spec §6 get_game_info).
func (m *Manager) GetGameInfo(gameID string) (def GameDef, instanceCount, playerCount int, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.games[gameID]
	if !ok {
		return GameDef{}, 0, 0, fmt.Errorf("unknown game id %q", gameID)
	}
	for _, id := range m.gameInstances[gameID] {
		if e, ok := m.instances[id]; ok {
			instanceCount++
			playerCount += e.inst.PlayerCount()
		}
	}
	return def, instanceCount, playerCount, nil
}

// DestroyInstance tears down instanceID immediately, regardless of player
// count or empty-timeout (spec §6 destroy_instance).
func (m *Manager) DestroyInstance(instanceID string) bool {
	m.mu.Lock()
	e, ok := m.instances[instanceID]
	if !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.instances, instanceID)
	for gameID, ids := range m.gameInstances {
		filtered := ids[:0]
		for _, id := range ids {
			if id != instanceID {
				filtered = append(filtered, id)
			}
		}
		m.gameInstances[gameID] = filtered
	}
	for agentID, id := range m.playerInstances {
		if id == instanceID {
			delete(m.playerInstances, agentID)
		}
	}
	m.mu.Unlock()

	e.inst.Close()
	if m.cfg.Metrics != nil {
		m.cfg.Metrics.InstancesActive.Dec()
	}
	return true
}

// Instance looks up an instance by id.
func (m *Manager) Instance(instanceID string) (*runtime.Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.instances[instanceID]
	if !ok {
		return nil, false
	}
	return e.inst, true
}

// InstanceForAgent looks up the instance agentID currently occupies.
func (m *Manager) InstanceForAgent(agentID string) (*runtime.Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	instID, ok := m.playerInstances[agentID]
	if !ok {
		return nil, false
	}
	e, ok := m.instances[instID]
	if !ok {
		return nil, false
	}
	return e.inst, true
}

// StaticMap returns (and caches) gameID's static-map snapshot, built from
// the first still-live instance found for that game (spec §4.5: "cacheable
// per game id" since the map never changes during play).
func (m *Manager) StaticMap(gameID string) (observation.MapInfo, error) {
	m.mu.RLock()
	if cached, ok := m.mapCache[gameID]; ok {
		m.mu.RUnlock()
		return cached, nil
	}
	ids := m.gameInstances[gameID]
	m.mu.RUnlock()

	for _, id := range ids {
		if inst, ok := m.Instance(id); ok {
			info := observation.BuildMap(inst.Workspace())
			m.mu.Lock()
			m.mapCache[gameID] = info
			m.mu.Unlock()
			return info, nil
		}
	}
	return observation.MapInfo{}, fmt.Errorf("no live instance for game %q yet", gameID)
}

// TickAll advances every non-Finished instance by one Δt in parallel,
// isolating a panicking or halting instance's error to itself (spec
// §4.6's "one misbehaving instance cannot affect others").
func (m *Manager) TickAll(ctx context.Context) {
	start := time.Now()
	m.mu.RLock()
	live := make([]*entry, 0, len(m.instances))
	for _, e := range m.instances {
		live = append(live, e)
	}
	m.mu.RUnlock()

	now := time.Now()
	g, _ := errgroup.WithContext(ctx)
	for _, e := range live {
		e := e
		g.Go(func() error {
			if e.inst.Status() == runtime.StatusFinished {
				return nil
			}
			if err := e.inst.Tick(now); err != nil {
				m.log.Warnw("instance tick failed", "instance_id", e.inst.ID, "error", err)
				if m.cfg.Metrics != nil {
					m.cfg.Metrics.InstancesHalted.Inc()
				}
				return nil
			}
			m.refreshObservationCache(e.inst)
			return nil
		})
	}
	_ = g.Wait()

	if m.cfg.Metrics != nil {
		m.cfg.Metrics.TickDuration.Observe(time.Since(start).Seconds())
	}
	m.reapEmpty()
}

// refreshObservationCache rebuilds the per-agent and spectator snapshots
// for inst and publishes them to the lock-free caches (spec §5: "written
// by the tick driver at the end of each frame, read by the HTTP layer
// without locking the instance").
func (m *Manager) refreshObservationCache(inst *runtime.Instance) {
	agents := inst.Agents()
	observers := make([]observation.Observer, 0, len(agents))
	for _, agentID := range agents {
		bodyID, node, ok := inst.AgentBody(agentID)
		if !ok {
			continue
		}
		observers = append(observers, observation.Observer{UserID: node.Player.UserID, BodyID: bodyID, Node: node})
	}

	status := inst.Status().String()
	tick := inst.TickCount()
	for i, agentID := range agents {
		if i >= len(observers) {
			break
		}
		obs := observation.BuildPlayer(inst.World(), inst.Workspace(), tick, status, observers[i], observers)
		m.playerObsCache.Store(inst.ID+"/"+agentID, obs)
	}

	spec := observation.BuildSpectator(inst.ID, tick, inst.ServerTimeMs(), status, inst.Workspace(), inst.PlayersNode())
	m.spectatorObsCache.Store(inst.ID, spec)
}

// GetObservation reads the cached PlayerObservation for agentID in the
// instance it currently occupies (spec §6 get_observation).
func (m *Manager) GetObservation(agentID string) (observation.PlayerObservation, error) {
	inst, ok := m.InstanceForAgent(agentID)
	if !ok {
		return observation.PlayerObservation{}, fmt.Errorf("agent %s is not joined to any instance", agentID)
	}
	v, ok := m.playerObsCache.Load(inst.ID + "/" + agentID)
	if !ok {
		return observation.PlayerObservation{}, fmt.Errorf("no observation cached yet for agent %s", agentID)
	}
	return v.(observation.PlayerObservation), nil
}

// GetSpectatorObservation reads the cached SpectatorObservation for gameID
// from whichever of its instances has produced one most recently.
func (m *Manager) GetSpectatorObservation(gameID string) (observation.SpectatorObservation, error) {
	m.mu.RLock()
	ids := append([]string(nil), m.gameInstances[gameID]...)
	m.mu.RUnlock()
	for _, id := range ids {
		if v, ok := m.spectatorObsCache.Load(id); ok {
			return v.(observation.SpectatorObservation), nil
		}
	}
	return observation.SpectatorObservation{}, fmt.Errorf("no spectator observation cached yet for game %q", gameID)
}

// reapEmpty removes instances that have been empty past cfg.EmptyTimeout or
// that finished due to a halt/panic (spec §4.6's empty-instance reaper).
func (m *Manager) reapEmpty() {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	for gameID, ids := range m.gameInstances {
		kept := ids[:0]
		for _, id := range ids {
			e, ok := m.instances[id]
			if !ok {
				continue
			}
			finished := e.inst.Status() == runtime.StatusFinished
			emptyTooLong := false
			if since := e.inst.EmptySince(); since != nil {
				emptyTooLong = now.Sub(*since) > m.cfg.EmptyTimeout
			}
			if finished || emptyTooLong {
				e.inst.Close()
				delete(m.instances, id)
				if m.cfg.Metrics != nil {
					m.cfg.Metrics.InstancesActive.Dec()
				}
				m.log.Infow("instance reaped", "instance_id", id, "game_id", gameID, "finished", finished, "empty_timeout", emptyTooLong)
				continue
			}
			kept = append(kept, id)
		}
		m.gameInstances[gameID] = kept
	}
}

// Run drives TickAll at a fixed period until ctx is cancelled, mirroring
// teacher's game_actor.go ticker-driven loop generalized from one room to
// every registered instance.
func (m *Manager) Run(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.TickAll(ctx)
		}
	}
}
