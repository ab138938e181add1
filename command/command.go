// Package command is the narrow synchronous API the HTTP layer calls
// (spec §6): a thin façade over package manager with no logic of its own,
// plus the Kind/Error model of spec §7.
//
// Grounded on original_source/src/api/{gameplay,games,chat}.rs for which
// calls exist and their error taxonomy; this package is deliberately as
// thin over manager as the original's api/ layer is over manager_*.rs.
package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lguibr/voxelrealm/manager"
	"github.com/lguibr/voxelrealm/observation"
)

// Kind is one of the closed error kinds spec §7 names.
type Kind int

const (
	KindScriptLoadError Kind = iota
	KindScriptRuntimeError
	KindCapacityExceeded
	KindNotFound
	KindInvalidInput
	KindHaltedInstance
	KindTimeout
	KindAsyncUnavailable
	KindPanic
)

func (k Kind) String() string {
	switch k {
	case KindScriptLoadError:
		return "ScriptLoadError"
	case KindScriptRuntimeError:
		return "ScriptRuntimeError"
	case KindCapacityExceeded:
		return "CapacityExceeded"
	case KindNotFound:
		return "NotFound"
	case KindInvalidInput:
		return "InvalidInput"
	case KindHaltedInstance:
		return "HaltedInstance"
	case KindTimeout:
		return "Timeout"
	case KindAsyncUnavailable:
		return "AsyncUnavailable"
	case KindPanic:
		return "Panic"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying failure with the short, stable Kind the
// command surface returns to callers (spec §7: "the command surface
// returns the kind as a short message; HTTP maps these to status codes").
type Error struct {
	Kind Kind
	Msg  string
	err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Msg) }
func (e *Error) Unwrap() error { return e.err }

func wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: err.Error(), err: err}
}

// AsError extracts a *Error from err, if any is in its chain.
func AsError(err error) (*Error, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// Surface is the command surface bound to one manager.
type Surface struct {
	mgr *manager.Manager
}

// New returns a command Surface over mgr.
func New(mgr *manager.Manager) *Surface { return &Surface{mgr: mgr} }

// FindOrCreateInstance returns an instance id for gameID with spare
// capacity, creating one if needed (spec §6 find_or_create_instance).
func (s *Surface) FindOrCreateInstance(gameID string) (instanceID string, err error) {
	inst, err := s.mgr.FindOrCreate(gameID)
	if err != nil {
		return "", wrap(KindNotFound, err)
	}
	return inst.ID, nil
}

// JoinInstance adds agentID to instanceID within gameID (spec §6
// join_instance): errors are not found, halted, full, already in.
func (s *Surface) JoinInstance(instanceID, gameID, agentID, agentName string, userID uint64) error {
	if _, err := s.mgr.JoinInstance(instanceID, gameID, agentID, userID, agentName); err != nil {
		return wrap(classifyJoinError(err), err)
	}
	return nil
}

func classifyJoinError(err error) Kind {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "halted"):
		return KindHaltedInstance
	case strings.Contains(msg, "full") || strings.Contains(msg, "limit"):
		return KindCapacityExceeded
	case strings.Contains(msg, "already joined") || strings.Contains(msg, "already in"):
		return KindInvalidInput
	case strings.Contains(msg, "not found") || strings.Contains(msg, "does not belong"):
		return KindNotFound
	default:
		return KindNotFound
	}
}

// LeaveInstance removes agentID (spec §6 leave_instance): errors are not
// found, not in.
func (s *Surface) LeaveInstance(agentID string) error {
	if err := s.mgr.Leave(agentID); err != nil {
		return wrap(KindNotFound, err)
	}
	return nil
}

// QueueInput pushes an input event for agentID (spec §6 queue_input).
func (s *Surface) QueueInput(agentID, typeString string, payload map[string]any) error {
	inst, ok := s.mgr.InstanceForAgent(agentID)
	if !ok {
		return wrap(KindNotFound, fmt.Errorf("agent %s is not joined to any instance", agentID))
	}
	if inst.Halted() {
		return wrap(KindHaltedInstance, fmt.Errorf("instance halted: %s", inst.HaltedError()))
	}
	if err := inst.QueueInput(agentID, typeString, payload); err != nil {
		return wrap(KindNotFound, err)
	}
	return nil
}

// GetObservation returns agentID's cached PlayerObservation (spec §6
// get_observation): a lock-free cache read.
func (s *Surface) GetObservation(agentID string) (observation.PlayerObservation, error) {
	obs, err := s.mgr.GetObservation(agentID)
	if err != nil {
		return observation.PlayerObservation{}, wrap(KindNotFound, err)
	}
	return obs, nil
}

// GetSpectatorObservation returns gameID's cached SpectatorObservation
// (spec §6 get_spectator_observation).
func (s *Surface) GetSpectatorObservation(gameID string) (observation.SpectatorObservation, error) {
	obs, err := s.mgr.GetSpectatorObservation(gameID)
	if err != nil {
		return observation.SpectatorObservation{}, wrap(KindNotFound, err)
	}
	return obs, nil
}

// GetMap returns gameID's cached static map (spec §6 get_map).
func (s *Surface) GetMap(gameID string) (observation.MapInfo, error) {
	info, err := s.mgr.StaticMap(gameID)
	if err != nil {
		return observation.MapInfo{}, wrap(KindNotFound, err)
	}
	return info, nil
}

// GetPlayerInstance resolves agentID's instance id within gameID (spec §6
// get_player_instance), used by chat to resolve the agent's room.
func (s *Surface) GetPlayerInstance(agentID, gameID string) (instanceID string, ok bool) {
	return s.mgr.GetPlayerInstance(agentID, gameID)
}

// IsInstanceRunning reports whether gameID has a live instance (spec §6
// is_instance_running).
func (s *Surface) IsInstanceRunning(gameID string) bool {
	return s.mgr.IsInstanceRunning(gameID)
}

// ListInstances returns every live instance id (spec §6 list_instances).
func (s *Surface) ListInstances() []string { return s.mgr.ListInstances() }

// ListGames returns every registered game id (spec §6 list_games).
func (s *Surface) ListGames() []string { return s.mgr.ListGames() }

// GameInfo is the aggregate spec §6 get_game_info returns.
type GameInfo struct {
	GameID        string `json:"game_id"`
	InstanceCount int    `json:"instance_count"`
	PlayerCount   int    `json:"player_count"`
}

// GetGameInfo aggregates gameID's instance/player counts (spec §6
// get_game_info).
func (s *Surface) GetGameInfo(gameID string) (GameInfo, error) {
	def, instanceCount, playerCount, err := s.mgr.GetGameInfo(gameID)
	if err != nil {
		return GameInfo{}, wrap(KindNotFound, err)
	}
	return GameInfo{GameID: def.ID, InstanceCount: instanceCount, PlayerCount: playerCount}, nil
}

// DestroyInstance immediately tears down instanceID (spec §6
// destroy_instance).
func (s *Surface) DestroyInstance(instanceID string) bool {
	return s.mgr.DestroyInstance(instanceID)
}
