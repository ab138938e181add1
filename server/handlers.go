package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/websocket"

	"github.com/lguibr/voxelrealm/command"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := "Unknown"
	if ce, ok := command.AsError(err); ok {
		kind = ce.Kind.String()
		switch ce.Kind {
		case command.KindNotFound:
			status = http.StatusNotFound
		case command.KindCapacityExceeded, command.KindHaltedInstance:
			status = http.StatusConflict
		case command.KindInvalidInput:
			status = http.StatusBadRequest
		case command.KindAsyncUnavailable, command.KindTimeout:
			status = http.StatusServiceUnavailable
		case command.KindScriptLoadError, command.KindScriptRuntimeError, command.KindPanic:
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, status, map[string]string{"error": kind, "message": err.Error()})
}

type findOrCreateRequest struct {
	GameID string `json:"game_id"`
}

func (s *Server) handleFindOrCreate(w http.ResponseWriter, r *http.Request) {
	var req findOrCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "InvalidInput", "message": err.Error()})
		return
	}
	instanceID, err := s.cmd.FindOrCreateInstance(req.GameID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"instance_id": instanceID})
}

type joinRequest struct {
	GameID    string `json:"game_id"`
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
	UserID    uint64 `json:"user_id"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	instanceID := chi.URLParam(r, "id")
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "InvalidInput", "message": err.Error()})
		return
	}
	if err := s.cmd.JoinInstance(instanceID, req.GameID, req.AgentID, req.AgentName, req.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"joined": true})
}

type leaveRequest struct {
	AgentID string `json:"agent_id"`
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req leaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "InvalidInput", "message": err.Error()})
		return
	}
	if err := s.cmd.LeaveInstance(req.AgentID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"left": true})
}

type inputRequest struct {
	AgentID string         `json:"agent_id"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "InvalidInput", "message": err.Error()})
		return
	}
	if err := s.cmd.QueueInput(req.AgentID, req.Type, req.Payload); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"queued": true})
}

func (s *Server) handleObserve(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agent_id")
	obs, err := s.cmd.GetObservation(agentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, obs)
}

func (s *Server) handleSpectate(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game_id")
	obs, err := s.cmd.GetSpectatorObservation(gameID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, obs)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")
	info, err := s.cmd.GetMap(gameID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleSpectateWS streams the latest cached spectator snapshot for the
// {id} game at a fixed interval, modeled on teacher's server.go connection
// set plus game/broadcaster_actor.go's periodic-push loop.
func (s *Server) handleSpectateWS(ws *websocket.Conn) {
	defer ws.Close()
	gameID := ws.Request().URL.Query().Get("game_id")
	if gameID == "" {
		gameID = chi.URLParam(ws.Request(), "id")
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		obs, err := s.cmd.GetSpectatorObservation(gameID)
		if err != nil {
			continue
		}
		if err := websocket.JSON.Send(ws, obs); err != nil {
			s.log.Debugw("spectator websocket send failed, closing", "game_id", gameID, "error", err)
			return
		}
	}
}
