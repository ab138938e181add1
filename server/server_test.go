package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/voxelrealm/command"
	"github.com/lguibr/voxelrealm/manager"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	mgr := manager.New(manager.Config{
		MaxPlayersPerInstance: 2,
		Metrics:               manager.NewMetrics(prometheus.NewRegistry()),
	})
	mgr.RegisterGame(manager.GameDef{ID: "game-1"})
	return New(command.New(mgr), nil)
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReportsOK(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestFindOrCreateThenJoinThenInput(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()

	rec := postJSON(t, h, "/rooms/find-or-create", map[string]string{"game_id": "game-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	instanceID := created["instance_id"]
	require.NotEmpty(t, instanceID)

	joinRec := postJSON(t, h, fmt.Sprintf("/rooms/%s/join", instanceID), map[string]any{
		"game_id": "game-1", "agent_id": "a1", "agent_name": "Alice", "user_id": 1,
	})
	require.Equal(t, http.StatusOK, joinRec.Code)

	inputRec := postJSON(t, h, fmt.Sprintf("/rooms/%s/input", instanceID), map[string]any{
		"agent_id": "a1", "type": "Move", "payload": map[string]any{"x": 1.0},
	})
	require.Equal(t, http.StatusOK, inputRec.Code)

	leaveRec := postJSON(t, h, fmt.Sprintf("/rooms/%s/leave", instanceID), map[string]string{"agent_id": "a1"})
	require.Equal(t, http.StatusOK, leaveRec.Code)
}

func TestJoinUnknownInstanceReturnsNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(t, s.Router(), "/rooms/missing-id/join", map[string]any{
		"game_id": "game-1", "agent_id": "a1", "agent_name": "Alice", "user_id": 1,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMapForUnknownGameReturnsNotFound(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/games/ghost-game/map", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestObserveUnjoinedAgentReturnsNotFound(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/rooms/any/observe?agent_id=ghost", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
