// Package server is the demo HTTP/WebSocket binding over package command
// (spec ADD 4.8): a chi router exposing the command surface as REST
// endpoints, plus one websocket endpoint streaming spectator snapshots.
// This package is ambient surface, not core product scope — the core is
// fully usable via package command alone.
//
// Grounded on teacher's server/server.go (a small Server type wrapping a
// websocket connection set) combined with the router-factory-plus-handlers
// split from the iamvalenciia-kick-game-stream sibling repo's internal/api
// package, the only pack repo that reaches for go-chi/chi for an HTTP API.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"

	"github.com/lguibr/voxelrealm/command"
)

// Server is the HTTP/WebSocket demo binding: a chi router wired to a
// command.Surface, with a spectator-streaming websocket endpoint.
type Server struct {
	cmd     *command.Surface
	router  *chi.Mux
	log     *zap.SugaredLogger
	limiter *ipRateLimiter
}

// New constructs a Server. Call Router() to obtain the http.Handler, or
// ListenAndServe to run it directly.
func New(cmd *command.Surface, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{cmd: cmd, log: log, limiter: newIPRateLimiter(20, 40)}
	s.router = s.newRouter()
	go s.limiter.cleanupLoop()
	return s
}

func (s *Server) newRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.limiter.middleware)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/rooms", func(r chi.Router) {
		r.Post("/find-or-create", s.handleFindOrCreate)
		r.Post("/{id}/join", s.handleJoin)
		r.Post("/{id}/leave", s.handleLeave)
		r.Post("/{id}/input", s.handleInput)
		r.Get("/{id}/observe", s.handleObserve)
		r.Get("/{id}/spectate", s.handleSpectate)
	})
	r.Get("/games/{id}/map", s.handleMap)

	r.Handle("/ws/spectate/{id}", websocket.Handler(s.handleSpectateWS))

	return r
}

// Router returns the HTTP handler, for use with httptest or a custom
// http.Server.
func (s *Server) Router() http.Handler { return s.router }

// ListenAndServe starts the server on addr. It never returns on success.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Infow("server listening", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
