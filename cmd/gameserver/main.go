// Command gameserver wires configuration, the bollywood engine, the
// instance manager's tick driver, and the HTTP/WebSocket demo server
// together and starts listening, mirroring teacher's own main.go
// config→engine→spawn→listen shape.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lguibr/voxelrealm/bollywood"
	"github.com/lguibr/voxelrealm/asyncio"
	"github.com/lguibr/voxelrealm/command"
	"github.com/lguibr/voxelrealm/config"
	"github.com/lguibr/voxelrealm/manager"
	"github.com/lguibr/voxelrealm/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file overriding defaults")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalw("failed to load config", "path", *configPath, "error", err)
	}
	log.Infow("configuration loaded", "tick_rate_hz", cfg.TickRateHz, "default_max_players", cfg.DefaultMaxPlayers, "listen_addr", cfg.ListenAddr)

	engine := bollywood.NewEngine()
	log.Info("bollywood engine created")

	broker := asyncio.NewBroker(engine, 5*time.Second)
	log.Info("async I/O broker spawned")

	metrics := manager.NewMetrics(prometheus.DefaultRegisterer)
	mgr := manager.New(manager.Config{
		MaxPlayersPerInstance: cfg.DefaultMaxPlayers,
		EmptyTimeout:          cfg.EmptyInstanceTimeout,
		ErrorMode:             cfg.ScriptErrorMode(),
		Broker:                broker,
		Log:                   log,
		Metrics:               metrics,
	})

	cmdSurface := command.New(mgr)
	srv := server.New(cmdSurface, log)

	ctx, cancel := context.WithCancel(context.Background())
	go mgr.Run(ctx, cfg.TickPeriod())
	log.Infow("tick driver started", "period", cfg.TickPeriod())

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: srv.Router()}
	go func() {
		log.Infow("http server listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("http server stopped", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnw("http server shutdown error", "error", err)
	}

	engine.Shutdown(5 * time.Second)
	log.Info("engine shutdown complete")
}
