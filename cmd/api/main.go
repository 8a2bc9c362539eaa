package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/deadtown/internal/config"
	"github.com/jwebster45206/deadtown/internal/handlers"
	"github.com/jwebster45206/deadtown/internal/logger"
	"github.com/jwebster45206/deadtown/internal/middleware"
	"github.com/jwebster45206/deadtown/internal/services/events"
	"github.com/jwebster45206/deadtown/internal/sessions"
	"github.com/jwebster45206/deadtown/internal/storage"
	"github.com/jwebster45206/deadtown/pkg/game"
	"github.com/jwebster45206/deadtown/pkg/scenario"
)

const expirySweep = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Deadtown API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"redis", cfg.RedisURL != "",
		"data_dir", cfg.DataDir)

	defaultScenario, err := loadDefaultScenario(cfg)
	if err != nil {
		log.Error("Failed to load default scenario", "error", err, "file", cfg.ScenarioFile)
		os.Exit(1)
	}
	log.Info("Default scenario loaded", "scenario", defaultScenario.Name)

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	var store storage.Storage
	var broadcaster *events.Broadcaster
	var redisStore *storage.RedisStorage
	if cfg.RedisURL != "" {
		redisStore, err = storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
		if err != nil {
			log.Error("Invalid Redis configuration", "error", err)
			os.Exit(1)
		}
		storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err = redisStore.WaitForConnection(storageCtx, 10, 2*time.Second)
		storageCancel()
		if err != nil {
			log.Error("Failed to connect to storage", "error", err)
			os.Exit(1)
		}
		log.Info("Storage connection established successfully")

		store = redisStore
		broadcaster = events.NewBroadcaster(redisStore.Client(), events.DefaultBufferSize, log)
		go broadcaster.Run(runCtx)
	} else {
		log.Warn("REDIS_URL not set; snapshots stay in memory and the SSE stream is disabled")
		store = storage.NewMemoryStorage(cfg.DataDir, log)
	}

	manager := sessions.NewManager(store, game.Options{ItemRange: cfg.ItemRange}, log)
	if broadcaster != nil {
		manager.WithAttacher(broadcaster)
	}
	go expireSessions(runCtx, manager)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, manager, log)
	mux.Handle("/health", healthHandler)

	gamesHandler := handlers.NewGamesHandler(manager, store, defaultScenario, log).
		WithWebSocket(handlers.NewWSHandler(manager, log))
	mux.Handle("/v1/games", gamesHandler)
	mux.Handle("/v1/games/", gamesHandler)

	scenarioHandler := handlers.NewScenarioHandler(log, store)
	mux.Handle("/v1/scenarios", scenarioHandler)
	mux.Handle("/v1/scenarios/", scenarioHandler)

	if redisStore != nil {
		mux.Handle("/v1/events/games/", handlers.NewEventsHandler(redisStore.Client(), log))
	}

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log, mux),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: SSE and websocket connections are long-lived
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	// Stop the broadcaster before its Redis client goes away
	stop()
	if broadcaster != nil {
		log.Info("Broadcaster stopped", "dropped", broadcaster.Dropped())
	}
	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}

func loadDefaultScenario(cfg *config.Config) (*scenario.Scenario, error) {
	if cfg.ScenarioFile == "" {
		return scenario.Default()
	}
	return scenario.LoadFile(cfg.ScenarioFile)
}

func expireSessions(ctx context.Context, manager *sessions.Manager) {
	ticker := time.NewTicker(expirySweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.Expire(storage.SnapshotTTL)
		}
	}
}
