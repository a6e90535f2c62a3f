package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/jwebster45206/questmap/internal/config"
	"github.com/jwebster45206/questmap/internal/dispatch"
	"github.com/jwebster45206/questmap/internal/handlers"
	"github.com/jwebster45206/questmap/internal/logger"
	"github.com/jwebster45206/questmap/internal/middleware"
	"github.com/jwebster45206/questmap/internal/services/events"
	"github.com/jwebster45206/questmap/internal/services/queue"
	"github.com/jwebster45206/questmap/internal/storage"
	"github.com/jwebster45206/questmap/internal/worker"
	"github.com/jwebster45206/questmap/pkg/game"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)
	sessionID := cfg.SessionID
	log = logger.WithSession(log, sessionID.String())

	log.Info("Starting questmap API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"content_path", cfg.ContentPath,
		"scenario", cfg.Scenario)

	content := storage.NewFileStorage(cfg.ContentPath, log)
	s, err := content.GetScenario(context.Background(), cfg.Scenario)
	if err != nil {
		log.Error("Failed to load scenario", "error", err, "path", filepath.Join(cfg.ContentPath, cfg.Scenario))
		os.Exit(1)
	}
	if cfg.Storyline != "" {
		s.OpeningStoryline = cfg.Storyline
	}

	core, err := game.New(s, log)
	if err != nil {
		log.Error("Failed to start game core", "error", err)
		os.Exit(1)
	}

	dispatcher := dispatch.New(log, 64)
	go dispatcher.Start()

	session := handlers.NewSession(sessionID, core, dispatcher)
	checks := map[string]handlers.HealthCheck{
		"content": content.Ping,
	}

	mux := http.NewServeMux()

	var (
		redisClient *redis.Client
		w           *worker.Worker
	)
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		redisClient, err = events.Connect(ctx, cfg.RedisURL, log)
		cancel()
		if err != nil {
			log.Error("Failed to connect to redis", "error", err)
			os.Exit(1)
		}

		broadcaster := events.NewBroadcaster(redisClient, log)
		if err := session.Do(context.Background(), "attach broadcaster", func(c *game.Core) error {
			events.Attach(c, broadcaster, sessionID).Announce()
			return nil
		}); err != nil {
			log.Error("Failed to attach event broadcaster", "error", err)
			os.Exit(1)
		}

		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		mux.Handle("/v1/events", handlers.NewEventsHandler(session, redisClient, log))
		log.Info("Broadcasting map events", "channel", events.Channel(sessionID))

		w = worker.New(queue.NewCommandQueue(redisClient, log), sessionID, session, log, cfg.WorkerID)
		go w.Start()
	}

	mux.Handle("/health", handlers.NewHealthHandler(checks, log))

	mapHandler := handlers.NewMapHandler(session, log)
	mux.Handle("/v1/npcs", mapHandler)
	mux.Handle("/v1/markers", mapHandler)

	mux.Handle("/v1/storyline", handlers.NewStorylineHandler(session, log))

	flagsHandler := handlers.NewFlagsHandler(session, log)
	mux.Handle("/v1/flags", flagsHandler)
	mux.Handle("/v1/flags/", flagsHandler)

	scenarioHandler := handlers.NewScenarioHandler(session, content, log)
	mux.Handle("/v1/scenario", scenarioHandler)
	mux.Handle("/v1/scenarios", scenarioHandler)
	mux.Handle("/v1/scenarios/", scenarioHandler)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log, middleware.RateLimit(rate.NewLimiter(rate.Limit(cfg.MutationRate), cfg.MutationBurst), log, mux)),
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: /v1/events streams
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if w != nil {
		w.Stop()
		<-w.Done()
	}

	dispatcher.Stop()
	<-dispatcher.Done()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis connection", "error", err)
		}
	}

	log.Info("Server exited")
}
