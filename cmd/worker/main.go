package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jwebster45206/questmap/internal/config"
	"github.com/jwebster45206/questmap/internal/dispatch"
	"github.com/jwebster45206/questmap/internal/handlers"
	"github.com/jwebster45206/questmap/internal/logger"
	"github.com/jwebster45206/questmap/internal/services/events"
	"github.com/jwebster45206/questmap/internal/services/queue"
	"github.com/jwebster45206/questmap/internal/storage"
	"github.com/jwebster45206/questmap/internal/worker"
	"github.com/jwebster45206/questmap/pkg/game"
)

// The worker runs a headless map session: commands arrive on the redis
// command queue and map events leave on the session channel.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.WithSession(logger.Setup(cfg), cfg.SessionID.String())

	log.Info("Starting questmap worker",
		"environment", cfg.Environment,
		"scenario", cfg.Scenario)

	if cfg.RedisURL == "" {
		log.Error("REDIS_URL is required for the worker")
		os.Exit(1)
	}

	content := storage.NewFileStorage(cfg.ContentPath, log)
	s, err := content.GetScenario(context.Background(), cfg.Scenario)
	if err != nil {
		log.Error("Failed to load scenario", "error", err, "path", filepath.Join(cfg.ContentPath, cfg.Scenario))
		os.Exit(1)
	}
	if cfg.Storyline != "" {
		s.OpeningStoryline = cfg.Storyline
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	redisClient, err := events.Connect(ctx, cfg.RedisURL, log)
	cancel()
	if err != nil {
		log.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis client", "error", err)
		}
	}()

	core, err := game.New(s, log)
	if err != nil {
		log.Error("Failed to start game core", "error", err)
		os.Exit(1)
	}
	bridge := events.Attach(core, events.NewBroadcaster(redisClient, log), cfg.SessionID)
	bridge.Announce()

	dispatcher := dispatch.New(log, 64)
	go dispatcher.Start()

	session := handlers.NewSession(cfg.SessionID, core, dispatcher)
	w := worker.New(queue.NewCommandQueue(redisClient, log), cfg.SessionID, session, log, cfg.WorkerID)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go w.Start()
	log.Info("Worker started, waiting for commands...", "key", queue.Key(cfg.SessionID))

	<-quit
	log.Info("Worker shutdown signal received")

	w.Stop()
	<-w.Done()

	dispatcher.Stop()
	<-dispatcher.Done()

	log.Info("Worker exited")
}
