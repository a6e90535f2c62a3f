package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/questmap/internal/config"
	"github.com/jwebster45206/questmap/internal/logger"
	"github.com/jwebster45206/questmap/internal/services/events"
	"github.com/jwebster45206/questmap/internal/services/queue"
	"github.com/jwebster45206/questmap/pkg/flags"
	queuePkg "github.com/jwebster45206/questmap/pkg/queue"
)

const usage = `Usage:
  %[1]s flag <name> <value>   set a flag (true, false, a number or an enum)
  %[1]s storyline <id>        switch the storyline

SESSION_ID and REDIS_URL select the running map.
`

func main() {
	if os.Getenv("SESSION_ID") == "" {
		fmt.Fprintf(os.Stderr, "SESSION_ID must name the running session\n\n"+usage, os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = "redis://localhost:6379"
	}

	cmd, err := parseCommand(os.Args[1:], cfg.SessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\n"+usage, err, os.Args[0])
		os.Exit(1)
	}

	log := logger.Setup(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := events.Connect(ctx, cfg.RedisURL, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to redis: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = client.Close()
	}()

	q := queue.NewCommandQueue(client, log)
	if err := q.Enqueue(ctx, cmd); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to enqueue command: %v\n", err)
		os.Exit(1)
	}

	depth, err := q.Depth(ctx, cfg.SessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get queue depth: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Enqueued %s %s (%d waiting on %s)\n", cmd.Type, cmd.RequestID, depth, queue.Key(cfg.SessionID))
}

func parseCommand(args []string, sessionID uuid.UUID) (*queuePkg.Command, error) {
	if len(args) == 0 {
		return nil, errors.New("missing command")
	}

	cmd := &queuePkg.Command{SessionID: sessionID}
	switch args[0] {
	case "flag":
		if len(args) != 3 {
			return nil, errors.New("flag takes a name and a value")
		}
		cmd.Type = queuePkg.CommandSetFlag
		cmd.Flag = args[1]
		cmd.Value = flags.Parse(args[2])
	case "storyline":
		if len(args) != 2 {
			return nil, errors.New("storyline takes one id")
		}
		cmd.Type = queuePkg.CommandSetStoryline
		cmd.Storyline = args[1]
	default:
		return nil, fmt.Errorf("unknown command %q", args[0])
	}

	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}
