package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/questmap/pkg/queue"
)

// CommandQueue is the per-session list of map commands waiting to be applied.
type CommandQueue struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewCommandQueue(rdb *redis.Client, logger *slog.Logger) *CommandQueue {
	return &CommandQueue{
		rdb:    rdb,
		logger: logger,
	}
}

// Key returns the Redis key holding a session's commands.
func Key(sessionID uuid.UUID) string {
	return fmt.Sprintf("map-commands:%s", sessionID.String())
}

// Enqueue appends a command to its session's queue.
func (q *CommandQueue) Enqueue(ctx context.Context, cmd *queue.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if cmd.RequestID == "" {
		cmd.RequestID = uuid.New().String()
	}
	if cmd.EnqueuedAt.IsZero() {
		cmd.EnqueuedAt = time.Now()
	}

	data, err := cmd.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize command: %w", err)
	}

	key := Key(cmd.SessionID)
	if err := q.rdb.RPush(ctx, key, data).Err(); err != nil {
		q.logger.Error("Failed to enqueue command",
			"error", err,
			"session_id", cmd.SessionID.String(),
			"key", key)
		return fmt.Errorf("failed to enqueue command: %w", err)
	}

	q.logger.Debug("Enqueued command",
		"request_id", cmd.RequestID,
		"type", cmd.Type,
		"session_id", cmd.SessionID.String())
	return nil
}

// BlockingDequeue waits up to timeout for the next command of a session.
// It returns nil, nil when the wait times out.
func (q *CommandQueue) BlockingDequeue(ctx context.Context, sessionID uuid.UUID, timeout time.Duration) (*queue.Command, error) {
	result, err := q.rdb.BLPop(ctx, timeout, Key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue command: %w", err)
	}

	// BLPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BLPop result: %v", result)
	}

	cmd, err := queue.FromJSON([]byte(result[1]))
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}
	return cmd, nil
}

// Peek returns up to limit queued commands without removing them. A limit
// of zero or less returns all of them.
func (q *CommandQueue) Peek(ctx context.Context, sessionID uuid.UUID, limit int) ([]*queue.Command, error) {
	end := int64(limit - 1)
	if limit <= 0 {
		end = -1
	}

	raw, err := q.rdb.LRange(ctx, Key(sessionID), 0, end).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to peek commands: %w", err)
	}

	cmds := make([]*queue.Command, 0, len(raw))
	for _, data := range raw {
		cmd, err := queue.FromJSON([]byte(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse command: %w", err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// Depth returns the number of commands queued for a session
func (q *CommandQueue) Depth(ctx context.Context, sessionID uuid.UUID) (int, error) {
	count, err := q.rdb.LLen(ctx, Key(sessionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue depth: %w", err)
	}
	return int(count), nil
}

// Clear drops every command queued for a session
func (q *CommandQueue) Clear(ctx context.Context, sessionID uuid.UUID) error {
	if err := q.rdb.Del(ctx, Key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear command queue: %w", err)
	}
	return nil
}
