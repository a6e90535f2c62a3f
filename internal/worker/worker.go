package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/questmap/internal/services/queue"
	"github.com/jwebster45206/questmap/pkg/game"
	queuePkg "github.com/jwebster45206/questmap/pkg/queue"
)

const (
	workerTimeout = 5 * time.Second
	retryDelay    = time.Second
)

// Session runs functions against the game core. handlers.Session is the
// production implementation.
type Session interface {
	Do(ctx context.Context, name string, fn func(*game.Core) error) error
}

// Worker applies commands queued for one session.
type Worker struct {
	id        string
	sessionID uuid.UUID
	poll      time.Duration
	queue     *queue.CommandQueue
	session   Session
	log       *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates a new worker instance
func New(q *queue.CommandQueue, sessionID uuid.UUID, session Session, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Worker{
		id:        workerID,
		sessionID: sessionID,
		poll:      workerTimeout,
		queue:     q,
		session:   session,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Start processes commands until Stop is called. It blocks.
func (w *Worker) Start() {
	w.log.Info("Worker starting", "worker_id", w.id, "key", queue.Key(w.sessionID))
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return
		default:
			if err := w.processNextCommand(); err != nil {
				w.log.Error("Error processing command", "error", err, "worker_id", w.id)
				// Continue processing even on error
				select {
				case <-w.ctx.Done():
				case <-time.After(retryDelay):
				}
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// Done is closed once Start has returned.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// processNextCommand waits for the next command and applies it. A command
// the core rejects is logged and dropped; only queue failures are errors.
func (w *Worker) processNextCommand() error {
	cmd, err := w.queue.BlockingDequeue(w.ctx, w.sessionID, w.poll)
	if err != nil {
		if w.ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to dequeue command: %w", err)
	}
	if cmd == nil {
		return nil
	}

	log := w.log.With(
		"worker_id", w.id,
		"request_id", cmd.RequestID,
		"type", cmd.Type)

	if err := w.apply(cmd); err != nil {
		log.Warn("Command rejected", "error", err)
		return nil
	}
	log.Info("Command applied", "latency", time.Since(cmd.EnqueuedAt).String())
	return nil
}

func (w *Worker) apply(cmd *queuePkg.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if cmd.SessionID != w.sessionID {
		return fmt.Errorf("%w: command for session %s", queuePkg.ErrInvalidCommand, cmd.SessionID)
	}

	return w.session.Do(w.ctx, string(cmd.Type), func(c *game.Core) error {
		switch cmd.Type {
		case queuePkg.CommandSetFlag:
			return c.SetFlag(cmd.Flag, cmd.Value)
		case queuePkg.CommandSetStoryline:
			return c.SetStoryline(cmd.Storyline)
		}
		return errors.ErrUnsupported
	})
}
