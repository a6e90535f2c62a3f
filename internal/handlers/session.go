package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwebster45206/questmap/internal/dispatch"
	"github.com/jwebster45206/questmap/pkg/game"
)

// Session is the running game a server exposes. Every access to the core
// goes through the dispatcher.
type Session struct {
	ID         uuid.UUID
	core       *game.Core
	dispatcher *dispatch.Dispatcher
}

func NewSession(id uuid.UUID, core *game.Core, dispatcher *dispatch.Dispatcher) *Session {
	return &Session{ID: id, core: core, dispatcher: dispatcher}
}

// Do runs fn against the core on the dispatcher goroutine.
func (s *Session) Do(ctx context.Context, name string, fn func(*game.Core) error) error {
	return s.dispatcher.Do(ctx, name, func() error { return fn(s.core) })
}
