package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/questmap/pkg/flags"
)

// CommandType identifies what a queued command does to the map.
type CommandType string

const (
	// CommandSetFlag sets one flag and re-evaluates quests
	CommandSetFlag CommandType = "set_flag"

	// CommandSetStoryline switches the current storyline
	CommandSetStoryline CommandType = "set_storyline"
)

var ErrInvalidCommand = errors.New("invalid command")

// Command is a mutation sent to a running session through redis.
type Command struct {
	RequestID string      `json:"request_id"`
	Type      CommandType `json:"type"`
	SessionID uuid.UUID   `json:"session_id"`

	// set_flag
	Flag  string      `json:"flag,omitempty"`
	Value flags.Value `json:"value,omitzero"`

	// set_storyline
	Storyline string `json:"storyline,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Validate checks that the command carries the fields its type needs.
func (c *Command) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("%w: missing session id", ErrInvalidCommand)
	}
	switch c.Type {
	case CommandSetFlag:
		if c.Flag == "" || c.Value.IsUnset() {
			return fmt.Errorf("%w: set_flag needs a flag and a value", ErrInvalidCommand)
		}
	case CommandSetStoryline:
		if c.Storyline == "" {
			return fmt.Errorf("%w: set_storyline needs a storyline", ErrInvalidCommand)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCommand, c.Type)
	}
	return nil
}

// ToJSON converts the command to JSON bytes for Redis
func (c *Command) ToJSON() ([]byte, error) {
	return json.Marshal(c)
}

// FromJSON parses a command from JSON bytes
func FromJSON(data []byte) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}
