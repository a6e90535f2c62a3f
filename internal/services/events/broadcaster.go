package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const publishTimeout = 2 * time.Second

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeStorylineChanged EventType = "storyline.changed"
	EventTypeQuestActive      EventType = "quest.active"
	EventTypeQuestDone        EventType = "quest.done"
)

// Event carries the derived map state after a change. Clients redraw from
// it rather than patching what they already show.
type Event struct {
	Type      EventType         `json:"type"`
	SessionID string            `json:"session_id"`
	Storyline string            `json:"storyline"`
	NPCs      []string          `json:"npcs,omitempty"`
	Markers   map[string]string `json:"markers"`
}

// Channel returns the pub/sub channel for a session.
func Channel(sessionID uuid.UUID) string {
	return fmt.Sprintf("map-events:%s", sessionID.String())
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishStorylineChanged publishes a storyline.changed event
func (b *Broadcaster) PublishStorylineChanged(ctx context.Context, sessionID uuid.UUID, storyline string, npcs []string, markers map[string]string) error {
	return b.publish(ctx, sessionID, Event{
		Type:      EventTypeStorylineChanged,
		Storyline: storyline,
		NPCs:      npcs,
		Markers:   markers,
	})
}

// PublishQuestActive publishes a quest.active event
func (b *Broadcaster) PublishQuestActive(ctx context.Context, sessionID uuid.UUID, storyline string, markers map[string]string) error {
	return b.publish(ctx, sessionID, Event{
		Type:      EventTypeQuestActive,
		Storyline: storyline,
		Markers:   markers,
	})
}

// PublishQuestDone publishes a quest.done event
func (b *Broadcaster) PublishQuestDone(ctx context.Context, sessionID uuid.UUID, storyline string, markers map[string]string) error {
	return b.publish(ctx, sessionID, Event{
		Type:      EventTypeQuestDone,
		Storyline: storyline,
		Markers:   markers,
	})
}

func (b *Broadcaster) publish(ctx context.Context, sessionID uuid.UUID, event Event) error {
	event.SessionID = sessionID.String()
	if event.Markers == nil {
		event.Markers = map[string]string{}
	}
	channel := Channel(sessionID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"storyline", event.Storyline,
	)
	return nil
}
