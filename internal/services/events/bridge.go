package events

import (
	"context"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/jwebster45206/questmap/pkg/game"
	"github.com/jwebster45206/questmap/pkg/notify"
)

// Bridge forwards the notifications of a game core to a Broadcaster. Its
// listeners run on the core's goroutine and publish synchronously, bounded
// by a short timeout.
type Bridge struct {
	core        *game.Core
	broadcaster *Broadcaster
	sessionID   uuid.UUID

	storylineSub notify.Subscription
	activeSub    notify.Subscription
	doneSub      notify.Subscription
}

// Attach subscribes to core and publishes every notification on the
// session's channel until Detach is called.
func Attach(core *game.Core, broadcaster *Broadcaster, sessionID uuid.UUID) *Bridge {
	b := &Bridge{core: core, broadcaster: broadcaster, sessionID: sessionID}
	b.storylineSub = core.OnStorylineChanged(b.storylineChanged)
	b.activeSub = core.OnQuestActive(b.questActive)
	b.doneSub = core.OnQuestDone(b.questDone)
	return b
}

// Detach removes the bridge's listeners from the core.
func (b *Bridge) Detach() {
	b.core.UnsubscribeStoryline(b.storylineSub)
	b.core.UnsubscribeQuestActive(b.activeSub)
	b.core.UnsubscribeQuestDone(b.doneSub)
}

// Announce publishes the current map as a storyline.changed event. The
// opening notifications fire before any bridge can attach.
func (b *Bridge) Announce() {
	b.storylineChanged()
}

func (b *Bridge) storylineChanged() {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	npcs := slices.Sorted(maps.Keys(b.core.NPCs()))
	// errors are logged by the broadcaster
	_ = b.broadcaster.PublishStorylineChanged(ctx, b.sessionID, b.core.Storyline(), npcs, b.core.NpcsWithQuests())
}

func (b *Bridge) questActive() {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	_ = b.broadcaster.PublishQuestActive(ctx, b.sessionID, b.core.Storyline(), b.core.NpcsWithQuests())
}

func (b *Bridge) questDone() {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	_ = b.broadcaster.PublishQuestDone(ctx, b.sessionID, b.core.Storyline(), b.core.NpcsWithQuests())
}
