package storyline

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/questmap/pkg/notify"
	"github.com/jwebster45206/questmap/pkg/scenario"
)

var (
	// ErrUnknownStoryline is returned when selecting a storyline that is not defined.
	ErrUnknownStoryline = errors.New("unknown storyline")
	ErrUnknownNPC       = errors.New("unknown NPC")
)

// NPC is the descriptor of a non-player character present in the current
// storyline.
type NPC struct {
	ID string `json:"id"`
	scenario.NPC
}

// Manager owns the current storyline and the NPCs it populates.
type Manager struct {
	storylines map[string]scenario.Storyline
	logger     *slog.Logger
	titler     cases.Caser

	current string
	npcs    map[string]NPC
	changed notify.Signal
}

// NewManager creates a manager with no storyline selected.
func NewManager(storylines map[string]scenario.Storyline, logger *slog.Logger) *Manager {
	return &Manager{
		storylines: storylines,
		logger:     logger,
		titler:     cases.Title(language.English),
		npcs:       make(map[string]NPC),
	}
}

// SetCurrent selects a storyline. Reselecting the current storyline is a
// no-op. Otherwise the NPC set is rebuilt and OnChanged listeners run once
// the new state is in place.
func (m *Manager) SetCurrent(id string) error {
	def, ok := m.storylines[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStoryline, id)
	}
	if id == m.current {
		return nil
	}
	if m.changed.Emitting() {
		return fmt.Errorf("set storyline %s: %w", id, notify.ErrReentrant)
	}

	npcs := make(map[string]NPC, len(def.NPCs))
	for npcID, props := range def.NPCs {
		npcs[npcID] = m.newNPC(npcID, props)
	}

	previous := m.current
	m.current = id
	m.npcs = npcs

	if m.logger != nil {
		m.logger.Info("Storyline changed",
			"from", previous,
			"to", id,
			"npc_count", len(npcs))
	}

	return m.changed.Emit()
}

// Current returns the selected storyline ID, or "" before the first selection.
func (m *Manager) Current() string {
	return m.current
}

// NPCs returns a snapshot of the NPCs in the current storyline.
func (m *Manager) NPCs() map[string]NPC {
	out := make(map[string]NPC, len(m.npcs))
	for id, npc := range m.npcs {
		npc.Props = maps.Clone(npc.Props)
		out[id] = npc
	}
	return out
}

// HasNPC reports whether the NPC is present in the current storyline.
func (m *Manager) HasNPC(id string) bool {
	_, ok := m.npcs[id]
	return ok
}

// Has reports whether a storyline is defined.
func (m *Manager) Has(id string) bool {
	_, ok := m.storylines[id]
	return ok
}

// Defines reports whether any storyline, selected or not, defines the NPC.
func (m *Manager) Defines(npcID string) bool {
	for _, def := range m.storylines {
		if _, ok := def.NPCs[npcID]; ok {
			return true
		}
	}
	return false
}

// OnChanged registers a listener for storyline changes.
func (m *Manager) OnChanged(fn func()) notify.Subscription {
	return m.changed.Subscribe(fn)
}

func (m *Manager) Unsubscribe(sub notify.Subscription) {
	m.changed.Unsubscribe(sub)
}

// Notifying reports whether change listeners are currently running.
func (m *Manager) Notifying() bool {
	return m.changed.Emitting()
}

func (m *Manager) newNPC(id string, props scenario.NPC) NPC {
	if props.Name == "" {
		props.Name = m.titler.String(strings.ReplaceAll(id, "_", " "))
	}
	props.Props = maps.Clone(props.Props)
	return NPC{ID: id, NPC: props}
}
