package scenario

import (
	"github.com/jwebster45206/questmap/pkg/conditionals"
	"github.com/jwebster45206/questmap/pkg/dialogue"
	"github.com/jwebster45206/questmap/pkg/flags"
)

// Scenario is the declarative content for a map: the flags it tracks, the
// storylines that can be selected, and the quests offered by their NPCs.
// It is loaded once at startup and never modified afterwards.
type Scenario struct {
	Name             string                       `json:"name" yaml:"name"`                           // Name of the scenario
	FileName         string                       `json:"file_name,omitempty" yaml:"file_name,omitempty"` // Name of the file containing the scenario
	Story            string                       `json:"story,omitempty" yaml:"story,omitempty"`     // Brief description of the scenario
	OpeningStoryline string                       `json:"opening_storyline" yaml:"opening_storyline"` // Storyline selected at startup
	Flags            map[string]flags.Value       `json:"flags" yaml:"flags"`                         // Declared flags and their defaults
	Storylines       map[string]Storyline         `json:"storylines" yaml:"storylines"`               // Storyline ID to definition
	Quests           []Quest                      `json:"quests" yaml:"quests"`                       // Quests in declaration order
	Dialogues        map[string]dialogue.Dialogue `json:"dialogues,omitempty" yaml:"dialogues,omitempty"`
}

// Storyline is a narrative branch: the NPCs present while it is selected.
type Storyline struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	NPCs        map[string]NPC `json:"npcs" yaml:"npcs"` // Map of NPC IDs to their data for this storyline
}

// NPC represents a non-player character in a storyline
type NPC struct {
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Type        string            `json:"type,omitempty" yaml:"type,omitempty"`               // e.g. "villager", "guard", "merchant"
	Disposition string            `json:"disposition,omitempty" yaml:"disposition,omitempty"` // e.g. "hostile", "neutral", "friendly"
	Sprite      string            `json:"sprite,omitempty" yaml:"sprite,omitempty"`           // appearance, resolved by the presentation layer
	Location    string            `json:"location,omitempty" yaml:"location,omitempty"`       // where the NPC stands on the map
	Dialogue    string            `json:"dialogue,omitempty" yaml:"dialogue,omitempty"`       // dialogue started when the player talks to the NPC
	Props       map[string]string `json:"props,omitempty" yaml:"props,omitempty"`
}

// Quest is a condition-gated unit of progression offered by one NPC.
type Quest struct {
	ID       string                       `json:"id" yaml:"id"`
	NPC      string                       `json:"npc" yaml:"npc"`   // owning NPC
	Icon     string                       `json:"icon" yaml:"icon"` // marker icon shown over the NPC
	Priority int                          `json:"priority,omitempty" yaml:"priority,omitempty"`
	When     conditionals.ConditionalWhen `json:"when" yaml:"when"`                               // activation condition
	DoneWhen conditionals.ConditionalWhen `json:"done_when,omitempty" yaml:"done_when,omitempty"` // completion condition
}

// HasStoryline reports whether a storyline with the given ID is defined.
func (s *Scenario) HasStoryline(id string) bool {
	_, ok := s.Storylines[id]
	return ok
}

// HasNPC reports whether any storyline defines the NPC.
func (s *Scenario) HasNPC(id string) bool {
	for _, sl := range s.Storylines {
		if _, ok := sl.NPCs[id]; ok {
			return true
		}
	}
	return false
}
