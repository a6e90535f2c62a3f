// Package markers tracks the quest markers a presentation layer shows and
// turns each new assignment into the edits needed to reach it.
package markers

import (
	"cmp"
	"maps"
	"slices"
)

type Kind string

const (
	Added   Kind = "added"
	Swapped Kind = "swapped"
	Removed Kind = "removed"
)

// Change is one edit to the displayed markers.
type Change struct {
	NPC      string `json:"npc"`
	Kind     Kind   `json:"kind"`
	Icon     string `json:"icon,omitempty"`
	Previous string `json:"previous,omitempty"`
}

// Board is the set of markers currently displayed, keyed by NPC.
type Board struct {
	icons map[string]string
}

func NewBoard() *Board {
	return &Board{icons: make(map[string]string)}
}

// Apply moves the board to assignment and returns the changes, sorted by
// NPC. Markers of NPCs for which present returns false are removed and
// never added.
func (b *Board) Apply(present func(npcID string) bool, assignment map[string]string) []Change {
	var changes []Change

	for _, npc := range slices.Sorted(maps.Keys(b.icons)) {
		icon := b.icons[npc]
		next, ok := assignment[npc]
		switch {
		case !ok || !present(npc):
			changes = append(changes, Change{NPC: npc, Kind: Removed, Previous: icon})
			delete(b.icons, npc)
		case next != icon:
			changes = append(changes, Change{NPC: npc, Kind: Swapped, Icon: next, Previous: icon})
			b.icons[npc] = next
		}
	}

	for _, npc := range slices.Sorted(maps.Keys(assignment)) {
		if _, shown := b.icons[npc]; shown || !present(npc) {
			continue
		}
		b.icons[npc] = assignment[npc]
		changes = append(changes, Change{NPC: npc, Kind: Added, Icon: assignment[npc]})
	}

	slices.SortStableFunc(changes, func(x, y Change) int { return cmp.Compare(x.NPC, y.NPC) })
	return changes
}

// Icons returns a copy of the displayed markers.
func (b *Board) Icons() map[string]string {
	return maps.Clone(b.icons)
}
