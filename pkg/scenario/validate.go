package scenario

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/jwebster45206/questmap/pkg/conditionals"
)

// ValidationError lists every problem found in a scenario.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid scenario:\n  - %s", strings.Join(e.Problems, "\n  - "))
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

// IsValidID reports whether id is lowercase snake_case.
func IsValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

type validator struct {
	s        *Scenario
	problems []string
}

// Validate checks ID formats and every cross reference: the opening
// storyline, quest NPCs, flags read by conditions and set by dialogues, and
// dialogue links. It returns a *ValidationError listing all problems.
func (s *Scenario) Validate() error {
	v := &validator{s: s}
	v.validate()
	if len(v.problems) > 0 {
		return &ValidationError{Problems: v.problems}
	}
	return nil
}

func (v *validator) validate() {
	s := v.s

	if s.OpeningStoryline == "" {
		v.addError("opening_storyline is required")
	} else if !s.HasStoryline(s.OpeningStoryline) {
		v.addError(fmt.Sprintf("opening_storyline %q is not defined", s.OpeningStoryline))
	}

	for _, name := range sortedKeys(s.Flags) {
		v.validateIDFormat("flag", name)
	}

	for _, id := range sortedKeys(s.Storylines) {
		v.validateIDFormat("storyline ID", id)
		for _, npcID := range sortedKeys(s.Storylines[id].NPCs) {
			v.validateIDFormat("NPC ID", npcID)
			npc := s.Storylines[id].NPCs[npcID]
			if npc.Dialogue != "" {
				if _, ok := s.Dialogues[npc.Dialogue]; !ok {
					v.addError(fmt.Sprintf("NPC %s in storyline %s uses unknown dialogue %q", npcID, id, npc.Dialogue))
				}
			}
		}
	}

	seen := make(map[string]bool)
	for i, q := range s.Quests {
		if q.ID == "" {
			v.addError(fmt.Sprintf("quest %d has no id", i))
			continue
		}
		v.validateIDFormat("quest ID", q.ID)
		if seen[q.ID] {
			v.addError(fmt.Sprintf("quest %s is declared more than once", q.ID))
		}
		seen[q.ID] = true
		v.validateQuest(q)
	}

	for _, id := range sortedKeys(s.Dialogues) {
		v.validateIDFormat("dialogue ID", id)
		d := s.Dialogues[id]
		for _, err := range d.Validate() {
			v.addError(fmt.Sprintf("dialogue %s: %v", id, err))
		}
		for _, name := range d.FlagNames() {
			if _, ok := s.Flags[name]; !ok {
				v.addError(fmt.Sprintf("dialogue %s sets undeclared flag %q", id, name))
			}
		}
	}
}

func (v *validator) validateQuest(q Quest) {
	context := "quest " + q.ID

	if q.NPC == "" {
		v.addError(context + " has no owning npc")
	} else if !v.s.HasNPC(q.NPC) {
		v.addError(fmt.Sprintf("%s is owned by unknown NPC %q", context, q.NPC))
	}
	if q.Icon == "" {
		v.addError(context + " has no icon")
	}
	if q.When.IsEmpty() {
		v.addError(context + " has empty 'when' clause - no conditions specified")
	}

	v.validateWhen(context+" when", q.When)
	v.validateWhen(context+" done_when", q.DoneWhen)
}

func (v *validator) validateWhen(context string, when conditionals.ConditionalWhen) {
	for _, part := range when.EmptyParts() {
		v.addError(fmt.Sprintf("%s has empty sub-condition %s", context, part))
	}
	for _, name := range when.FlagNames() {
		if _, ok := v.s.Flags[name]; !ok {
			v.addError(fmt.Sprintf("%s references undeclared flag %q", context, name))
		}
	}
	for _, id := range when.NPCNames() {
		if !v.s.HasNPC(id) {
			v.addError(fmt.Sprintf("%s references unknown NPC %q", context, id))
		}
	}
	for _, id := range when.Storylines() {
		if !v.s.HasStoryline(id) {
			v.addError(fmt.Sprintf("%s references unknown storyline %q", context, id))
		}
	}
}

func (v *validator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}

	if !IsValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *validator) addError(msg string) {
	v.problems = append(v.problems, msg)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
