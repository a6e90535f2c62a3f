package conditionals

import (
	"fmt"
	"slices"

	"github.com/jwebster45206/questmap/pkg/flags"
)

// ConditionalWhen defines the conditions that must hold for a quest (or any
// other gated content) to apply. Every populated field must be satisfied.
type ConditionalWhen struct {
	Flags      map[string]flags.Value `json:"flags,omitempty" yaml:"flags,omitempty"`             // All listed flags must equal
	FlagsNot   map[string]flags.Value `json:"flags_not,omitempty" yaml:"flags_not,omitempty"`     // No listed flag may equal
	Min        map[string]float64     `json:"min,omitempty" yaml:"min,omitempty"`                 // Numeric flag >= value
	Max        map[string]float64     `json:"max,omitempty" yaml:"max,omitempty"`                 // Numeric flag <= value
	Storyline  string                 `json:"storyline,omitempty" yaml:"storyline,omitempty"`     // Current storyline must match
	NPCPresent string                 `json:"npc_present,omitempty" yaml:"npc_present,omitempty"` // NPC must exist in the current storyline
	All        []ConditionalWhen      `json:"all,omitempty" yaml:"all,omitempty"`
	Any        []ConditionalWhen      `json:"any,omitempty" yaml:"any,omitempty"`
	Not        *ConditionalWhen       `json:"not,omitempty" yaml:"not,omitempty"`
}

// StateView provides the minimal interface needed to evaluate conditionals.
// This avoids import cycles with the quest and storyline packages.
type StateView interface {
	GetFlag(name string) flags.Value
	GetStoryline() string
	HasNPC(id string) bool
}

// IsEmpty reports whether no condition is specified at all.
func (w ConditionalWhen) IsEmpty() bool {
	return len(w.Flags) == 0 &&
		len(w.FlagsNot) == 0 &&
		len(w.Min) == 0 &&
		len(w.Max) == 0 &&
		w.Storyline == "" &&
		w.NPCPresent == "" &&
		len(w.All) == 0 &&
		len(w.Any) == 0 &&
		w.Not == nil
}

// FlagNames returns every flag the condition reads, sorted and deduplicated.
func (w ConditionalWhen) FlagNames() []string {
	var names []string
	w.walk(func(c ConditionalWhen) {
		for name := range c.Flags {
			names = append(names, name)
		}
		for name := range c.FlagsNot {
			names = append(names, name)
		}
		for name := range c.Min {
			names = append(names, name)
		}
		for name := range c.Max {
			names = append(names, name)
		}
	})
	slices.Sort(names)
	return slices.Compact(names)
}

// NPCNames returns every NPC the condition requires, sorted and deduplicated.
func (w ConditionalWhen) NPCNames() []string {
	var names []string
	w.walk(func(c ConditionalWhen) {
		if c.NPCPresent != "" {
			names = append(names, c.NPCPresent)
		}
	})
	slices.Sort(names)
	return slices.Compact(names)
}

// Storylines returns every storyline the condition names.
func (w ConditionalWhen) Storylines() []string {
	var names []string
	w.walk(func(c ConditionalWhen) {
		if c.Storyline != "" {
			names = append(names, c.Storyline)
		}
	})
	slices.Sort(names)
	return slices.Compact(names)
}

// EmptyParts returns the paths of nested sub-conditions that specify
// nothing, such as "all[0]" or "not". The top-level clause is not checked.
func (w ConditionalWhen) EmptyParts() []string {
	var parts []string
	w.emptyParts("", &parts)
	return parts
}

func (w ConditionalWhen) emptyParts(prefix string, parts *[]string) {
	check := func(path string, c ConditionalWhen) {
		if c.IsEmpty() {
			*parts = append(*parts, path)
			return
		}
		c.emptyParts(path+".", parts)
	}
	for i, c := range w.All {
		check(fmt.Sprintf("%sall[%d]", prefix, i), c)
	}
	for i, c := range w.Any {
		check(fmt.Sprintf("%sany[%d]", prefix, i), c)
	}
	if w.Not != nil {
		check(prefix+"not", *w.Not)
	}
}

func (w ConditionalWhen) walk(fn func(ConditionalWhen)) {
	fn(w)
	for _, c := range w.All {
		c.walk(fn)
	}
	for _, c := range w.Any {
		c.walk(fn)
	}
	if w.Not != nil {
		w.Not.walk(fn)
	}
}

// EvaluateWhen checks if all conditions in a When clause are met
func EvaluateWhen(when ConditionalWhen, view StateView) bool {
	// If no conditions specified, return false (conditional should not trigger)
	if when.IsEmpty() {
		return false
	}

	for name, expected := range when.Flags {
		if !view.GetFlag(name).Equal(expected) {
			return false
		}
	}

	for name, unwanted := range when.FlagsNot {
		if view.GetFlag(name).Equal(unwanted) {
			return false
		}
	}

	for name, floor := range when.Min {
		n, ok := numeric(view.GetFlag(name))
		if !ok || n < floor {
			return false
		}
	}

	for name, ceiling := range when.Max {
		n, ok := numeric(view.GetFlag(name))
		if !ok || n > ceiling {
			return false
		}
	}

	if when.Storyline != "" && view.GetStoryline() != when.Storyline {
		return false
	}

	if when.NPCPresent != "" && !view.HasNPC(when.NPCPresent) {
		return false
	}

	for _, c := range when.All {
		if !EvaluateWhen(c, view) {
			return false
		}
	}

	if len(when.Any) > 0 {
		matched := false
		for _, c := range when.Any {
			if EvaluateWhen(c, view) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if when.Not != nil && EvaluateWhen(*when.Not, view) {
		return false
	}

	// All conditions passed
	return true
}

// numeric reads a flag for threshold checks. Unset flags count as zero;
// booleans and enums never satisfy a threshold.
func numeric(v flags.Value) (float64, bool) {
	switch v.Kind() {
	case flags.KindUnset:
		return 0, true
	case flags.KindNumber:
		n, _ := v.Number()
		return n, true
	default:
		return 0, false
	}
}
