package input

import (
	"fmt"
	"maps"
	"slices"

	"github.com/charmbracelet/bubbles/key"
)

// Keymap translates terminal key presses into signals and named toggles.
type Keymap struct {
	Down    key.Binding
	Up      key.Binding
	Action  key.Binding
	Toggles map[string]key.Binding
}

// ToggleStats is the overlay toggle bound to "d" by DefaultKeymap.
const ToggleStats = "stats"

func DefaultKeymap() Keymap {
	return Keymap{
		Down: key.NewBinding(
			key.WithKeys("down", "j", "s"),
			key.WithHelp("↓/j", "next"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k", "w"),
			key.WithHelp("↑/k", "previous"),
		),
		Action: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "action"),
		),
		Toggles: map[string]key.Binding{
			ToggleStats: key.NewBinding(
				key.WithKeys("d"),
				key.WithHelp("d", "stats"),
			),
		},
	}
}

// Resolve returns the signal for msg, or the name of a toggle. Keys that
// match nothing return ok=false.
func (k Keymap) Resolve(msg fmt.Stringer) (sig Signal, toggle string, ok bool) {
	switch {
	case key.Matches(msg, k.Down):
		return SignalDown, "", true
	case key.Matches(msg, k.Up):
		return SignalUp, "", true
	case key.Matches(msg, k.Action):
		return SignalAction, "", true
	}
	for _, name := range sortedToggleNames(k.Toggles) {
		if key.Matches(msg, k.Toggles[name]) {
			return SignalToggle, name, true
		}
	}
	return "", "", false
}

// Feed resolves msg and delivers it to source. It reports whether the key
// was consumed.
func (k Keymap) Feed(source *Source, msg fmt.Stringer) bool {
	sig, toggle, ok := k.Resolve(msg)
	if !ok {
		return false
	}
	if toggle != "" {
		return source.Toggle(toggle)
	}
	source.Dispatch(sig)
	return true
}

// ShortHelp lists the bindings for a help line.
func (k Keymap) ShortHelp() []key.Binding {
	help := []key.Binding{k.Up, k.Down, k.Action}
	for _, name := range sortedToggleNames(k.Toggles) {
		help = append(help, k.Toggles[name])
	}
	return help
}

func sortedToggleNames(toggles map[string]key.Binding) []string {
	return slices.Sorted(maps.Keys(toggles))
}
