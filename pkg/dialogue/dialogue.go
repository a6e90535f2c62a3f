package dialogue

import (
	"fmt"
	"slices"

	"github.com/jwebster45206/questmap/pkg/flags"
)

// Dialogue is a small graph of lines an NPC speaks.
type Dialogue struct {
	Start string          `json:"start" yaml:"start"`
	Nodes map[string]Node `json:"nodes" yaml:"nodes"`
}

// Node is one line of dialogue. A node either offers responses or moves on
// to Next when the player presses action. An empty Next ends the dialogue.
type Node struct {
	Speaker   string                 `json:"speaker,omitempty" yaml:"speaker,omitempty"`
	Text      string                 `json:"text" yaml:"text"`
	Responses []Response             `json:"responses,omitempty" yaml:"responses,omitempty"`
	Next      string                 `json:"next,omitempty" yaml:"next,omitempty"`
	SetFlags  map[string]flags.Value `json:"set_flags,omitempty" yaml:"set_flags,omitempty"` // applied when the node is shown
}

// Response is a choice the player can pick while a node is shown.
type Response struct {
	Text     string                 `json:"text" yaml:"text"`
	Next     string                 `json:"next,omitempty" yaml:"next,omitempty"`
	SetFlags map[string]flags.Value `json:"set_flags,omitempty" yaml:"set_flags,omitempty"`
}

// Validate checks that the start node and every jump target exist.
func (d Dialogue) Validate() []error {
	var errs []error
	if _, ok := d.Nodes[d.Start]; !ok {
		errs = append(errs, fmt.Errorf("start node %q does not exist", d.Start))
	}
	for id, node := range d.Nodes {
		if node.Next != "" {
			if _, ok := d.Nodes[node.Next]; !ok {
				errs = append(errs, fmt.Errorf("node %q: next %q does not exist", id, node.Next))
			}
		}
		if node.Next != "" && len(node.Responses) > 0 {
			errs = append(errs, fmt.Errorf("node %q: next and responses are mutually exclusive", id))
		}
		for i, r := range node.Responses {
			if r.Next == "" {
				continue
			}
			if _, ok := d.Nodes[r.Next]; !ok {
				errs = append(errs, fmt.Errorf("node %q response %d: next %q does not exist", id, i, r.Next))
			}
		}
	}
	return errs
}

// FlagNames returns every flag the dialogue may set, sorted and deduplicated.
func (d Dialogue) FlagNames() []string {
	var names []string
	for _, node := range d.Nodes {
		for name := range node.SetFlags {
			names = append(names, name)
		}
		for _, r := range node.Responses {
			for name := range r.SetFlags {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}
