package dialogue

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/jwebster45206/questmap/pkg/flags"
)

// FlagSetter is the mutation entry point dialogue effects go through, so
// that quest state is re-evaluated after each change.
type FlagSetter interface {
	SetFlag(name string, v flags.Value) error
}

// FlagChecker is implemented by setters that can reject a value without
// storing it. When the setter implements it, a node's flags are checked
// together and none is set unless all would be accepted.
type FlagChecker interface {
	CheckFlag(name string, v flags.Value) error
}

// Player runs one dialogue. It acts both as the overlay that tracks the
// selected response and as the sequencer that advances on action.
type Player struct {
	id       string
	dialogue Dialogue
	setter   FlagSetter
	logger   *slog.Logger

	current  string
	selected int
	ended    bool
	err      error
	onEnd    []func()
}

// NewPlayer creates a player positioned before the start node. Call Start
// to show the first line.
func NewPlayer(id string, d Dialogue, setter FlagSetter, logger *slog.Logger) *Player {
	return &Player{
		id:       id,
		dialogue: d,
		setter:   setter,
		logger:   logger,
	}
}

// OnEnd registers a callback run once the dialogue finishes.
func (p *Player) OnEnd(fn func()) {
	p.onEnd = append(p.onEnd, fn)
}

// Start shows the start node and applies its flags.
func (p *Player) Start() error {
	p.ended = false
	p.err = nil
	return p.enter(p.dialogue.Start)
}

// Current returns the node being shown.
func (p *Player) Current() (Node, bool) {
	if p.ended {
		return Node{}, false
	}
	node, ok := p.dialogue.Nodes[p.current]
	return node, ok
}

func (p *Player) Selected() int { return p.selected }
func (p *Player) Ended() bool   { return p.ended }

// Err returns the last error raised while applying dialogue effects.
func (p *Player) Err() error { return p.err }

func (p *Player) SelectNextResponseOption() {
	node, ok := p.Current()
	if !ok || len(node.Responses) == 0 {
		return
	}
	p.selected = (p.selected + 1) % len(node.Responses)
}

func (p *Player) SelectPreviousResponseOption() {
	node, ok := p.Current()
	if !ok || len(node.Responses) == 0 {
		return
	}
	p.selected = (p.selected - 1 + len(node.Responses)) % len(node.Responses)
}

// Action picks the selected response, or moves on when the node has none.
func (p *Player) Action() {
	node, ok := p.Current()
	if !ok {
		return
	}

	next := node.Next
	if len(node.Responses) > 0 {
		response := node.Responses[p.selected]
		if err := p.apply(response.SetFlags); err != nil {
			p.fail(err)
			return
		}
		next = response.Next
	}

	if next == "" {
		p.finish()
		return
	}
	if err := p.enter(next); err != nil {
		p.fail(err)
	}
}

func (p *Player) enter(nodeID string) error {
	node, ok := p.dialogue.Nodes[nodeID]
	if !ok {
		return fmt.Errorf("dialogue %s: node %q does not exist", p.id, nodeID)
	}
	p.current = nodeID
	p.selected = 0
	if p.logger != nil {
		p.logger.Debug("Dialogue node entered", "dialogue", p.id, "node", nodeID)
	}
	return p.apply(node.SetFlags)
}

func (p *Player) apply(set map[string]flags.Value) error {
	if p.setter == nil {
		return nil
	}
	names := slices.Sorted(maps.Keys(set))
	if checker, ok := p.setter.(FlagChecker); ok {
		for _, name := range names {
			if err := checker.CheckFlag(name, set[name]); err != nil {
				return fmt.Errorf("dialogue %s: set flag %s: %w", p.id, name, err)
			}
		}
	}
	for _, name := range names {
		if err := p.setter.SetFlag(name, set[name]); err != nil {
			return fmt.Errorf("dialogue %s: set flag %s: %w", p.id, name, err)
		}
	}
	return nil
}

func (p *Player) fail(err error) {
	p.err = err
	if p.logger != nil {
		p.logger.Error("Dialogue action failed", "dialogue", p.id, "error", err)
	}
}

func (p *Player) finish() {
	p.ended = true
	if p.logger != nil {
		p.logger.Debug("Dialogue ended", "dialogue", p.id)
	}
	for _, fn := range p.onEnd {
		fn()
	}
}
