package quest

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/questmap/pkg/conditionals"
	"github.com/jwebster45206/questmap/pkg/flags"
	"github.com/jwebster45206/questmap/pkg/notify"
	"github.com/jwebster45206/questmap/pkg/scenario"
	"github.com/jwebster45206/questmap/pkg/storyline"
)

// ErrInvalidQuest marks a quest definition that cannot be tracked.
var ErrInvalidQuest = errors.New("invalid quest")

// State is the lifecycle state of a quest.
type State int

const (
	StateInactive State = iota
	StateActive
	StateDone
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateDone:
		return "done"
	default:
		return "inactive"
	}
}

// FlagReader is the read side of the flag store.
type FlagReader interface {
	Get(name string) flags.Value
	Has(name string) bool
}

// Tracker derives quest states from flags and the current storyline.
//
// A quest is active while its owning NPC is present, its when condition
// holds and it is not done. Done is terminal: once done_when holds the
// quest never becomes active again, even if the condition later fails.
type Tracker struct {
	quests     []scenario.Quest
	storylines *storyline.Manager
	flags      FlagReader
	logger     *slog.Logger

	states map[string]State
	active notify.Signal
	done   notify.Signal
	sub    notify.Subscription
}

// Option configures a Tracker before its first evaluation.
type Option func(*Tracker)

// WithActiveListener registers fn on OnActive before the first evaluation,
// so quests that are active from the start are reported to it.
func WithActiveListener(fn func()) Option {
	return func(t *Tracker) { t.active.Subscribe(fn) }
}

// WithDoneListener registers fn on OnDone before the first evaluation.
func WithDoneListener(fn func()) Option {
	return func(t *Tracker) { t.done.Subscribe(fn) }
}

// NewTracker validates the quests against the storylines and declared
// flags, subscribes to storyline changes and runs the first evaluation.
func NewTracker(quests []scenario.Quest, storylines *storyline.Manager, store FlagReader, logger *slog.Logger, opts ...Option) (*Tracker, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	t := &Tracker{
		quests:     quests,
		storylines: storylines,
		flags:      store,
		logger:     logger,
		states:     make(map[string]State, len(quests)),
	}

	if err := t.validate(); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(t)
	}

	t.sub = storylines.OnChanged(t.handleStorylineChanged)

	if err := t.Refresh(); err != nil {
		storylines.Unsubscribe(t.sub)
		return nil, fmt.Errorf("initial quest evaluation: %w", err)
	}
	return t, nil
}

func (t *Tracker) validate() error {
	var errs []error
	seen := make(map[string]bool, len(t.quests))

	for _, q := range t.quests {
		if q.ID == "" {
			errs = append(errs, fmt.Errorf("%w: quest without id", ErrInvalidQuest))
			continue
		}
		if seen[q.ID] {
			errs = append(errs, fmt.Errorf("%w: %s declared more than once", ErrInvalidQuest, q.ID))
		}
		seen[q.ID] = true

		if !t.storylines.Defines(q.NPC) {
			errs = append(errs, fmt.Errorf("%w: %s is owned by unknown NPC %q", ErrInvalidQuest, q.ID, q.NPC))
		}
		if q.When.IsEmpty() {
			errs = append(errs, fmt.Errorf("%w: %s has an empty when condition", ErrInvalidQuest, q.ID))
		}

		for _, when := range []conditionals.ConditionalWhen{q.When, q.DoneWhen} {
			for _, part := range when.EmptyParts() {
				errs = append(errs, fmt.Errorf("%w: %s has an empty %s condition", ErrInvalidQuest, q.ID, part))
			}
			for _, name := range when.FlagNames() {
				if !t.flags.Has(name) {
					errs = append(errs, fmt.Errorf("%w: %s references undeclared flag %q", ErrInvalidQuest, q.ID, name))
				}
			}
			for _, npc := range when.NPCNames() {
				if !t.storylines.Defines(npc) {
					errs = append(errs, fmt.Errorf("%w: %s references unknown NPC %q", ErrInvalidQuest, q.ID, npc))
				}
			}
			for _, id := range when.Storylines() {
				if !t.storylines.Has(id) {
					errs = append(errs, fmt.Errorf("%w: %s references unknown storyline %q", ErrInvalidQuest, q.ID, id))
				}
			}
		}
	}

	return errors.Join(errs...)
}

func (t *Tracker) handleStorylineChanged() {
	if err := t.Refresh(); err != nil {
		t.logger.Error("Failed to refresh quests after storyline change", "error", err)
	}
}

// Refresh re-evaluates every quest. OnActive listeners run if any quest
// became active and OnDone listeners if an active quest was completed; both
// run after all states are updated.
func (t *Tracker) Refresh() error {
	if t.active.Emitting() || t.done.Emitting() {
		return fmt.Errorf("refresh quests: %w", notify.ErrReentrant)
	}

	activated, completed := false, false
	for _, q := range t.quests {
		prev := t.states[q.ID]
		next := t.evaluate(q, prev)
		if next == prev {
			continue
		}

		t.states[q.ID] = next
		t.logger.Debug("Quest state changed",
			"quest", q.ID,
			"npc", q.NPC,
			"from", prev.String(),
			"to", next.String())

		switch {
		case next == StateActive:
			activated = true
		case next == StateDone && prev == StateActive:
			completed = true
		}
	}

	var errs []error
	if activated {
		errs = append(errs, t.active.Emit())
	}
	if completed {
		errs = append(errs, t.done.Emit())
	}
	return errors.Join(errs...)
}

func (t *Tracker) evaluate(q scenario.Quest, prev State) State {
	if prev == StateDone {
		return StateDone
	}
	if !q.DoneWhen.IsEmpty() && conditionals.EvaluateWhen(q.DoneWhen, t) {
		return StateDone
	}
	if t.storylines.HasNPC(q.NPC) && conditionals.EvaluateWhen(q.When, t) {
		return StateActive
	}
	return StateInactive
}

// NpcsWithQuests maps every NPC advertising an active quest to the icon of
// its highest-priority active quest; ties go to the quest declared first.
func (t *Tracker) NpcsWithQuests() map[string]string {
	icons := make(map[string]string)
	best := make(map[string]int)

	for _, q := range t.quests {
		if t.states[q.ID] != StateActive {
			continue
		}
		if p, ok := best[q.NPC]; ok && q.Priority <= p {
			continue
		}
		best[q.NPC] = q.Priority
		icons[q.NPC] = q.Icon
	}
	return icons
}

// State returns the state of a quest and whether the quest is known.
func (t *Tracker) State(id string) (State, bool) {
	for _, q := range t.quests {
		if q.ID == id {
			return t.states[id], true
		}
	}
	return StateInactive, false
}

// Active returns the IDs of active quests in declaration order.
func (t *Tracker) Active() []string {
	return t.inState(StateActive)
}

// Done returns the IDs of completed quests in declaration order.
func (t *Tracker) Done() []string {
	return t.inState(StateDone)
}

func (t *Tracker) inState(s State) []string {
	var ids []string
	for _, q := range t.quests {
		if t.states[q.ID] == s {
			ids = append(ids, q.ID)
		}
	}
	return ids
}

func (t *Tracker) OnActive(fn func()) notify.Subscription {
	return t.active.Subscribe(fn)
}

func (t *Tracker) OnDone(fn func()) notify.Subscription {
	return t.done.Subscribe(fn)
}

func (t *Tracker) UnsubscribeActive(sub notify.Subscription) {
	t.active.Unsubscribe(sub)
}

func (t *Tracker) UnsubscribeDone(sub notify.Subscription) {
	t.done.Unsubscribe(sub)
}

// Close detaches the tracker from storyline changes.
func (t *Tracker) Close() {
	t.storylines.Unsubscribe(t.sub)
}

// conditionals.StateView

func (t *Tracker) GetFlag(name string) flags.Value { return t.flags.Get(name) }
func (t *Tracker) GetStoryline() string            { return t.storylines.Current() }
func (t *Tracker) HasNPC(id string) bool           { return t.storylines.HasNPC(id) }
