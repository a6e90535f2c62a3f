package game

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/jwebster45206/questmap/pkg/dialogue"
	"github.com/jwebster45206/questmap/pkg/flags"
	"github.com/jwebster45206/questmap/pkg/notify"
	"github.com/jwebster45206/questmap/pkg/quest"
	"github.com/jwebster45206/questmap/pkg/scenario"
	"github.com/jwebster45206/questmap/pkg/storyline"
)

var (
	// ErrUnknownFlag is returned when setting a flag the scenario does not declare.
	ErrUnknownFlag = errors.New("unknown flag")
	// ErrFlagKind is returned when a value's kind differs from the flag's declared default.
	ErrFlagKind = errors.New("flag kind mismatch")
	// ErrNoDialogue is returned when an NPC has nothing to say.
	ErrNoDialogue = errors.New("no dialogue")
)

var _ dialogue.FlagChecker = (*Core)(nil)

// Core assembles the flag store, storyline manager and quest tracker for
// one scenario and exposes the only entry points that mutate them.
//
// Core is single-threaded. Callers on several goroutines must serialize
// every call, for example through a dispatch queue.
type Core struct {
	scenario   *scenario.Scenario
	flags      *flags.Store
	storylines *storyline.Manager
	quests     *quest.Tracker
	logger     *slog.Logger

	mutating bool
}

type options struct {
	questOpts []quest.Option
	onChanged []func()
}

// Option registers listeners before the opening storyline is selected.
type Option func(*options)

func WithStorylineListener(fn func()) Option {
	return func(o *options) { o.onChanged = append(o.onChanged, fn) }
}

func WithQuestActiveListener(fn func()) Option {
	return func(o *options) { o.questOpts = append(o.questOpts, quest.WithActiveListener(fn)) }
}

func WithQuestDoneListener(fn func()) Option {
	return func(o *options) { o.questOpts = append(o.questOpts, quest.WithDoneListener(fn)) }
}

// New validates the scenario, wires its components and selects the opening
// storyline. Configuration errors are returned, never defaulted.
func New(s *scenario.Scenario, logger *slog.Logger, opts ...Option) (*Core, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", s.Name, err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store := flags.NewStore(s.Flags)
	manager := storyline.NewManager(s.Storylines, logger)

	// The tracker subscribes first so storyline listeners see fresh quest state.
	tracker, err := quest.NewTracker(s.Quests, manager, store, logger, o.questOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create quest tracker: %w", err)
	}
	for _, fn := range o.onChanged {
		manager.OnChanged(fn)
	}

	c := &Core{
		scenario:   s,
		flags:      store,
		storylines: manager,
		quests:     tracker,
		logger:     logger,
	}

	if err := c.SetStoryline(s.OpeningStoryline); err != nil {
		tracker.Close()
		return nil, fmt.Errorf("failed to select opening storyline: %w", err)
	}

	logger.Info("Game core ready",
		"scenario", s.Name,
		"storyline", manager.Current(),
		"quests", len(s.Quests))
	return c, nil
}

// SetFlag stores a flag value and re-evaluates quests. Listeners have run
// by the time it returns.
func (c *Core) SetFlag(name string, v flags.Value) error {
	if err := c.CheckFlag(name, v); err != nil {
		return err
	}
	return c.mutate("set flag "+name, func() error {
		c.flags.Set(name, v)
		c.logger.Debug("Flag set", "flag", name, "value", v.String())
		return c.quests.Refresh()
	})
}

// CheckFlag reports whether SetFlag would accept the value. A flag declared
// with a null default accepts any kind.
func (c *Core) CheckFlag(name string, v flags.Value) error {
	if !c.flags.Has(name) {
		return fmt.Errorf("%w: %q", ErrUnknownFlag, name)
	}
	declared := c.scenario.Flags[name]
	if !declared.IsUnset() && v.Kind() != declared.Kind() {
		return fmt.Errorf("%w: %q is %s, got %s", ErrFlagKind, name, declared.Kind(), v.Kind())
	}
	return nil
}

// SetStoryline selects a storyline. It is the administrative entry point
// for forcing a storyline from tooling.
func (c *Core) SetStoryline(id string) error {
	return c.mutate("set storyline "+id, func() error {
		return c.storylines.SetCurrent(id)
	})
}

// mutate rejects calls made from inside a listener of another mutation.
func (c *Core) mutate(op string, fn func() error) error {
	if c.mutating {
		return fmt.Errorf("%s: %w", op, notify.ErrReentrant)
	}
	c.mutating = true
	defer func() { c.mutating = false }()
	return fn()
}

// Scenario returns the loaded scenario. Callers must not modify it.
func (c *Core) Scenario() *scenario.Scenario { return c.scenario }

func (c *Core) Flag(name string) flags.Value { return c.flags.Get(name) }

// Flags returns a copy of every flag value.
func (c *Core) Flags() map[string]flags.Value { return c.flags.Snapshot() }

func (c *Core) Storyline() string { return c.storylines.Current() }

// Storylines returns the IDs of every defined storyline, sorted.
func (c *Core) Storylines() []string {
	return slices.Sorted(maps.Keys(c.scenario.Storylines))
}

func (c *Core) NPCs() map[string]storyline.NPC { return c.storylines.NPCs() }

func (c *Core) NpcsWithQuests() map[string]string { return c.quests.NpcsWithQuests() }

// QuestStatus is a quest with its current state.
type QuestStatus struct {
	ID    string `json:"id"`
	NPC   string `json:"npc"`
	Icon  string `json:"icon"`
	State string `json:"state"`
}

// Quests lists every quest in declaration order.
func (c *Core) Quests() []QuestStatus {
	out := make([]QuestStatus, 0, len(c.scenario.Quests))
	for _, q := range c.scenario.Quests {
		state, _ := c.quests.State(q.ID)
		out = append(out, QuestStatus{ID: q.ID, NPC: q.NPC, Icon: q.Icon, State: state.String()})
	}
	return out
}

func (c *Core) OnStorylineChanged(fn func()) notify.Subscription { return c.storylines.OnChanged(fn) }
func (c *Core) OnQuestActive(fn func()) notify.Subscription      { return c.quests.OnActive(fn) }
func (c *Core) OnQuestDone(fn func()) notify.Subscription        { return c.quests.OnDone(fn) }

func (c *Core) UnsubscribeStoryline(sub notify.Subscription)   { c.storylines.Unsubscribe(sub) }
func (c *Core) UnsubscribeQuestActive(sub notify.Subscription) { c.quests.UnsubscribeActive(sub) }
func (c *Core) UnsubscribeQuestDone(sub notify.Subscription)   { c.quests.UnsubscribeDone(sub) }

// Talk starts the dialogue of an NPC in the current storyline. Flags set
// by the dialogue go through SetFlag.
func (c *Core) Talk(npcID string) (*dialogue.Player, error) {
	npc, ok := c.storylines.NPCs()[npcID]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not in storyline %s", storyline.ErrUnknownNPC, npcID, c.Storyline())
	}
	if npc.Dialogue == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoDialogue, npcID)
	}
	d, ok := c.scenario.Dialogues[npc.Dialogue]
	if !ok {
		return nil, fmt.Errorf("%w: %s references missing dialogue %s", ErrNoDialogue, npcID, npc.Dialogue)
	}

	p := dialogue.NewPlayer(npc.Dialogue, d, c, c.logger)
	if err := p.Start(); err != nil {
		return nil, fmt.Errorf("failed to start dialogue %s: %w", npc.Dialogue, err)
	}
	return p, nil
}
