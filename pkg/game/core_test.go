package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/questmap/pkg/conditionals"
	"github.com/jwebster45206/questmap/pkg/dialogue"
	"github.com/jwebster45206/questmap/pkg/flags"
	"github.com/jwebster45206/questmap/pkg/notify"
	"github.com/jwebster45206/questmap/pkg/scenario"
	"github.com/jwebster45206/questmap/pkg/storyline"
)

func loadAltstadt(t *testing.T) *scenario.Scenario {
	t.Helper()
	s, err := scenario.Load("../../data/scenarios/altstadt.yaml")
	require.NoError(t, err)
	return s
}

func touristenScenario() *scenario.Scenario {
	return &scenario.Scenario{
		Name:             "touristen",
		OpeningStoryline: "touristen",
		Flags:            map[string]flags.Value{"met_guide": flags.Bool(false)},
		Storylines: map[string]scenario.Storyline{
			"touristen": {NPCs: map[string]scenario.NPC{"guide": {}}},
		},
		Quests: []scenario.Quest{
			{
				ID:   "q1",
				NPC:  "guide",
				Icon: "quest-q1",
				When: conditionals.ConditionalWhen{Flags: map[string]flags.Value{"met_guide": flags.Bool(true)}},
			},
		},
	}
}

func TestCore_TouristenScenario(t *testing.T) {
	core, err := New(touristenScenario(), nil)
	require.NoError(t, err)

	activeFired := 0
	core.OnQuestActive(func() { activeFired++ })

	assert.Equal(t, "touristen", core.Storyline())
	assert.Empty(t, core.NpcsWithQuests())

	require.NoError(t, core.SetFlag("met_guide", flags.Bool(true)))
	assert.Equal(t, map[string]string{"guide": "quest-q1"}, core.NpcsWithQuests())
	assert.Equal(t, 1, activeFired)
}

func TestCore_IdempotentStorylineSelection(t *testing.T) {
	core, err := New(loadAltstadt(t), nil)
	require.NoError(t, err)

	changed := 0
	core.OnStorylineChanged(func() { changed++ })

	require.NoError(t, core.SetStoryline("markt"))
	first := core.NPCs()
	require.NoError(t, core.SetStoryline("markt"))

	assert.Equal(t, 1, changed)
	assert.Equal(t, first, core.NPCs())
	assert.Len(t, first, 2)
}

func TestCore_OpeningQuestsNotifyListeners(t *testing.T) {
	activeFired, changed := 0, 0
	core, err := New(loadAltstadt(t), nil,
		WithQuestActiveListener(func() { activeFired++ }),
		WithStorylineListener(func() { changed++ }))
	require.NoError(t, err)

	assert.Equal(t, 1, activeFired, "bread_errand is active as soon as the opening storyline is selected")
	assert.Equal(t, 1, changed)
	assert.Equal(t, map[string]string{"baker": "quest-bread"}, core.NpcsWithQuests())
}

func TestCore_StorylineListenersSeeFreshQuests(t *testing.T) {
	var seen map[string]string
	var core *Core
	core, err := New(loadAltstadt(t), nil, WithStorylineListener(func() {
		if core != nil {
			seen = core.NpcsWithQuests()
		}
	}))
	require.NoError(t, err)

	require.NoError(t, core.SetStoryline("markt"))
	assert.Equal(t, map[string]string{"baker": "quest-market"}, seen)
}

func TestCore_GuideDialogue(t *testing.T) {
	core, err := New(loadAltstadt(t), nil)
	require.NoError(t, err)

	doneFired := 0
	core.OnQuestDone(func() { doneFired++ })

	player, err := core.Talk("guide")
	require.NoError(t, err)

	assert.True(t, core.Flag("met_guide").Truthy())
	assert.Equal(t, map[string]string{"guide": "quest-q1", "baker": "quest-bread"}, core.NpcsWithQuests())

	player.Action() // offer
	node, ok := player.Current()
	require.True(t, ok)
	require.Len(t, node.Responses, 2)

	player.Action() // "Let's go."
	require.NoError(t, player.Err())

	assert.Equal(t, 1, doneFired)
	assert.Equal(t, map[string]string{"baker": "quest-bread", "fisher": "quest-fish"}, core.NpcsWithQuests())

	player.Action()
	assert.True(t, player.Ended())
}

func TestCore_Talk_Errors(t *testing.T) {
	core, err := New(loadAltstadt(t), nil)
	require.NoError(t, err)

	_, err = core.Talk("merchant")
	assert.True(t, errors.Is(err, storyline.ErrUnknownNPC))

	_, err = core.Talk("fisher")
	assert.True(t, errors.Is(err, ErrNoDialogue))
}

func TestCore_SetFlag_Unknown(t *testing.T) {
	core, err := New(loadAltstadt(t), nil)
	require.NoError(t, err)

	err = core.SetFlag("met_mayor", flags.Bool(true))
	assert.True(t, errors.Is(err, ErrUnknownFlag))
}

func TestCore_SetFlag_KindMismatch(t *testing.T) {
	core, err := New(loadAltstadt(t), nil)
	require.NoError(t, err)
	markers := core.NpcsWithQuests()

	tests := []struct {
		name  string
		flag  string
		value flags.Value
	}{
		{"enum on bool", "met_guide", flags.Enum("true")},
		{"number on bool", "met_guide", flags.Number(1)},
		{"bool on number", "fish_count", flags.Bool(true)},
		{"number on enum", "weather", flags.Number(3)},
		{"unset on bool", "met_guide", flags.Value{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.SetFlag(tt.flag, tt.value)
			assert.True(t, errors.Is(err, ErrFlagKind), "got %v", err)
		})
	}

	assert.True(t, core.Flag("met_guide").Equal(flags.Bool(false)))
	assert.True(t, core.Flag("fish_count").Equal(flags.Number(0)))
	assert.Equal(t, "sunny", core.Flag("weather").String())
	assert.Equal(t, markers, core.NpcsWithQuests(), "rejected values never reach the quest tracker")

	require.NoError(t, core.SetFlag("fish_count", flags.Number(2)))
	require.NoError(t, core.SetFlag("weather", flags.Enum("storm")))
}

func TestCore_TalkRejectsWholeFlagSet(t *testing.T) {
	s := touristenScenario()
	s.Flags["visits"] = flags.Number(0)
	s.Storylines["touristen"] = scenario.Storyline{NPCs: map[string]scenario.NPC{"guide": {Dialogue: "greet"}}}
	s.Dialogues = map[string]dialogue.Dialogue{
		"greet": {Start: "hello", Nodes: map[string]dialogue.Node{
			"hello": {Text: "Hello!", SetFlags: map[string]flags.Value{
				"met_guide": flags.Bool(true),
				"visits":    flags.Enum("many"),
			}},
		}},
	}
	core, err := New(s, nil)
	require.NoError(t, err)

	_, err = core.Talk("guide")
	assert.True(t, errors.Is(err, ErrFlagKind), "got %v", err)
	assert.True(t, core.Flag("met_guide").Equal(flags.Bool(false)))
	assert.Empty(t, core.NpcsWithQuests())
}

func TestCore_SetStoryline_Unknown(t *testing.T) {
	core, err := New(loadAltstadt(t), nil)
	require.NoError(t, err)

	err = core.SetStoryline("atlantis")
	assert.True(t, errors.Is(err, storyline.ErrUnknownStoryline))
	assert.Equal(t, "touristen", core.Storyline())
}

func TestCore_ReentrantMutationRejected(t *testing.T) {
	core, err := New(loadAltstadt(t), nil)
	require.NoError(t, err)

	var inner error
	core.OnStorylineChanged(func() {
		inner = core.SetFlag("weather", flags.Enum("storm"))
	})

	require.NoError(t, core.SetStoryline("markt"))
	assert.True(t, errors.Is(inner, notify.ErrReentrant))
	assert.Equal(t, "sunny", core.Flag("weather").String())
}

func TestNew_InvalidScenario(t *testing.T) {
	s := touristenScenario()
	s.Quests[0].NPC = "ghost"

	_, err := New(s, nil)
	require.Error(t, err)

	var verr *scenario.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestCore_Quests(t *testing.T) {
	core, err := New(loadAltstadt(t), nil)
	require.NoError(t, err)

	quests := core.Quests()
	require.Len(t, quests, 4)
	assert.Equal(t, QuestStatus{ID: "bread_errand", NPC: "baker", Icon: "quest-bread", State: "active"}, quests[1])
	assert.Equal(t, "inactive", quests[0].State)
	assert.Equal(t, []string{"markt", "touristen"}, core.Storylines())
}
