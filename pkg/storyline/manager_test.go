package storyline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/questmap/pkg/notify"
	"github.com/jwebster45206/questmap/pkg/scenario"
)

func testStorylines() map[string]scenario.Storyline {
	return map[string]scenario.Storyline{
		"touristen": {
			Name: "Tourists",
			NPCs: map[string]scenario.NPC{
				"guide":     {Name: "Greta", Sprite: "guide-red"},
				"old_jonas": {Props: map[string]string{"mood": "grumpy"}},
			},
		},
		"markt": {
			Name: "Market day",
			NPCs: map[string]scenario.NPC{
				"merchant": {Name: "Ilse"},
			},
		},
	}
}

func TestManager_SetCurrentIsIdempotent(t *testing.T) {
	m := NewManager(testStorylines(), nil)
	fired := 0
	m.OnChanged(func() { fired++ })

	require.NoError(t, m.SetCurrent("touristen"))
	first := m.NPCs()

	require.NoError(t, m.SetCurrent("touristen"))
	assert.Equal(t, 1, fired, "reselecting the same storyline must not notify")
	assert.Equal(t, first, m.NPCs())
	assert.Len(t, m.NPCs(), 2)
}

func TestManager_SetCurrentUnknown(t *testing.T) {
	m := NewManager(testStorylines(), nil)
	fired := 0
	m.OnChanged(func() { fired++ })

	err := m.SetCurrent("nowhere")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownStoryline))
	assert.Contains(t, err.Error(), "nowhere")
	assert.Equal(t, "", m.Current())
	assert.Equal(t, 0, fired)
}

func TestManager_SetCurrentEmptyID(t *testing.T) {
	m := NewManager(testStorylines(), nil)
	fired := 0
	m.OnChanged(func() { fired++ })

	err := m.SetCurrent("")
	assert.True(t, errors.Is(err, ErrUnknownStoryline), "a fresh manager must not accept the empty id")
	assert.Equal(t, "", m.Current())
	assert.Equal(t, 0, fired)

	require.NoError(t, m.SetCurrent("markt"))
	assert.True(t, errors.Is(m.SetCurrent(""), ErrUnknownStoryline))
	assert.Equal(t, "markt", m.Current())
}

func TestManager_ListenersSeeNewState(t *testing.T) {
	m := NewManager(testStorylines(), nil)
	require.NoError(t, m.SetCurrent("touristen"))

	var seen map[string]NPC
	var current string
	m.OnChanged(func() {
		seen = m.NPCs()
		current = m.Current()
	})

	require.NoError(t, m.SetCurrent("markt"))
	assert.Equal(t, "markt", current)
	assert.Contains(t, seen, "merchant")
	assert.NotContains(t, seen, "guide", "NPCs of the previous storyline are gone")
	assert.False(t, m.HasNPC("guide"))
}

func TestManager_NPCDescriptors(t *testing.T) {
	m := NewManager(testStorylines(), nil)
	require.NoError(t, m.SetCurrent("touristen"))

	npcs := m.NPCs()
	assert.Equal(t, "guide", npcs["guide"].ID)
	assert.Equal(t, "Greta", npcs["guide"].Name)
	assert.Equal(t, "guide-red", npcs["guide"].Sprite)
	assert.Equal(t, "Old Jonas", npcs["old_jonas"].Name, "name defaults to the title-cased id")

	// snapshots are not live views
	npcs["old_jonas"].Props["mood"] = "cheerful"
	delete(npcs, "guide")
	assert.Equal(t, "grumpy", m.NPCs()["old_jonas"].Props["mood"])
	assert.True(t, m.HasNPC("guide"))
}

func TestManager_ReentrantChangeIsRejected(t *testing.T) {
	m := NewManager(testStorylines(), nil)

	var inner error
	m.OnChanged(func() {
		if m.Current() == "touristen" {
			inner = m.SetCurrent("markt")
		}
	})

	require.NoError(t, m.SetCurrent("touristen"))
	assert.True(t, errors.Is(inner, notify.ErrReentrant))
	assert.Equal(t, "touristen", m.Current(), "rejected change leaves state untouched")
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager(testStorylines(), nil)
	fired := 0
	sub := m.OnChanged(func() { fired++ })
	m.Unsubscribe(sub)

	require.NoError(t, m.SetCurrent("markt"))
	assert.Equal(t, 0, fired)
	assert.True(t, m.Has("touristen"))
	assert.False(t, m.Has("nowhere"))
}
