package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/questmap/pkg/game"
	"github.com/jwebster45206/questmap/pkg/input"
	"github.com/jwebster45206/questmap/pkg/scenario"
)

func newTestSession(t *testing.T) *session {
	t.Helper()
	sc, err := scenario.Load("../../data/scenarios/altstadt.yaml")
	require.NoError(t, err)
	core, err := game.New(sc, nil)
	require.NoError(t, err)
	return newSession(core, nil)
}

func TestSession_Opening(t *testing.T) {
	s := newTestSession(t)

	assert.Equal(t, map[string]string{"baker": "quest-bread"}, s.board.Icons())
	assert.Equal(t, []string{"baker", "fisher", "guide"}, s.npcIDs())
	assert.Same(t, s.movement, s.router.Active())
	assert.True(t, s.pcEnabled)
	assert.Contains(t, s.log, "Storyline: touristen")
}

func TestSession_GuideDialogue(t *testing.T) {
	s := newTestSession(t)

	s.moveCursor(-1) // wraps to the guide
	npc, ok := s.selectedNPC()
	require.True(t, ok)
	require.Equal(t, "guide", npc)

	s.source.Dispatch(input.SignalAction)
	require.NotNil(t, s.player)
	assert.False(t, s.pcEnabled, "dialogue takes control from the player")
	assert.Equal(t, "quest-q1", s.board.Icons()["guide"])

	s.source.Dispatch(input.SignalAction) // hello -> offer
	s.source.Dispatch(input.SignalAction) // "Let's go." -> tour
	s.source.Dispatch(input.SignalAction) // end

	assert.Nil(t, s.player)
	assert.True(t, s.pcEnabled)
	assert.Same(t, s.movement, s.router.Active())
	assert.Equal(t, map[string]string{"baker": "quest-bread", "fisher": "quest-fish"}, s.board.Icons())
	assert.Contains(t, s.log, "Quest completed")
}

func TestSession_CursorIgnoredDuringDialogue(t *testing.T) {
	s := newTestSession(t)

	s.source.Dispatch(input.SignalAction) // talk to the baker
	require.NotNil(t, s.player)

	s.moveCursor(1)
	assert.Equal(t, 0, s.cursor)

	s.source.Dispatch(input.SignalDown)
	assert.Equal(t, 1, s.player.Selected())
}

func TestSession_NPCWithoutDialogue(t *testing.T) {
	s := newTestSession(t)

	s.moveCursor(1)
	s.source.Dispatch(input.SignalAction)

	assert.Nil(t, s.player)
	assert.Same(t, s.movement, s.router.Active())
	assert.Contains(t, s.log, "Old Jonas has nothing to say.")
}

func TestSession_Menu(t *testing.T) {
	s := newTestSession(t)

	s.openMenu()
	assert.True(t, s.menuOpen())
	assert.False(t, s.pcEnabled)

	s.closeMenu()
	assert.Same(t, s.movement, s.router.Active())
	assert.True(t, s.pcEnabled)
	assert.False(t, s.quit)

	s.openMenu()
	s.source.Dispatch(input.SignalAction)
	assert.True(t, s.quit)
}

func TestSession_SetStoryline(t *testing.T) {
	s := newTestSession(t)

	s.moveCursor(2)
	before := len(s.log)
	s.setStoryline(0) // markt

	assert.Equal(t, "markt", s.core.Storyline())
	assert.Equal(t, 0, s.cursor)
	assert.Equal(t, map[string]string{"baker": "quest-market"}, s.board.Icons())
	assert.Contains(t, s.log, "Storyline: markt")

	var baker []string
	for _, line := range s.log[before:] {
		if strings.Contains(line, " baker [") {
			baker = append(baker, line)
		}
	}
	assert.Equal(t, []string{"  ~ baker [quest-bread -> quest-market]"}, baker)

	s.setStoryline(8)
	assert.Equal(t, "markt", s.core.Storyline())
}

func TestSession_StatsToggle(t *testing.T) {
	s := newTestSession(t)

	require.True(t, s.source.Toggle(input.ToggleStats))
	assert.True(t, s.showStats)
	require.True(t, s.source.Toggle(input.ToggleStats))
	assert.False(t, s.showStats)
}

func TestConsoleUI_Keys(t *testing.T) {
	s := newTestSession(t)
	var m tea.Model = ConsoleUI{session: s, width: 100, height: 40}

	press := func(msg tea.KeyMsg) {
		t.Helper()
		m, _ = m.Update(msg)
	}

	press(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, s.cursor)
	press(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, s.cursor)

	press(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, s.player)
	press(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, s.player.Selected())
	assert.Contains(t, m.View(), "Sorry, I'm busy.")

	press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	assert.True(t, s.showStats)
	assert.Contains(t, m.View(), "STATS")

	press(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, s.menuOpen())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, s.quit)
}
