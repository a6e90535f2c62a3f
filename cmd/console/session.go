package main

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/jwebster45206/questmap/pkg/dialogue"
	"github.com/jwebster45206/questmap/pkg/game"
	"github.com/jwebster45206/questmap/pkg/input"
	"github.com/jwebster45206/questmap/pkg/markers"
)

const maxLogLines = 200

// session is the state shared by every copy of the bubbletea model. Input
// handlers and core listeners write to it; the UI only reads.
type session struct {
	core   *game.Core
	logger *slog.Logger

	source   *input.Source
	router   *input.Router
	keymap   input.Keymap
	movement *input.MovementConnection
	menu     *input.MenuConnection

	board     *markers.Board
	player    *dialogue.Player
	speaking  string
	cursor    int
	pcEnabled bool
	showStats bool
	quit      bool
	resume    input.Connection

	log []string
}

func newSession(core *game.Core, logger *slog.Logger) *session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &session{
		core:   core,
		logger: logger,
		source: input.NewSource(logger),
		router: input.NewRouter(logger),
		keymap: input.DefaultKeymap(),
		board:  markers.NewBoard(),
	}
	s.movement = input.NewMovementConnection(s.source, s)
	s.menu = input.NewMenuConnection(s.source, s)
	s.source.AddToggle(input.ToggleStats, func() { s.showStats = !s.showStats })

	core.OnStorylineChanged(s.storylineChanged)
	core.OnQuestActive(func() { s.questsChanged("Quest available") })
	core.OnQuestDone(func() { s.questsChanged("Quest completed") })

	// The opening notifications fired before we subscribed; catch up.
	s.addLog(fmt.Sprintf("Storyline: %s", core.Storyline()))
	s.syncMarkers()

	s.router.SwitchTo(s.movement)
	return s
}

// npcIDs lists the NPCs of the current storyline in display order.
func (s *session) npcIDs() []string {
	return slices.Sorted(maps.Keys(s.core.NPCs()))
}

func (s *session) selectedNPC() (string, bool) {
	ids := s.npcIDs()
	if len(ids) == 0 {
		return "", false
	}
	return ids[min(s.cursor, len(ids)-1)], true
}

// moveCursor walks the player between NPCs while movement has control.
func (s *session) moveCursor(delta int) {
	if !s.pcEnabled {
		return
	}
	n := len(s.npcIDs())
	if n == 0 {
		return
	}
	s.cursor = (s.cursor + delta + n) % n
}

// input.PlayerController

func (s *session) EnablePCControl()  { s.pcEnabled = true }
func (s *session) DisablePCControl() { s.pcEnabled = false }

// PCAction talks to the NPC the player stands next to.
func (s *session) PCAction() {
	npcID, ok := s.selectedNPC()
	if !ok {
		return
	}

	player, err := s.core.Talk(npcID)
	if err != nil {
		if errors.Is(err, game.ErrNoDialogue) {
			s.addLog(fmt.Sprintf("%s has nothing to say.", s.core.NPCs()[npcID].Name))
			return
		}
		s.logger.Error("Failed to start dialogue", "npc", npcID, "error", err)
		s.addLog("Error: " + err.Error())
		return
	}

	s.player = player
	s.speaking = npcID
	player.OnEnd(s.endDialogue)
	s.router.SwitchTo(input.NewDialogueConnection(s.source, player, player))
}

func (s *session) endDialogue() {
	if err := s.player.Err(); err != nil {
		s.addLog("Error: " + err.Error())
	}
	s.player = nil
	s.speaking = ""
	s.router.SwitchTo(s.movement)
}

// openMenu hands input to the quit menu, remembering what to return to.
func (s *session) openMenu() {
	if s.router.Active() == s.menu {
		return
	}
	s.resume = s.router.Active()
	s.router.SwitchTo(s.menu)
}

func (s *session) closeMenu() {
	s.router.SwitchTo(s.resume)
	s.resume = nil
}

func (s *session) menuOpen() bool {
	return s.router.Active() == s.menu
}

// input.Menu

func (s *session) MenuAction() { s.quit = true }

// setStoryline is the console's debug entry point for forcing a storyline.
func (s *session) setStoryline(n int) {
	ids := s.core.Storylines()
	if n < 0 || n >= len(ids) || s.player != nil {
		return
	}
	if err := s.core.SetStoryline(ids[n]); err != nil {
		s.addLog("Error: " + err.Error())
	}
}

// storylineChanged runs after the quest listeners, which may already have
// synced the board, so only net marker changes are logged.
func (s *session) storylineChanged() {
	s.cursor = 0
	s.addLog(fmt.Sprintf("Storyline: %s", s.core.Storyline()))
	s.syncMarkers()
}

func (s *session) questsChanged(what string) {
	s.addLog(what)
	s.syncMarkers()
}

func (s *session) syncMarkers() {
	npcs := s.core.NPCs()
	present := func(id string) bool {
		_, ok := npcs[id]
		return ok
	}
	for _, c := range s.board.Apply(present, s.core.NpcsWithQuests()) {
		s.addLog(describeChange(c))
	}
}

func describeChange(c markers.Change) string {
	switch c.Kind {
	case markers.Added:
		return fmt.Sprintf("  + %s [%s]", c.NPC, c.Icon)
	case markers.Swapped:
		return fmt.Sprintf("  ~ %s [%s -> %s]", c.NPC, c.Previous, c.Icon)
	default:
		return fmt.Sprintf("  - %s [%s]", c.NPC, c.Previous)
	}
}

func (s *session) addLog(line string) {
	s.log = append(s.log, line)
	if len(s.log) > maxLogLines {
		s.log = s.log[len(s.log)-maxLogLines:]
	}
}

// copyLog puts the event log on the system clipboard.
func (s *session) copyLog() {
	if err := clipboard.WriteAll(strings.Join(s.log, "\n")); err != nil {
		s.logger.Warn("Failed to copy log", "error", err)
		s.addLog("Clipboard unavailable")
		return
	}
	s.addLog("Log copied to clipboard")
}
