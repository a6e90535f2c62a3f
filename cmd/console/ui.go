package main

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/questmap/internal/config"
	"github.com/jwebster45206/questmap/internal/storage"
	"github.com/jwebster45206/questmap/pkg/game"
	"github.com/jwebster45206/questmap/pkg/input"
)

const loadTimeout = 10 * time.Second

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config  *config.Config
	content storage.Content
	logger  *slog.Logger
	session *session

	width  int
	height int
	err    error

	// Scenario selection state
	showScenarioModal bool
	scenarios         []string
	scenarioMap       map[string]string
	selectedScenario  int
	loadingScenarios  bool
	loading           bool
}

type scenariosLoadedMsg struct {
	scenarios   []string
	scenarioMap map[string]string
	err         error
}

type gameCreatedMsg struct {
	core *game.Core
	err  error
}

var (
	mapPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(3).
			PaddingRight(1)

	logPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	markerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // yellow
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	dialogueStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

var (
	quitKey      = key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "force quit"))
	menuKey      = key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc", "menu"))
	copyKey      = key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy log"))
	storylineKey = key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "storyline"))
)

func NewConsoleUI(cfg *config.Config, content storage.Content, logger *slog.Logger) ConsoleUI {
	return ConsoleUI{
		config:            cfg,
		content:           content,
		logger:            logger,
		showScenarioModal: true,
		loadingScenarios:  true,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.loadScenarios()
}

func (m ConsoleUI) loadScenarios() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		scenarioMap, err := m.content.ListScenarios(ctx)
		if err != nil {
			return scenariosLoadedMsg{err: err}
		}
		if len(scenarioMap) == 0 {
			return scenariosLoadedMsg{err: fmt.Errorf("no scenarios found in %s", m.config.ContentPath)}
		}
		return scenariosLoadedMsg{
			scenarios:   slices.Sorted(maps.Keys(scenarioMap)),
			scenarioMap: scenarioMap,
		}
	}
}

// createGame loads the scenario and builds the core. The core is handed to
// the model through the message and used only from Update afterwards.
func (m ConsoleUI) createGame(filename string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		sc, err := m.content.GetScenario(ctx, filename)
		if err != nil {
			return gameCreatedMsg{err: err}
		}
		core, err := game.New(sc, m.logger)
		if err != nil {
			return gameCreatedMsg{err: err}
		}
		return gameCreatedMsg{core: core}
	}
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showScenarioModal {
		return m.updateScenarioModal(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m ConsoleUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.session

	if key.Matches(msg, quitKey) {
		return m, tea.Quit
	}

	if s.menuOpen() {
		switch {
		case key.Matches(msg, menuKey), msg.String() == "n", msg.String() == "N":
			s.closeMenu()
		case msg.String() == "y", msg.String() == "Y":
			s.MenuAction()
		default:
			m.keymap().Feed(s.source, msg)
		}
		if s.quit {
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, menuKey):
		s.openMenu()
		return m, nil
	case key.Matches(msg, copyKey):
		s.copyLog()
		return m, nil
	case key.Matches(msg, storylineKey):
		s.setStoryline(int(msg.Runes[0] - '1'))
		return m, nil
	}

	// With PC control the player walks between NPCs; otherwise up and down
	// belong to whatever connection is routed.
	if sig, _, ok := m.keymap().Resolve(msg); ok && s.pcEnabled {
		switch sig {
		case input.SignalUp:
			s.moveCursor(-1)
			return m, nil
		case input.SignalDown:
			s.moveCursor(1)
			return m, nil
		}
	}

	m.keymap().Feed(s.source, msg)
	return m, nil
}

func (m ConsoleUI) keymap() input.Keymap {
	return m.session.keymap
}

func (m ConsoleUI) updateScenarioModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case scenariosLoadedMsg:
		m.loadingScenarios = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.scenarios = msg.scenarios
			m.scenarioMap = msg.scenarioMap
		}

	case gameCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.logger.Error("Failed to create game", "error", msg.err)
			m.err = msg.err
			return m, nil
		}
		m.session = newSession(msg.core, m.logger)
		m.showScenarioModal = false

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if m.loadingScenarios || m.loading || m.err != nil {
			return m, nil
		}

		switch msg.Type {
		case tea.KeyUp:
			if m.selectedScenario > 0 {
				m.selectedScenario--
			}
		case tea.KeyDown:
			if m.selectedScenario < len(m.scenarios)-1 {
				m.selectedScenario++
			}
		case tea.KeyEnter:
			if len(m.scenarios) > 0 {
				name := m.scenarios[m.selectedScenario]
				m.loading = true
				return m, m.createGame(m.scenarioMap[name])
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderScenarioModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	switch {
	case m.loadingScenarios:
		content.WriteString(modalTitleStyle.Render("Loading Scenarios..."))
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(wordwrap.String(m.err.Error(), 52)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Loading Map..."))
	default:
		content.WriteString(modalTitleStyle.Render("Select a Scenario"))
		content.WriteString("\n\n")

		for i, name := range m.scenarios {
			if i == m.selectedScenario {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", name)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", name)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave the Map?"))
	content.WriteString("\n\n")
	content.WriteString("Progress is not saved.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Enter or Y to quit, Esc or N to go back"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showScenarioModal {
		return m.renderScenarioModal()
	}
	if m.width == 0 || m.height == 0 {
		return "\n  Initializing..."
	}
	if m.session.menuOpen() {
		return m.renderQuitModal()
	}

	mapWidth := int(float64(m.width)*0.6) - 4
	logWidth := m.width - mapWidth - 6

	mapPanel := mapPanelStyle.Width(mapWidth).Height(m.height - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.renderMap(mapWidth-4),
			m.renderDialogue(mapWidth-4),
			"",
			promptStyle.Render(m.helpLine()),
		),
	)

	logPanel := logPanelStyle.Width(logWidth).Height(m.height - 2).Render(
		m.renderSide(logWidth, m.height-4),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, mapPanel, logPanel)
}

func (m ConsoleUI) renderMap(width int) string {
	s := m.session
	core := s.core

	var b strings.Builder
	b.WriteString(titleStyle.Render(strings.ToUpper(core.Scenario().Name)) + "\n")
	storyline := core.Scenario().Storylines[core.Storyline()]
	b.WriteString(promptStyle.Render(storyline.Name) + "\n")
	b.WriteString(separatorStyle.Render(strings.Repeat("─", max(width, 1))) + "\n\n")

	npcs := core.NPCs()
	icons := s.board.Icons()
	selected, _ := s.selectedNPC()

	for _, id := range s.npcIDs() {
		npc := npcs[id]
		prefix := "  "
		if s.pcEnabled && id == selected {
			prefix = cursorStyle.Render("▶ ")
		}
		line := prefix + npc.Name
		if npc.Location != "" {
			line += promptStyle.Render("  " + npc.Location)
		}
		if icon, ok := icons[id]; ok {
			line += "  " + markerStyle.Render("["+icon+"]")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m ConsoleUI) renderDialogue(width int) string {
	s := m.session
	if s.player == nil {
		return ""
	}
	node, ok := s.player.Current()
	if !ok {
		return ""
	}

	speaker := node.Speaker
	if speaker == "" {
		speaker = s.core.NPCs()[s.speaking].Name
	}

	var b strings.Builder
	b.WriteString(speakerStyle.Render(speaker) + "\n")
	b.WriteString(wordwrap.String(node.Text, max(width-4, 10)))
	for i, r := range node.Responses {
		b.WriteString("\n")
		if i == s.player.Selected() {
			b.WriteString(cursorStyle.Render("▶ " + r.Text))
		} else {
			b.WriteString("  " + r.Text)
		}
	}
	return "\n" + dialogueStyle.Width(width).Render(b.String())
}

// renderSide shows the stats overlay when toggled, otherwise the event log.
func (m ConsoleUI) renderSide(width, height int) string {
	s := m.session
	var b strings.Builder

	if s.showStats {
		b.WriteString(titleStyle.Render("STATS") + "\n\n")
		b.WriteString("Flags:\n")
		flagValues := s.core.Flags()
		for _, name := range slices.Sorted(maps.Keys(flagValues)) {
			b.WriteString(fmt.Sprintf("• %s: %s\n", name, flagValues[name]))
		}
		b.WriteString("\nQuests:\n")
		for _, q := range s.core.Quests() {
			b.WriteString(fmt.Sprintf("• %s (%s): %s\n", q.ID, q.NPC, q.State))
		}
		return b.String()
	}

	b.WriteString(titleStyle.Render("EVENTS") + "\n\n")
	var lines []string
	for _, entry := range s.log {
		lines = append(lines, strings.Split(wordwrap.String(entry, max(width, 10)), "\n")...)
	}
	if visible := height - 2; visible > 0 && len(lines) > visible {
		lines = lines[len(lines)-visible:]
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

func (m ConsoleUI) helpLine() string {
	bindings := append(m.keymap().ShortHelp(), storylineKey, copyKey, menuKey)
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
