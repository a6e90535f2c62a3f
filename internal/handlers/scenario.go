package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/jwebster45206/questmap/internal/storage"
	"github.com/jwebster45206/questmap/pkg/game"
)

// unsafeHrefRe matches href/src attributes with dangerous URL schemes in goldmark output.
var unsafeHrefRe = regexp.MustCompile(`(?i)(href|src)="(?:javascript|vbscript|data):[^"]*"`)

type StorylineSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	HTML        string `json:"description_html,omitempty"`
}

type ScenarioResponse struct {
	Name       string             `json:"name"`
	FileName   string             `json:"file_name"`
	Story      string             `json:"story,omitempty"`
	StoryHTML  string             `json:"story_html,omitempty"`
	Storylines []StorylineSummary `json:"storylines"`
}

// ScenarioHandler describes scenario content.
// Routes:
// GET /v1/scenario             - the running scenario, with story text rendered to HTML
// GET /v1/scenarios            - available scenario files, name to file name
// GET /v1/scenarios/{filename} - a scenario file as JSON
type ScenarioHandler struct {
	session *Session
	content storage.Content
	md      goldmark.Markdown
	logger  *slog.Logger
}

func NewScenarioHandler(session *Session, content storage.Content, logger *slog.Logger) *ScenarioHandler {
	return &ScenarioHandler{
		session: session,
		content: content,
		md:      goldmark.New(goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps())),
		logger:  logger,
	}
}

func (h *ScenarioHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	switch {
	case r.URL.Path == "/v1/scenario":
		h.handleCurrent(w, r)
	case r.URL.Path == "/v1/scenarios" || r.URL.Path == "/v1/scenarios/":
		h.handleList(w, r)
	case strings.HasPrefix(r.URL.Path, "/v1/scenarios/"):
		h.handleGet(w, r, strings.TrimPrefix(r.URL.Path, "/v1/scenarios/"))
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *ScenarioHandler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	var resp ScenarioResponse
	err := h.session.Do(r.Context(), "describe scenario", func(c *game.Core) error {
		s := c.Scenario()
		resp.Name = s.Name
		resp.FileName = s.FileName
		resp.Story = s.Story
		for _, id := range c.Storylines() {
			def := s.Storylines[id]
			resp.Storylines = append(resp.Storylines, StorylineSummary{
				ID:          id,
				Name:        def.Name,
				Description: def.Description,
			})
		}
		return nil
	})
	if err != nil {
		h.logger.Error("Failed to describe scenario", "error", err)
		writeError(w, h.logger, http.StatusServiceUnavailable, "Game is not available")
		return
	}

	// rendering happens off the dispatcher goroutine
	resp.StoryHTML = h.render(resp.Story)
	for i := range resp.Storylines {
		resp.Storylines[i].HTML = h.render(resp.Storylines[i].Description)
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *ScenarioHandler) handleList(w http.ResponseWriter, r *http.Request) {
	scenarios, err := h.content.ListScenarios(r.Context())
	if err != nil {
		h.logger.Error("Failed to list scenarios", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list scenarios")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, scenarios)
}

func (h *ScenarioHandler) handleGet(w http.ResponseWriter, r *http.Request, filename string) {
	if filename == "" || strings.Contains(filename, "..") {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid filename")
		return
	}

	s, err := h.content.GetScenario(r.Context(), filename)
	if err != nil {
		if errors.Is(err, storage.ErrScenarioNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Scenario not found")
			return
		}
		h.logger.Error("Failed to get scenario", "error", err, "filename", filename)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to retrieve scenario")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, s)
}

func (h *ScenarioHandler) render(text string) string {
	if text == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(text), &buf); err != nil {
		h.logger.Warn("Failed to render markdown", "error", err)
		return ""
	}
	return unsafeHrefRe.ReplaceAllString(buf.String(), `$1="#"`)
}
