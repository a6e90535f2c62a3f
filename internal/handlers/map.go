package handlers

import (
	"cmp"
	"log/slog"
	"net/http"
	"slices"

	"github.com/jwebster45206/questmap/pkg/game"
	"github.com/jwebster45206/questmap/pkg/storyline"
)

type NPCsResponse struct {
	Storyline string          `json:"storyline"`
	NPCs      []storyline.NPC `json:"npcs"`
}

type MarkersResponse struct {
	Storyline string             `json:"storyline"`
	Markers   map[string]string  `json:"markers"`
	Quests    []game.QuestStatus `json:"quests"`
}

// MapHandler serves the derived map state: the NPCs of the current
// storyline and the quest markers over them.
// Routes:
// GET /v1/npcs    - NPCs in the current storyline, sorted by ID
// GET /v1/markers - quest marker per NPC and the state of every quest
type MapHandler struct {
	session *Session
	logger  *slog.Logger
}

func NewMapHandler(session *Session, logger *slog.Logger) *MapHandler {
	return &MapHandler{
		session: session,
		logger:  logger,
	}
}

func (h *MapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for map endpoint", "method", r.Method, "path", r.URL.Path)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	switch r.URL.Path {
	case "/v1/npcs":
		h.handleNPCs(w, r)
	case "/v1/markers":
		h.handleMarkers(w, r)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *MapHandler) handleNPCs(w http.ResponseWriter, r *http.Request) {
	var resp NPCsResponse
	err := h.session.Do(r.Context(), "list npcs", func(c *game.Core) error {
		resp.Storyline = c.Storyline()
		for _, npc := range c.NPCs() {
			resp.NPCs = append(resp.NPCs, npc)
		}
		return nil
	})
	if err != nil {
		h.logger.Error("Failed to read NPCs", "error", err)
		writeError(w, h.logger, http.StatusServiceUnavailable, "Game is not available")
		return
	}

	slices.SortFunc(resp.NPCs, func(a, b storyline.NPC) int { return cmp.Compare(a.ID, b.ID) })
	if resp.NPCs == nil {
		resp.NPCs = []storyline.NPC{}
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *MapHandler) handleMarkers(w http.ResponseWriter, r *http.Request) {
	var resp MarkersResponse
	err := h.session.Do(r.Context(), "list markers", func(c *game.Core) error {
		resp.Storyline = c.Storyline()
		resp.Markers = c.NpcsWithQuests()
		resp.Quests = c.Quests()
		return nil
	})
	if err != nil {
		h.logger.Error("Failed to read markers", "error", err)
		writeError(w, h.logger, http.StatusServiceUnavailable, "Game is not available")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}
