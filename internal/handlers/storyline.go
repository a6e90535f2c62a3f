package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/questmap/pkg/game"
	"github.com/jwebster45206/questmap/pkg/notify"
	"github.com/jwebster45206/questmap/pkg/storyline"
)

type StorylineResponse struct {
	Current    string   `json:"current"`
	Storylines []string `json:"storylines"`
}

type SetStorylineRequest struct {
	ID string `json:"id"`
}

// StorylineHandler is the administrative entry point for storyline
// selection.
// Routes:
// GET /v1/storyline  - current and available storylines
// POST /v1/storyline - select a storyline: {"id": "markt"}
type StorylineHandler struct {
	session *Session
	logger  *slog.Logger
}

func NewStorylineHandler(session *Session, logger *slog.Logger) *StorylineHandler {
	return &StorylineHandler{
		session: session,
		logger:  logger,
	}
}

func (h *StorylineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.respond(w, r, http.StatusOK)
	case http.MethodPost:
		h.handleSet(w, r)
	default:
		h.logger.Warn("Method not allowed for storyline endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, POST")
	}
}

func (h *StorylineHandler) handleSet(w http.ResponseWriter, r *http.Request) {
	var req SetStorylineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid storyline request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "id is required")
		return
	}

	err := h.session.Do(r.Context(), "set storyline", func(c *game.Core) error {
		return c.SetStoryline(req.ID)
	})
	switch {
	case errors.Is(err, storyline.ErrUnknownStoryline):
		writeError(w, h.logger, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, notify.ErrReentrant):
		writeError(w, h.logger, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.logger.Error("Failed to set storyline", "storyline", req.ID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to set storyline")
		return
	}

	h.logger.Info("Storyline set through admin API", "storyline", req.ID, "session_id", h.session.ID.String())
	h.respond(w, r, http.StatusOK)
}

func (h *StorylineHandler) respond(w http.ResponseWriter, r *http.Request, status int) {
	var resp StorylineResponse
	err := h.session.Do(r.Context(), "get storyline", func(c *game.Core) error {
		resp.Current = c.Storyline()
		resp.Storylines = c.Storylines()
		return nil
	})
	if err != nil {
		h.logger.Error("Failed to read storyline", "error", err)
		writeError(w, h.logger, http.StatusServiceUnavailable, "Game is not available")
		return
	}
	writeJSON(w, h.logger, status, resp)
}
