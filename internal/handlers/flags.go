package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/questmap/pkg/flags"
	"github.com/jwebster45206/questmap/pkg/game"
	"github.com/jwebster45206/questmap/pkg/notify"
)

type SetFlagRequest struct {
	Name  string      `json:"name"`
	Value flags.Value `json:"value"`
}

type FlagResponse struct {
	Name  string      `json:"name"`
	Value flags.Value `json:"value"`
}

// FlagsHandler reads and sets flags.
// Routes:
// GET /v1/flags         - every flag
// GET /v1/flags/{name}  - one flag
// POST /v1/flags        - set a flag: {"name": "met_guide", "value": true}
type FlagsHandler struct {
	session *Session
	logger  *slog.Logger
}

func NewFlagsHandler(session *Session, logger *slog.Logger) *FlagsHandler {
	return &FlagsHandler{
		session: session,
		logger:  logger,
	}
}

func (h *FlagsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/flags"), "/")

	switch r.Method {
	case http.MethodGet:
		if name == "" {
			h.handleList(w, r)
			return
		}
		h.handleGet(w, r, name)
	case http.MethodPost:
		if name != "" {
			writeError(w, h.logger, http.StatusBadRequest, "POST /v1/flags takes the flag name in the body")
			return
		}
		h.handleSet(w, r)
	default:
		h.logger.Warn("Method not allowed for flags endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, POST")
	}
}

func (h *FlagsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	var all map[string]flags.Value
	if err := h.session.Do(r.Context(), "list flags", func(c *game.Core) error {
		all = c.Flags()
		return nil
	}); err != nil {
		h.logger.Error("Failed to read flags", "error", err)
		writeError(w, h.logger, http.StatusServiceUnavailable, "Game is not available")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, all)
}

func (h *FlagsHandler) handleGet(w http.ResponseWriter, r *http.Request, name string) {
	var (
		value flags.Value
		found bool
	)
	if err := h.session.Do(r.Context(), "get flag", func(c *game.Core) error {
		value, found = c.Flags()[name]
		return nil
	}); err != nil {
		h.logger.Error("Failed to read flag", "flag", name, "error", err)
		writeError(w, h.logger, http.StatusServiceUnavailable, "Game is not available")
		return
	}
	if !found {
		writeError(w, h.logger, http.StatusNotFound, "Unknown flag: "+name)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, FlagResponse{Name: name, Value: value})
}

func (h *FlagsHandler) handleSet(w http.ResponseWriter, r *http.Request) {
	var req SetFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid flag request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, h.logger, http.StatusBadRequest, "name is required")
		return
	}
	if req.Value.IsUnset() {
		writeError(w, h.logger, http.StatusBadRequest, "value must be a boolean, number or string")
		return
	}

	err := h.session.Do(r.Context(), "set flag", func(c *game.Core) error {
		return c.SetFlag(req.Name, req.Value)
	})
	switch {
	case errors.Is(err, game.ErrUnknownFlag):
		writeError(w, h.logger, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, game.ErrFlagKind):
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, notify.ErrReentrant):
		writeError(w, h.logger, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.logger.Error("Failed to set flag", "flag", req.Name, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to set flag")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, FlagResponse{Name: req.Name, Value: req.Value})
}
