package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/questmap/internal/dispatch"
	"github.com/jwebster45206/questmap/internal/storage"
	"github.com/jwebster45206/questmap/pkg/flags"
	"github.com/jwebster45206/questmap/pkg/game"
	"github.com/jwebster45206/questmap/pkg/scenario"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func newTestSession(t *testing.T) *Session {
	t.Helper()

	s, err := scenario.Load("../../data/scenarios/altstadt.yaml")
	require.NoError(t, err)
	core, err := game.New(s, testLogger())
	require.NoError(t, err)

	d := dispatch.New(testLogger(), 16)
	go d.Start()
	t.Cleanup(func() {
		d.Stop()
		<-d.Done()
	})

	return NewSession(uuid.New(), core, d)
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		checks         map[string]HealthCheck
		expectedStatus int
		expectedHealth string
		expectedRedis  string
	}{
		{
			name: "all healthy",
			checks: map[string]HealthCheck{
				"content": func(context.Context) error { return nil },
				"redis":   func(context.Context) error { return nil },
			},
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			expectedRedis:  "healthy",
		},
		{
			name: "unhealthy redis",
			checks: map[string]HealthCheck{
				"content": func(context.Context) error { return nil },
				"redis":   func(context.Context) error { return errors.New("connection refused") },
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			expectedRedis:  "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(NewHealthHandler(tt.checks, testLogger()), http.MethodGet, "/health", "")

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
			if rr.Header().Get("Content-Type") != "application/json" {
				t.Errorf("Expected Content-Type application/json, got %s", rr.Header().Get("Content-Type"))
			}

			var response HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if response.Status != tt.expectedHealth {
				t.Errorf("Expected status '%s', got '%s'", tt.expectedHealth, response.Status)
			}
			if response.Service != "questmap" {
				t.Errorf("Expected service 'questmap', got '%s'", response.Service)
			}
			if response.Components["redis"] != tt.expectedRedis {
				t.Errorf("Expected redis status '%s', got '%s'", tt.expectedRedis, response.Components["redis"])
			}
			if time.Since(response.Timestamp) > time.Second {
				t.Errorf("Health check timestamp seems old: %v", response.Timestamp)
			}
		})
	}
}

func TestMapHandler(t *testing.T) {
	session := newTestSession(t)
	h := NewMapHandler(session, testLogger())

	rr := serve(h, http.MethodGet, "/v1/npcs", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var npcs struct {
		Storyline string `json:"storyline"`
		NPCs      []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"npcs"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&npcs))
	assert.Equal(t, "touristen", npcs.Storyline)
	require.Len(t, npcs.NPCs, 3)
	assert.Equal(t, "baker", npcs.NPCs[0].ID)
	assert.Equal(t, "Baker", npcs.NPCs[0].Name)
	assert.Equal(t, "Old Jonas", npcs.NPCs[1].Name)
	assert.Equal(t, "Greta", npcs.NPCs[2].Name)

	rr = serve(h, http.MethodGet, "/v1/markers", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var markers MarkersResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&markers))
	assert.Equal(t, map[string]string{"baker": "quest-bread"}, markers.Markers)
	assert.Len(t, markers.Quests, 4)

	rr = serve(h, http.MethodDelete, "/v1/markers", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestStorylineHandler(t *testing.T) {
	session := newTestSession(t)
	h := NewStorylineHandler(session, testLogger())

	tests := []struct {
		name           string
		method         string
		body           string
		expectedStatus int
		expectedStory  string
	}{
		{"get", http.MethodGet, "", http.StatusOK, "touristen"},
		{"select market", http.MethodPost, `{"id":"markt"}`, http.StatusOK, "markt"},
		{"select again", http.MethodPost, `{"id":"markt"}`, http.StatusOK, "markt"},
		{"unknown", http.MethodPost, `{"id":"atlantis"}`, http.StatusNotFound, ""},
		{"missing id", http.MethodPost, `{}`, http.StatusBadRequest, ""},
		{"bad body", http.MethodPost, `{`, http.StatusBadRequest, ""},
		{"wrong method", http.MethodPut, "", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(h, tt.method, "/v1/storyline", tt.body)
			require.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
			if tt.expectedStory == "" {
				return
			}
			var resp StorylineResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, tt.expectedStory, resp.Current)
			assert.Equal(t, []string{"markt", "touristen"}, resp.Storylines)
		})
	}
}

func TestFlagsHandler(t *testing.T) {
	session := newTestSession(t)
	h := NewFlagsHandler(session, testLogger())

	rr := serve(h, http.MethodPost, "/v1/flags", `{"name":"met_guide","value":true}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = serve(h, http.MethodGet, "/v1/flags/met_guide", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var flag FlagResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&flag))
	assert.True(t, flag.Value.Equal(flags.Bool(true)))

	rr = serve(h, http.MethodGet, "/v1/flags", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var all map[string]flags.Value
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&all))
	assert.Len(t, all, 5)
	assert.Equal(t, "sunny", all["weather"].String())

	var markers map[string]string
	require.NoError(t, session.Do(context.Background(), "markers", func(c *game.Core) error {
		markers = c.NpcsWithQuests()
		return nil
	}))
	assert.Equal(t, "quest-q1", markers["guide"])

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{"unknown flag", http.MethodPost, "/v1/flags", `{"name":"met_mayor","value":true}`, http.StatusNotFound},
		{"missing value", http.MethodPost, "/v1/flags", `{"name":"met_guide"}`, http.StatusBadRequest},
		{"string on bool flag", http.MethodPost, "/v1/flags", `{"name":"met_guide","value":"true"}`, http.StatusBadRequest},
		{"number on bool flag", http.MethodPost, "/v1/flags", `{"name":"met_guide","value":1}`, http.StatusBadRequest},
		{"missing name", http.MethodPost, "/v1/flags", `{"value":1}`, http.StatusBadRequest},
		{"name in path", http.MethodPost, "/v1/flags/met_guide", `{"value":true}`, http.StatusBadRequest},
		{"get unknown", http.MethodGet, "/v1/flags/met_mayor", "", http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/v1/flags/met_guide", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestScenarioHandler(t *testing.T) {
	session := newTestSession(t)
	content := storage.NewMockStorage()
	content.AddScenario("altstadt.yaml", session.core.Scenario())
	h := NewScenarioHandler(session, content, testLogger())

	rr := serve(h, http.MethodGet, "/v1/scenario", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp ScenarioResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Altstadt", resp.Name)
	assert.Equal(t, "<p>A guided afternoon through the old town.</p>\n", resp.StoryHTML)
	require.Len(t, resp.Storylines, 2)
	assert.Equal(t, "Market day", resp.Storylines[0].Name)

	rr = serve(h, http.MethodGet, "/v1/scenarios", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"Altstadt":"altstadt.yaml"}`, rr.Body.String())

	rr = serve(h, http.MethodGet, "/v1/scenarios/altstadt.yaml", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, bytes.Contains(rr.Body.Bytes(), []byte(`"opening_storyline":"touristen"`)))

	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/v1/scenarios/missing.yaml", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodGet, "/v1/scenarios/../secret", "").Code)
}

func TestScenarioHandler_RenderStripsUnsafeLinks(t *testing.T) {
	h := NewScenarioHandler(nil, storage.NewMockStorage(), testLogger())
	html := h.render("[click](javascript:alert(1))")
	assert.NotContains(t, html, "javascript:")
}
