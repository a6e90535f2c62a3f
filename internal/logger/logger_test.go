package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/questmap/internal/config"
)

func TestSetupWriter_Production(t *testing.T) {
	var buf bytes.Buffer
	log := SetupWriter(&config.Config{Environment: "production", LogLevel: slog.LevelInfo}, &buf)

	WithSession(log, "abc").Info("Storyline changed", "to", "markt")
	log.Debug("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Storyline changed", entry["msg"])
	assert.Equal(t, "abc", entry["session_id"])
	assert.Equal(t, "markt", entry["to"])
}

func TestSetupWriter_Development(t *testing.T) {
	var buf bytes.Buffer
	log := SetupWriter(&config.Config{Environment: "development", LogLevel: slog.LevelDebug}, &buf)

	WithError(log, errors.New("boom")).Debug("Quest state changed")

	out := buf.String()
	assert.True(t, strings.Contains(out, `msg="Quest state changed"`), out)
	assert.True(t, strings.Contains(out, "error=boom"), out)
}
