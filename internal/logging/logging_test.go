package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.Disabled, ParseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}

func TestJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(New(Config{Format: FormatJSON, Service: "meetingctl", Output: &buf}), "live")

	logger.Info().Str("session", "s-1").Msg("channel open")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "meetingctl", entry["service"])
	assert.Equal(t, "live", entry["component"])
	assert.Equal(t, "s-1", entry["session"])
	assert.Equal(t, "channel open", entry["message"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: FormatJSON, Level: "info", Output: &buf})

	logger.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
}
