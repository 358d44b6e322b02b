package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	require.NoError(t, SetupLogger(&buf, "debug", "json"))

	LogError(errors.New("dictionary unavailable"), "Match failed", Fields{"component": "Shingles"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "Match failed", entry["msg"])
	assert.Equal(t, "dictionary unavailable", entry["error"])
	assert.Equal(t, "Shingles", entry["component"])
}

func TestSetupLogger_LevelFilters(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	require.NoError(t, SetupLogger(&buf, "warn", "console"))

	LogInfo("hidden", nil)
	assert.Empty(t, buf.String())
}

func TestSetupLogger_Invalid(t *testing.T) {
	var buf bytes.Buffer

	err := SetupLogger(&buf, "verbose", "json")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	err = SetupLogger(&buf, "info", "xml")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestUserError(t *testing.T) {
	err := NewUserError("Section not found", ErrUnknownSection)
	assert.Equal(t, "Section not found: unknown section template", err.Error())
	assert.ErrorIs(t, err, ErrUnknownSection)

	assert.Equal(t, "plain", (&UserError{UserMessage: "plain"}).Error())
}
