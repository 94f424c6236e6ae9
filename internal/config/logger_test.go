package config

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(LoggerConfig{Level: "info", Format: "json"}, &buf)

	logger.Info().Str("user_id", "u1").Msg("card stamped")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "card stamped", entry["message"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "seven-oz-loyalty", entry["app"])
}

func TestNewLogger_Levels(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	tests := []struct {
		level    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			newLogger(LoggerConfig{Level: tt.level, Format: "json"}, &buf)
			assert.Equal(t, tt.expected, zerolog.GlobalLevel())
		})
	}
}

func TestNewLogger_DebugSuppressedAtInfo(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	logger := newLogger(LoggerConfig{Level: "info", Format: "json"}, &buf)

	logger.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
}

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(LoggerConfig{Level: "info", Format: "console"}, &buf)

	logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "INF")
}
