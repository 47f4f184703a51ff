package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":  zerolog.DebugLevel,
		" WARN ": zerolog.WarnLevel,
		"error":  zerolog.ErrorLevel,
		"info":   zerolog.InfoLevel,
		"":       zerolog.InfoLevel,
		"trace":  zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestBuild(t *testing.T) {
	var buf bytes.Buffer
	log := Component(Build(Config{Level: "warn", RunID: "abc"}, &buf), "raster")

	log.Info().Msg("dropped")
	log.Warn().Int("cells", 3).Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &fields))
	assert.Equal(t, "warn", fields["level"])
	assert.Equal(t, "kept", fields["message"])
	assert.Equal(t, "abc", fields["run"])
	assert.Equal(t, "raster", fields["component"])
	assert.Equal(t, 3., fields["cells"])
	assert.Contains(t, fields, "time")
}

func TestBuild_Console(t *testing.T) {
	var buf bytes.Buffer
	log := Build(Config{Console: true}, &buf)
	log.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), "{")
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}
