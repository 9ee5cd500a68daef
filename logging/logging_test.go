package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "warn", "console")
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("flag not found", "country", "ATG")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "flag not found")
	assert.Contains(t, out, "country=ATG")
	assert.NotContains(t, out, "\x1b[")
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "debug", "json")
	require.NoError(t, err)

	log.Debug("frame rendered", "index", 3)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "frame rendered", entry["msg"])
	assert.Equal(t, 3.0, entry["index"])
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
	_, err = New(&bytes.Buffer{}, "loud", "console")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARNING")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)
}
