package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("warn", "json", &buf)
	require.NoError(t, err)

	log.Info().Msg("dropped")
	log.Warn().Str("file", "a.csv").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "a.csv", entry["file"])
	assert.Equal(t, "lookdata", entry["component"])
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("INFO", "console", &buf)
	require.NoError(t, err)
	log.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestRejectsBadSettings(t *testing.T) {
	_, err := New("loud", "json", nil)
	require.Error(t, err)
	_, err = New("info", "xml", nil)
	require.Error(t, err)
}
