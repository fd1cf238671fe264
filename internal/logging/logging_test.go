package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "info", "json")
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("entity specified", zap.String("entity", "Dog"))
	require.NoError(t, l.Sync())

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "entity specified", line["msg"])
	assert.Equal(t, "Dog", line["entity"])
	assert.Equal(t, "info", line["level"])
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "DEBUG", "console")
	require.NoError(t, err)

	l.Debug("tree loaded", zap.Int("entities", 3))
	require.NoError(t, l.Sync())
	assert.Contains(t, buf.String(), "tree loaded")
	assert.Contains(t, buf.String(), `"entities": 3`)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud", "json")
	assert.Error(t, err)
	_, err = New(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}
