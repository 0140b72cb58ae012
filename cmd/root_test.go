package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calchat/internal/config"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, config.LogFormatJSON, "info").Info("started", "addr", ":8080")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "started", entry["msg"])
	assert.Equal(t, ":8080", entry["addr"])

	buf.Reset()
	newLogger(&buf, config.LogFormatText, "info").Info("started")
	assert.Contains(t, buf.String(), "msg=started")

	buf.Reset()
	newLogger(&buf, config.LogFormatText, "warn").Info("hidden")
	assert.Empty(t, buf.String())
}
