package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdk "github.com/pawpilot/pawpilot/sdk/go"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)

	_, err = New(Config{Format: "xml"})
	assert.Error(t, err)
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "WARN", Format: FormatJSON, Output: &buf})
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])
	assert.Equal(t, "warn", lines[0]["level"])
}

func TestHooksForwardLogEntries(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "debug", Format: FormatJSON, Output: &buf})
	require.NoError(t, err)
	hooks := Hooks(logger)

	hooks.OnLogEntry(context.Background(), sdk.LogEntry{
		Level:   sdk.LogLevelError,
		Message: "credential_fetch_failed",
		Fields:  map[string]any{"uid": "u1"},
	})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "error", lines[0]["level"])
	assert.Equal(t, "credential_fetch_failed", lines[0]["message"])
	assert.Equal(t, "u1", lines[0]["uid"])
}

func TestHooksLogBackendCalls(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "debug", Format: FormatJSON, Output: &buf})
	require.NoError(t, err)
	hooks := Hooks(logger)

	req := httptest.NewRequest(http.MethodGet, "http://api.test/pets/", nil)
	hooks.OnHTTPResponse(context.Background(), req, &http.Response{StatusCode: 200}, nil, 12*time.Millisecond)
	hooks.OnHTTPResponse(context.Background(), req, nil, errors.New("connection refused"), time.Millisecond)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "debug", lines[0]["level"])
	assert.Equal(t, float64(200), lines[0]["status"])
	assert.Equal(t, "/pets/", lines[0]["path"])
	assert.Equal(t, "warn", lines[1]["level"])
	assert.Equal(t, "connection refused", lines[1]["error"])
}
