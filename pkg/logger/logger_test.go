package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureJSON(t *testing.T, level string) *bytes.Buffer {
	buf := &bytes.Buffer{}
	Initialize(Config{Level: level, Format: "json", Output: buf, Service: "pipeline"})
	return buf
}

func decodeLast(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestInfo_WritesFieldsAndCaller(t *testing.T) {
	buf := captureJSON(t, "info")

	Info("keyword batch stored", map[string]interface{}{"count": 3})

	entry := decodeLast(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "keyword batch stored", entry["message"])
	assert.Equal(t, float64(3), entry["count"])
	assert.Equal(t, "pipeline", entry["service"])
	assert.Contains(t, entry["caller"], "logger_test.go")
}

func TestError_IncludesError(t *testing.T) {
	buf := captureJSON(t, "info")

	Get().Component("budget").Error("reserve failed", errors.New("boom"))

	entry := decodeLast(t, buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "budget", entry["component"])
}

func TestLevelFiltering(t *testing.T) {
	buf := captureJSON(t, "warn")

	Debug("hidden")
	Info("hidden too")
	assert.Empty(t, buf.String())

	Warn("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestWithContext(t *testing.T) {
	buf := captureJSON(t, "debug")

	WithContext(map[string]interface{}{"request_id": "abc"}).Debug("scoped")

	entry := decodeLast(t, buf)
	assert.Equal(t, "abc", entry["request_id"])
	assert.Equal(t, "debug", entry["level"])
}
