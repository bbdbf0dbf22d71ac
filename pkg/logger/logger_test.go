package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("forensics-api", &buf).
		WithRequestID("req-1").
		WithComponent("text").
		WithFile("report.pdf", "application/pdf")

	log.Info().Msg("hello")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "forensics-api", event["service"])
	assert.Equal(t, "req-1", event["request_id"])
	assert.Equal(t, "text", event["component"])
	assert.Equal(t, "report.pdf", event["filename"])
	assert.Equal(t, "application/pdf", event["mime_type"])
	assert.Equal(t, "hello", event["message"])
}

func TestNop(t *testing.T) {
	// must not panic
	Nop().WithComponent("x").Info().Msg("discarded")
}
