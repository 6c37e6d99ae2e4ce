package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/platinummonkey/storefront/pkg/contextkeys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.Debug("debug message")
	assert.Zero(t, buf.Len(), "debug should be filtered at info level")

	logger.Info("info message")
	entry := decodeEntry(t, &buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "info message", entry["msg"])

	buf.Reset()
	logger.Warnf("warn %d", 1)
	entry = decodeEntry(t, &buf)
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "warn 1", entry["msg"])
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(DebugLevel, &buf)

	logger.WithField("user", "alice").
		WithFields(map[string]interface{}{"target_id": 2}).
		WithError(errors.New("boom")).
		Error("failed")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "alice", entry["user"])
	assert.EqualValues(t, 2, entry["target_id"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLogger_WithNilError(t *testing.T) {
	logger := NewLogger(InfoLevel, &bytes.Buffer{})
	assert.Same(t, logger, logger.WithError(nil))
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DebugLevel,
		"DEBUG":   DebugLevel,
		"warn":    WarnLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"info":    InfoLevel,
		"":        InfoLevel,
		"verbose": InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	ctx := WithLogger(context.Background(), logger)
	ctx = contextkeys.WithRequestID(ctx, "req-42")
	ctx = contextkeys.WithUserID(ctx, "alice")

	FromContext(ctx).Info("hello")
	entry := decodeEntry(t, &buf)
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "alice", entry["user_id"])
}

func TestGetLogger_Default(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))
}
