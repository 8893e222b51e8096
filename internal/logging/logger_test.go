package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "parseLevel(%q)", in)
	}
}

// Setup replaces the slog default, so these tests do not run in parallel.
func TestSetup_JSONWithRunID(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := Setup(&buf, "info", "json")
	assert.Same(t, logger, slog.Default())

	ctx := WithRunID(context.Background(), "run-1")
	assert.Equal(t, "run-1", RunID(ctx))

	FromContext(ctx, logger).Debug("hidden")
	FromContext(ctx, logger).Info("mined", "entities", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "mined", entry["msg"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.EqualValues(t, 3, entry["entities"])
}

func TestSetup_Text(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Setup(&buf, "debug", "text")
	FromContext(context.Background(), nil).Debug("hello")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.NotContains(t, buf.String(), "run_id")
}
