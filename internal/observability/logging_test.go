package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/resfight/internal/config"
	"github.com/cory-johannsen/resfight/internal/observability"
)

func TestNewLoggerTo_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := observability.NewLoggerTo(config.LoggingConfig{Level: "info", Format: "json"}, "arena", zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("dropped")
	logger.Info("battle settled", zap.Int64("character_id", 7))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "battle settled", entry["msg"])
	assert.Equal(t, "arena", entry["service"])
	assert.Equal(t, float64(7), entry["character_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewLoggerTo_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := observability.NewLoggerTo(config.LoggingConfig{Level: "debug", Format: "console"}, "migrate", zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("schema")
	out := buf.String()
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "schema")
	assert.Contains(t, out, "logging_test.go")
	assert.Contains(t, out, `"service": "migrate"`)
}

func TestNewLogger_Rejects(t *testing.T) {
	_, err := observability.NewLogger(config.LoggingConfig{Level: "trace", Format: "json"}, "x")
	assert.Error(t, err)
	_, err = observability.NewLogger(config.LoggingConfig{Level: "info", Format: "xml"}, "x")
	assert.Error(t, err)
}

func TestSetupTracing_DisabledIsNoop(t *testing.T) {
	shutdown, err := observability.SetupTracing(context.Background(), config.TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupTracing_Enabled(t *testing.T) {
	shutdown, err := observability.SetupTracing(context.Background(), config.TracingConfig{
		Enabled:     true,
		Endpoint:    "http://127.0.0.1:4318",
		ServiceName: "resfight-test",
	})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
