package logsink

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(level slog.Level) (*slog.Logger, *memSink, *Shipper, *bytes.Buffer) {
	var buf bytes.Buffer
	sink := &memSink{}
	shipper := NewShipper(sink, 16, time.Second)
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})
	return slog.New(NewHandler(inner, shipper)), sink, shipper, &buf
}

func TestHandler_MirrorsWithEnv(t *testing.T) {
	logger, sink, shipper, buf := newTestLogger(slog.LevelInfo)

	logger.With("env", "prod", "target", "arnona-prod").Warn("screenshot failed", "error", "disk full")
	require.True(t, shipper.Drain(time.Second))

	require.Equal(t, 1, sink.Len())
	rec := sink.records[0]
	assert.Equal(t, "prod", rec.Env)
	assert.Equal(t, LevelWarn, rec.Level)
	assert.Equal(t, `screenshot failed env=prod target=arnona-prod error="disk full"`, rec.Message)
	assert.Contains(t, buf.String(), "screenshot failed")
}

func TestHandler_EnvFromRecord(t *testing.T) {
	logger, sink, shipper, _ := newTestLogger(slog.LevelInfo)

	logger.Info("step passed", "env", "test")
	require.True(t, shipper.Drain(time.Second))
	require.Equal(t, 1, sink.Len())
	assert.Equal(t, "test", sink.records[0].Env)
	assert.Equal(t, LevelInfo, sink.records[0].Level)
}

func TestHandler_RespectsLevel(t *testing.T) {
	logger, sink, shipper, _ := newTestLogger(slog.LevelInfo)

	logger.Debug("noise")
	logger.Error("boom")
	require.True(t, shipper.Drain(time.Second))
	require.Equal(t, 1, sink.Len())
	assert.Equal(t, LevelError, sink.records[0].Level)
}

func TestHandler_GroupedEnvIsNotALabel(t *testing.T) {
	logger, sink, shipper, _ := newTestLogger(slog.LevelInfo)

	logger.WithGroup("req").Info("x", "env", "other")
	require.True(t, shipper.Drain(time.Second))
	require.Equal(t, 1, sink.Len())
	assert.Empty(t, sink.records[0].Env)
	assert.Equal(t, "x req.env=other", sink.records[0].Message)
}

func TestLevelOf(t *testing.T) {
	assert.Equal(t, LevelInfo, LevelOf(slog.LevelDebug))
	assert.Equal(t, LevelInfo, LevelOf(slog.LevelInfo))
	assert.Equal(t, LevelWarn, LevelOf(slog.LevelWarn))
	assert.Equal(t, LevelError, LevelOf(slog.LevelError+4))
}
