// Package logsink mirrors log records to a remote aggregator without ever
// blocking or failing the caller.
package logsink

import (
	"context"
	"log/slog"
	"time"
)

// Level is the severity label attached to a shipped record.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// LevelOf maps a slog level onto the three shipped levels. Debug records are
// shipped as info.
func LevelOf(l slog.Level) Level {
	switch {
	case l >= slog.LevelError:
		return LevelError
	case l >= slog.LevelWarn:
		return LevelWarn
	default:
		return LevelInfo
	}
}

// Record is one log line as shipped to the sink.
type Record struct {
	Time    time.Time
	Level   Level
	Message string
	// Env labels the stream; empty means the line is not tied to a target.
	Env string
}

// Sink accepts records. Push may block on I/O; callers go through a Shipper.
type Sink interface {
	Push(ctx context.Context, rec Record) error
}
