package main

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/sznuper/portalwatch/internal/config"
	"github.com/sznuper/portalwatch/internal/logsink"
)

// logging bundles the process logger with its optional Loki mirror.
type logging struct {
	logger  *slog.Logger
	shipper *logsink.Shipper
	drain   time.Duration
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogger writes human-readable text to a terminal and JSON otherwise.
// When Loki is configured every record is also mirrored there.
func setupLogger(cfg *config.Config) *logging {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Options.LogLevel)}

	var h slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		h = slog.NewTextHandler(os.Stderr, opts)
	} else {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}

	l := &logging{}
	if loki := cfg.Logging.Loki; loki.URL != "" {
		client := logsink.NewLokiClient(loki.URL, loki.Job, loki.Labels, loki.Timeout.Std())
		l.shipper = logsink.NewShipper(client, loki.MaxInFlight, loki.Timeout.Std())
		l.drain = loki.DrainTimeout.Std()
		h = logsink.NewHandler(h, l.shipper)
	}

	l.logger = slog.New(h)
	return l
}

// forRun returns a copy whose logger carries the run id.
func (l *logging) forRun(runID string) *logging {
	return &logging{logger: l.logger.With("run_id", runID), shipper: l.shipper, drain: l.drain}
}

// Flush waits for in-flight log shipping up to the drain timeout.
func (l *logging) Flush() {
	if l.shipper == nil {
		return
	}
	if !l.shipper.Drain(l.drain) {
		// Straight to stderr: the mirror is what failed to drain.
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Warn("log shipping did not drain in time", "timeout", l.drain)
	}
	if n := l.shipper.Dropped(); n > 0 {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Warn("log records dropped", "count", n, "failed", l.shipper.Failed())
	}
}
