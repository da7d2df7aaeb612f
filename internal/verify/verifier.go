package verify

import (
	"context"
	"log/slog"
	"time"

	"github.com/sznuper/portalwatch/internal/config"
	"github.com/sznuper/portalwatch/internal/page"
	"github.com/sznuper/portalwatch/internal/step"
	"github.com/sznuper/portalwatch/internal/target"
)

const previewFetchTimeout = 5 * time.Second

// Settings bound the three verification stages.
type Settings struct {
	ReadyMarkers  []string
	FatalMarkers  []string
	ReadyTimeout  time.Duration
	IdleTimeout   time.Duration
	Deadline      time.Duration
	Interval      time.Duration
	PreviewLength int
}

func SettingsFromConfig(c config.Verify) Settings {
	return Settings{
		ReadyMarkers:  c.ReadyMarkers,
		FatalMarkers:  c.FatalMarkers,
		ReadyTimeout:  c.ReadyTimeout.Std(),
		IdleTimeout:   c.IdleTimeout.Std(),
		Deadline:      c.Deadline.Std(),
		Interval:      c.Interval.Std(),
		PreviewLength: c.PreviewLength,
	}
}

type Verifier struct {
	settings Settings
	logger   *slog.Logger
}

func New(settings Settings, logger *slog.Logger) *Verifier {
	return &Verifier{settings: settings, logger: logger}
}

// Verify waits for the page to show t.ExpectedMarker. It returns nil on
// success, a FatalPageError as soon as a fatal marker shows, or a Timeout
// once the deadline elapses. Errors carry a preview of the page text.
func (v *Verifier) Verify(ctx context.Context, p page.Controller, t target.Target) error {
	log := v.logger.With("env", t.Env, "target", t.Name)
	s := v.settings
	fatal := Contains(s.FatalMarkers...)

	// Coarse readiness. A fatal marker also ends this stage; the fine loop
	// below classifies it.
	if len(s.ReadyMarkers) > 0 && s.ReadyTimeout > 0 {
		ready := PollUntil(ctx, p.Text, Contains(s.ReadyMarkers...), fatal, s.Interval, s.ReadyTimeout)
		switch ready.Kind {
		case TimedOut:
			log.Warn("dashboard readiness not observed, continuing", "timeout", s.ReadyTimeout)
		case Success:
			log.Debug("dashboard ready", "marker", ready.Match, "elapsed", ready.Elapsed)
		}
	}

	if s.IdleTimeout > 0 {
		if err := p.WaitNetworkIdle(ctx, s.IdleTimeout); err != nil {
			log.Warn("network did not settle, continuing", "error", err)
		}
	}

	out := PollUntil(ctx, p.Text, Contains(t.ExpectedMarker), fatal, s.Interval, s.Deadline)
	log.Debug("verification poll finished", "outcome", out.Kind, "polls", out.Polls, "elapsed", out.Elapsed)

	switch out.Kind {
	case Success:
		log.Info("expected marker found", "marker", t.ExpectedMarker, "elapsed", out.Elapsed)
		return nil
	case FatalMatch:
		info := step.Errorf(step.KindFatalPage, "page shows fatal marker %q after %s", out.Match, out.Elapsed.Round(time.Millisecond))
		info.PagePreview = v.preview(ctx, p, out)
		return info
	case TimedOut:
		info := step.Errorf(step.KindTimeout, "marker %q not found within %s", t.ExpectedMarker, s.Deadline)
		if out.Text == "" && out.LastErr != nil {
			info.Message += "; last text fetch failed: " + out.LastErr.Error()
			info.Err = out.LastErr
		}
		info.PagePreview = v.preview(ctx, p, out)
		return info
	default:
		return step.Errorf(step.KindUnknown, "verification interrupted: %w", ctx.Err())
	}
}

// preview re-reads the page for the freshest text, falling back to the last
// text the poll saw.
func (v *Verifier) preview(ctx context.Context, p page.Controller, out Outcome) string {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), previewFetchTimeout)
	defer cancel()

	text := out.Text
	if fresh, err := p.Text(ctx); err == nil && fresh != "" {
		text = fresh
	}
	return Preview(text, v.settings.PreviewLength)
}
