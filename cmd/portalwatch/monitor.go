package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/sznuper/portalwatch/internal/browser"
	"github.com/sznuper/portalwatch/internal/config"
	"github.com/sznuper/portalwatch/internal/diag"
	"github.com/sznuper/portalwatch/internal/notify"
	"github.com/sznuper/portalwatch/internal/runner"
	"github.com/sznuper/portalwatch/internal/step"
	"github.com/sznuper/portalwatch/internal/target"
)

// monitorOpts are the per-invocation switches shared by run and daemon.
type monitorOpts struct {
	only            string
	dryRun          bool
	installBrowsers bool
}

func newRunID() string { return uuid.New().String() }

// buildDispatcher picks the configured sender. Dry runs and disabled alerting
// get a dispatcher in simulation mode.
func buildDispatcher(cfg *config.Config, dryRun bool, l *logging) *notify.Dispatcher {
	opts := notify.Options{
		Enabled:    cfg.Alerts.Enabled && !dryRun,
		Recipients: cfg.Alerts.Recipients,
		Template:   cfg.Alerts.Template,
	}
	if !opts.Enabled {
		return notify.NewDispatcher(nil, opts, l.logger)
	}

	var sender notify.Sender
	switch cfg.Alerts.Provider {
	case "shoutrrr":
		sender = notify.NewShoutrrrSender(cfg.Alerts.Shoutrrr.URL)
	default:
		courier := notify.NewCourierSender(cfg.Alerts.Courier.URL, cfg.Alerts.Courier.APIKey, cfg.Alerts.Courier.Timeout.Std())
		courier.Logger = l.logger
		sender = courier
	}
	return notify.NewDispatcher(sender, opts, l.logger)
}

// selectTargets returns every configured target, or only the named one.
func selectTargets(cfg *config.Config, only string) ([]target.Target, error) {
	reg, err := target.FromConfig(cfg.Targets)
	if err != nil {
		return nil, err
	}
	if only == "" {
		return reg.All(), nil
	}
	t := reg.Find(only)
	if t == nil {
		return nil, fmt.Errorf("target %q not found in config", only)
	}
	return []target.Target{*t}, nil
}

// monitor runs one full monitoring pass under a watchdog: launch the browser,
// check the targets, close the browser. Target failures are reported in the
// results, not as an error.
func monitor(ctx context.Context, cfg *config.Config, base *logging, opts monitorOpts) (results []runner.Result, err error) {
	runID := newRunID()
	l := base.forRun(runID)

	targets, err := selectTargets(cfg, opts.only)
	if err != nil {
		return nil, err
	}

	wd := runner.StartWatchdog(runner.WatchdogOptions{
		Timeout:    cfg.WatchdogTimeout(),
		BeforeExit: l.Flush,
		Logger:     l.logger,
	})
	defer wd.Stop()

	session, err := browser.Launch(browser.Options{
		Headless: !cfg.Browser.Headful,
		Install:  opts.installBrowsers,
		Width:    cfg.Browser.Width,
		Height:   cfg.Browser.Height,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			l.logger.Warn("browser cleanup failed", "error", cerr)
		}
	}()

	store := diag.NewDirStore(filepath.Join(cfg.Options.ScreenshotsDir, runID))
	steps := step.NewRunner(session, store, buildDispatcher(cfg, opts.dryRun, l), l.logger)
	r := runner.New(cfg, session, steps, l.logger)

	l.logger.Info("monitoring run started", "targets", len(targets), "dry_run", opts.dryRun)
	results = r.RunAll(ctx, targets)
	passed, failed := runner.Summary(results)
	l.logger.Info("monitoring run finished", "passed", passed, "failed", failed)

	if errors.Is(ctx.Err(), context.Canceled) {
		return results, ctx.Err()
	}
	return results, nil
}
