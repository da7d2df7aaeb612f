package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/sznuper/portalwatch/internal/config"
	"github.com/sznuper/portalwatch/internal/runner"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Check all targets on the configured cron schedule",
	Long: "Runs a monitoring pass on every tick of options.schedule. Runs never overlap; " +
		"a tick that arrives while a run is in progress is skipped. The config file is " +
		"reloaded when it changes; an invalid edit is logged and the previous config kept.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Options.Schedule == "" {
			return errors.New("daemon mode requires options.schedule")
		}

		l := setupLogger(cfg)
		defer l.Flush()

		opts := monitorOpts{}
		opts.dryRun, _ = cmd.Flags().GetBool("dry-run")
		opts.installBrowsers, _ = cmd.Flags().GetBool("install-browsers")
		runNow, _ := cmd.Flags().GetBool("run-now")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		d, err := newDaemon(cmd, path, cfg, l, opts)
		if err != nil {
			return err
		}
		return d.serve(ctx, runNow)
	},
}

func init() {
	daemonCmd.Flags().Bool("dry-run", false, "compose alerts without sending them")
	daemonCmd.Flags().Bool("install-browsers", false, "download the Playwright driver and Chromium before the first run")
	daemonCmd.Flags().Bool("run-now", false, "run once immediately instead of waiting for the first tick")
	rootCmd.AddCommand(daemonCmd)
}

// monitorFunc runs one monitoring pass.
type monitorFunc func(ctx context.Context, cfg *config.Config, l *logging, opts monitorOpts) ([]runner.Result, error)

type daemon struct {
	cmd     *cobra.Command
	path    string
	log     *logging
	opts    monitorOpts
	monitor monitorFunc

	// runMu keeps runs from overlapping across schedule changes.
	runMu sync.Mutex

	mu      sync.Mutex
	cfg     *config.Config
	entry   cron.EntryID
	sched   *cron.Cron
	running context.Context
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, kv ...any) { c.l.Debug("cron: "+msg, kv...) }

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error("cron: "+msg, append([]any{"error", err}, kv...)...)
}

// newDaemon schedules cfg's monitoring pass. The scheduler is not started.
func newDaemon(cmd *cobra.Command, path string, cfg *config.Config, l *logging, opts monitorOpts) (*daemon, error) {
	cl := cronLogger{l.logger}
	d := &daemon{
		cmd:     cmd,
		path:    path,
		log:     l,
		opts:    opts,
		monitor: monitor,
		cfg:     cfg,
		running: context.Background(),
		sched: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
	if err := d.schedule(cfg.Options.Schedule); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *daemon) serve(ctx context.Context, runNow bool) error {
	d.running = ctx

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer watcher.Close()
	// Watch the directory: editors replace files rather than writing in place.
	if err := watcher.Add(filepath.Dir(d.path)); err != nil {
		return fmt.Errorf("watching config: %w", err)
	}

	d.sched.Start()
	d.log.logger.Info("daemon started", "schedule", d.cfg.Options.Schedule, "config", d.path)
	if runNow {
		go d.runOnce()
	}

	for {
		select {
		case <-ctx.Done():
			d.log.logger.Info("daemon stopping, waiting for the current run")
			<-d.sched.Stop().Done()
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(d.path) || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			d.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			d.log.logger.Warn("config watcher error", "error", err)
		}
	}
}

// schedule replaces the cron entry for the monitoring job.
func (d *daemon) schedule(spec string) error {
	id, err := d.sched.AddFunc(spec, d.runOnce)
	if err != nil {
		return fmt.Errorf("scheduling %q: %w", spec, err)
	}
	if d.entry != 0 {
		d.sched.Remove(d.entry)
	}
	d.entry = id
	return nil
}

func (d *daemon) reload() {
	log := d.log.logger.With("config", d.path)
	cfg, _, err := config.Resolve(d.path)
	if err == nil {
		err = applyOptionFlags(d.cmd, cfg)
	}
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		log.Error("config reload failed, keeping previous config", "error", err)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if cfg.Options.Schedule != d.cfg.Options.Schedule {
		if err := d.schedule(cfg.Options.Schedule); err != nil {
			log.Error("new schedule rejected, keeping previous config", "error", err)
			return
		}
		log.Info("schedule changed", "schedule", cfg.Options.Schedule)
	}
	d.cfg = cfg
	log.Info("config reloaded", "targets", len(cfg.Targets))
}

func (d *daemon) runOnce() {
	if !d.runMu.TryLock() {
		d.log.logger.Warn("previous run still in progress, skipping tick")
		return
	}
	defer d.runMu.Unlock()

	d.mu.Lock()
	cfg := d.cfg
	d.mu.Unlock()

	results, err := d.monitor(d.running, cfg, d.log, d.opts)
	if err != nil && !errors.Is(err, context.Canceled) {
		d.log.logger.Error("monitoring run failed", "error", err)
	}
	if len(results) > 0 {
		fmt.Println(renderSummary(results))
	}
	// Browsers are installed at most once per daemon.
	d.opts.installBrowsers = false
}
