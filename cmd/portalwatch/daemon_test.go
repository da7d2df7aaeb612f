package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sznuper/portalwatch/internal/config"
	"github.com/sznuper/portalwatch/internal/runner"
)

const daemonConfig = `
options:
  schedule: %q
credentials:
  id: "1"
  secret: "2"
targets:
  - name: arnona-prod
    env: prod
    url: https://example.com/prod/
    expected_marker: "7570727"
    alert_title: down
`

func writeDaemonConfig(t *testing.T, path, schedule string) {
	t.Helper()
	writeRaw(t, path, fmt.Sprintf(daemonConfig, schedule))
}

func writeRaw(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
}

func newTestDaemon(t *testing.T) *daemon {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeDaemonConfig(t, path, "*/30 * * * *")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, config.Validate(cfg))

	cmd := &cobra.Command{Use: "daemon"}
	registerOptionFlags(cmd)

	l := &logging{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	d, err := newDaemon(cmd, path, cfg, l, monitorOpts{})
	require.NoError(t, err)
	d.monitor = func(context.Context, *config.Config, *logging, monitorOpts) ([]runner.Result, error) {
		t.Fatal("monitor called unexpectedly")
		return nil, nil
	}
	return d
}

func TestDaemonReload_InvalidEditKeepsConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"broken yaml", "targets: [\n"},
		{"fails validation", "targets: []\n"},
		{"bad schedule", fmt.Sprintf(daemonConfig, "not a cron")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDaemon(t)
			before, entry := d.cfg, d.entry

			writeRaw(t, d.path, tt.content)
			d.reload()

			assert.Same(t, before, d.cfg)
			assert.Equal(t, entry, d.entry)
			assert.Len(t, d.sched.Entries(), 1)
		})
	}
}

func TestDaemonReload_ScheduleChange(t *testing.T) {
	d := newTestDaemon(t)
	entry := d.entry

	writeDaemonConfig(t, d.path, "0 * * * *")
	d.reload()

	assert.Equal(t, "0 * * * *", d.cfg.Options.Schedule)
	assert.NotEqual(t, entry, d.entry)
	entries := d.sched.Entries()
	require.Len(t, entries, 1, "old entry removed")
	assert.Equal(t, d.entry, entries[0].ID)
}

func TestDaemonReload_SameSchedule(t *testing.T) {
	d := newTestDaemon(t)
	before, entry := d.cfg, d.entry

	writeDaemonConfig(t, d.path, "*/30 * * * *")
	d.reload()

	assert.NotSame(t, before, d.cfg, "new config adopted")
	assert.Equal(t, entry, d.entry, "schedule untouched")
}

func TestDaemonRunOnce_NoOverlap(t *testing.T) {
	d := newTestDaemon(t)

	var (
		mu      sync.Mutex
		calls   int
		started = make(chan struct{})
		release = make(chan struct{})
	)
	d.monitor = func(context.Context, *config.Config, *logging, monitorOpts) ([]runner.Result, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(started)
		<-release
		return nil, nil
	}

	done := make(chan struct{})
	go func() {
		d.runOnce()
		close(done)
	}()
	<-started

	// A tick arriving mid-run returns at once.
	skipped := make(chan struct{})
	go func() {
		d.runOnce()
		close(skipped)
	}()
	select {
	case <-skipped:
	case <-time.After(time.Second):
		t.Fatal("overlapping tick blocked instead of skipping")
	}

	close(release)
	<-done
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestDaemonRunOnce_InstallsBrowsersOnce(t *testing.T) {
	d := newTestDaemon(t)
	d.opts.installBrowsers = true

	var seen []bool
	d.monitor = func(_ context.Context, _ *config.Config, _ *logging, opts monitorOpts) ([]runner.Result, error) {
		seen = append(seen, opts.installBrowsers)
		return nil, nil
	}

	d.runOnce()
	d.runOnce()
	assert.Equal(t, []bool{true, false}, seen)
}
