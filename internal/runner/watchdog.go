package runner

import (
	"log/slog"
	"os"
	"sync"
	"time"
)

// ExitWatchdog is the process exit code when the watchdog fires.
const ExitWatchdog = 3

// Watchdog terminates the process if a run exceeds its ceiling, so a wedged
// browser cannot hang the agent forever.
type Watchdog struct {
	timer *time.Timer

	mu      sync.Mutex
	stopped bool
}

// WatchdogOptions configures StartWatchdog.
type WatchdogOptions struct {
	Timeout time.Duration
	// BeforeExit runs once when the watchdog fires, e.g. to drain log shipping.
	BeforeExit func()
	// Exit defaults to os.Exit.
	Exit   func(code int)
	Logger *slog.Logger
}

// StartWatchdog arms a process-wide timer. Stop disarms it.
func StartWatchdog(opts WatchdogOptions) *Watchdog {
	exit := opts.Exit
	if exit == nil {
		exit = os.Exit
	}
	w := &Watchdog{}
	w.timer = time.AfterFunc(opts.Timeout, func() {
		w.mu.Lock()
		if w.stopped {
			w.mu.Unlock()
			return
		}
		w.stopped = true
		w.mu.Unlock()

		if opts.Logger != nil {
			opts.Logger.Error("watchdog fired, run exceeded its time limit", "timeout", opts.Timeout)
		}
		if opts.BeforeExit != nil {
			opts.BeforeExit()
		}
		exit(ExitWatchdog)
	})
	return w
}

// Stop disarms the watchdog. It reports whether the watchdog was still armed.
func (w *Watchdog) Stop() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return false
	}
	w.stopped = true
	w.timer.Stop()
	return true
}
