// Package step runs named units of work with uniform logging, failure
// evidence capture and alert routing.
package step

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sznuper/portalwatch/internal/diag"
	"github.com/sznuper/portalwatch/internal/page"
	"github.com/sznuper/portalwatch/internal/target"
)

// Step names used by the supervisor.
const (
	Navigate = "Navigate"
	Login    = "Login"
	Verify   = "Verify"
)

// captureTimeout bounds the screenshot taken after a failure.
const captureTimeout = 30 * time.Second

// AlertEligible reports whether failures of the named step may notify.
func AlertEligible(name string) bool {
	return name == Verify
}

// Action is the work performed by a step.
type Action func(ctx context.Context) error

// Alerter receives failures of alert-eligible steps. Implementations must not
// block for long and never report delivery problems back.
type Alerter interface {
	Dispatch(ctx context.Context, t target.Target, reason string)
}

// Step identifies one step execution.
type Step struct {
	Name string
	// Env labels logs and screenshot names.
	Env string
	// Target is set only when a failure may raise an alert.
	Target *target.Target
	// Kind classifies errors the action returns unclassified.
	Kind Kind
}

// Runner executes steps against one page. It remembers which (target, step)
// pairs have alerted so a run never alerts twice for the same failure.
type Runner struct {
	page    page.Controller
	store   diag.Store
	alerter Alerter
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	alerted map[string]bool
}

func NewRunner(p page.Controller, store diag.Store, alerter Alerter, logger *slog.Logger) *Runner {
	return &Runner{
		page:    p,
		store:   store,
		alerter: alerter,
		logger:  logger,
		now:     time.Now,
		alerted: make(map[string]bool),
	}
}

// Run executes action as step s. On failure it captures a screenshot, alerts
// if s is alert-eligible, and returns the classified failure in Result.Err.
// Capture and alert problems are logged and never replace the step error.
func (r *Runner) Run(ctx context.Context, s Step, action Action) Result {
	log := r.logger.With("step", s.Name, "env", s.Env)
	start := r.now()
	result := Result{Step: s.Name, Env: s.Env, StartedAt: start}

	log.Info("step started")
	err := action(ctx)
	result.Duration = r.now().Sub(start)

	if err == nil {
		result.Status = StatusPassed
		log.Info("step passed", "duration", result.Duration)
		return result
	}

	kind := s.Kind
	if kind == "" {
		kind = KindUnknown
	}
	result.Status = StatusFailed
	result.Err = Classify(err, kind)
	log.Error("step failed", "kind", result.Err.Kind, "error", result.Err.Message, "duration", result.Duration)
	if result.Err.PagePreview != "" {
		log.Debug("page preview", "text", result.Err.PagePreview)
	}

	result.Screenshot = r.capture(ctx, log, s)

	if AlertEligible(s.Name) && s.Target != nil {
		result.Alerted = r.alert(ctx, log, s, result.Err)
	}

	return result
}

func (r *Runner) capture(ctx context.Context, log *slog.Logger, s Step) string {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), captureTimeout)
	defer cancel()

	data, err := r.page.Screenshot(ctx)
	if err != nil {
		log.Warn("screenshot failed", "error", err)
		return ""
	}
	path, err := r.store.Save(ctx, data, diag.ScreenshotName(s.Env, s.Name, r.now()))
	if err != nil {
		log.Warn("saving screenshot failed", "error", err)
		return ""
	}
	log.Info("screenshot saved", "path", path)
	return path
}

func (r *Runner) alert(ctx context.Context, log *slog.Logger, s Step, info *ErrorInfo) bool {
	key := s.Target.Name + "/" + s.Name
	r.mu.Lock()
	if r.alerted[key] {
		r.mu.Unlock()
		log.Warn("alert already raised for this step in this run, skipping")
		return false
	}
	r.alerted[key] = true
	r.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			log.Error("alert dispatch panicked", "panic", p)
		}
	}()
	r.alerter.Dispatch(context.WithoutCancel(ctx), *s.Target, info.Error())
	return true
}
