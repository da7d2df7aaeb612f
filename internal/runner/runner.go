// Package runner drives the monitoring run: every target, one after another,
// through Navigate, Login and Verify.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/sznuper/portalwatch/internal/config"
	"github.com/sznuper/portalwatch/internal/login"
	"github.com/sznuper/portalwatch/internal/page"
	"github.com/sznuper/portalwatch/internal/step"
	"github.com/sznuper/portalwatch/internal/target"
	"github.com/sznuper/portalwatch/internal/verify"
)

// Runner orchestrates the navigate → login → verify pipeline for each target
// on a single page.
type Runner struct {
	page      page.Controller
	steps     *step.Runner
	verifier  *verify.Verifier
	nav       page.NavigateOptions
	selectors login.Selectors
	timeouts  login.Timeouts
	creds     login.Credentials
	logger    *slog.Logger
}

// New creates a Runner from the config. steps must wrap the same page p.
func New(cfg *config.Config, p page.Controller, steps *step.Runner, logger *slog.Logger) *Runner {
	return &Runner{
		page:     p,
		steps:    steps,
		verifier: verify.New(verify.SettingsFromConfig(cfg.Verify), logger),
		nav: page.NavigateOptions{
			WaitUntil: cfg.Browser.WaitUntil,
			Timeout:   cfg.Browser.NavigationTimeout.Std(),
		},
		selectors: login.SelectorsFromConfig(cfg.Login),
		timeouts:  login.TimeoutsFromConfig(cfg.Login),
		creds:     login.Credentials{ID: cfg.Credentials.ID, Secret: cfg.Credentials.Secret},
		logger:    logger,
	}
}

// RunAll checks every target sequentially. A failing target never stops the
// loop; cancelling ctx does.
func (r *Runner) RunAll(ctx context.Context, targets []target.Target) []Result {
	results := make([]Result, 0, len(targets))
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("run cancelled, skipping remaining targets", "error", err)
			break
		}
		results = append(results, r.RunTarget(ctx, t))
	}
	return results
}

// RunTarget executes the step sequence for t. The first failing step skips
// the rest. A panic is recovered and recorded as an Unknown failure.
func (r *Runner) RunTarget(ctx context.Context, t target.Target) (result Result) {
	log := r.logger.With("env", t.Env, "target", t.Name)
	start := time.Now()
	result.Target = t

	defer func() {
		if p := recover(); p != nil {
			log.Error("target check panicked", "panic", p, "stack", string(debug.Stack()))
			result.Err = step.Errorf(step.KindUnknown, "panic: %v", p)
			result.Panicked = true
		}
		result.Duration = time.Since(start)
		if result.Failed() {
			log.Error("target failed", "step", result.ErrStep, "kind", result.Err.Kind, "duration", result.Duration)
		} else {
			log.Info("target passed", "duration", result.Duration)
		}
	}()

	log.Info("checking target", "url", t.URL)

	pipeline := []struct {
		step   step.Step
		action step.Action
	}{
		{
			step: step.Step{Name: step.Navigate, Env: t.Env, Kind: step.KindNavigation},
			action: func(ctx context.Context) error {
				return r.page.Navigate(ctx, t.URL, r.nav)
			},
		},
		{
			step: step.Step{Name: step.Login, Env: t.Env, Kind: step.KindLogin},
			action: func(ctx context.Context) error {
				return login.NewFlow(r.page, r.selectors, r.timeouts, r.creds, log).Run(ctx)
			},
		},
		{
			step: step.Step{Name: step.Verify, Env: t.Env, Target: &t, Kind: step.KindTimeout},
			action: func(ctx context.Context) error {
				return r.verifier.Verify(ctx, r.page, t)
			},
		},
	}

	for _, p := range pipeline {
		sr := r.steps.Run(ctx, p.step, p.action)
		result.Steps = append(result.Steps, sr)
		if sr.Failed() {
			result.Err = sr.Err
			result.ErrStep = sr.Step
			if len(result.Steps) < len(pipeline) {
				log.Warn("skipping remaining steps", "after", sr.Step)
			}
			return result
		}
	}
	return result
}

// Summary counts passed and failed targets.
func Summary(results []Result) (passed, failed int) {
	for _, res := range results {
		if res.Failed() {
			failed++
		} else {
			passed++
		}
	}
	return passed, failed
}

// Describe is a one-line account of a result for terminal output.
func Describe(res Result) string {
	if !res.Failed() {
		return fmt.Sprintf("%s (%s): passed in %s", res.Target.Name, res.Target.Env, res.Duration.Round(time.Millisecond))
	}
	where := res.ErrStep
	if where == "" {
		where = "run"
	}
	return fmt.Sprintf("%s (%s): %s failed: %s", res.Target.Name, res.Target.Env, where, res.Err.Error())
}
