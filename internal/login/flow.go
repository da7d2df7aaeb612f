// Package login drives the portal's authentication form.
package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sznuper/portalwatch/internal/config"
	"github.com/sznuper/portalwatch/internal/page"
	"github.com/sznuper/portalwatch/internal/step"
)

// State is a position in the login sequence.
type State int

const (
	Idle State = iota
	ButtonLocated
	AuthMethodSelected
	CredentialsEntered
	Submitted
	DialogDismissed
	Complete
)

var stateNames = [...]string{
	Idle:               "Idle",
	ButtonLocated:      "ButtonLocated",
	AuthMethodSelected: "AuthMethodSelected",
	CredentialsEntered: "CredentialsEntered",
	Submitted:          "Submitted",
	DialogDismissed:    "DialogDismissed",
	Complete:           "Complete",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Credentials are the identifier and secret typed into the form.
type Credentials struct {
	ID     string
	Secret string
}

// Selectors locate the elements of the login UI.
type Selectors struct {
	// Button opens the login dialog (any of the labels, button or link).
	Button page.Locator
	// PasswordMethod switches the dialog to password authentication. Optional.
	PasswordMethod page.Locator
	ID             page.Locator
	Password       page.Locator
	Submit         page.Locator
	Dialog         page.Locator
}

// Timeouts bounds each wait of the flow.
type Timeouts struct {
	Button time.Duration
	Method time.Duration
	Form   time.Duration
	Settle time.Duration
}

// SelectorsFromConfig builds locators from the login config section. The
// submit control is scoped to the dialog so a same-labelled control elsewhere
// on the page is never chosen.
func SelectorsFromConfig(c config.Login) Selectors {
	var alts []page.Locator
	for _, label := range c.ButtonLabels {
		alts = append(alts, page.ByRole("button", label), page.ByRole("link", label))
	}
	dialog := page.ByCSS(c.DialogSelector)
	return Selectors{
		Button:         page.AnyOf(alts...),
		PasswordMethod: page.ByRole("button", c.PasswordMethodLabel).Within(dialog),
		ID:             page.ByCSS(c.IDSelector),
		Password:       page.ByCSS(c.PasswordSelector),
		Submit:         page.ByRole("button", c.SubmitLabel).Within(dialog),
		Dialog:         dialog,
	}
}

// TimeoutsFromConfig extracts the login timeouts.
func TimeoutsFromConfig(c config.Login) Timeouts {
	return Timeouts{
		Button: c.ButtonTimeout.Std(),
		Method: c.MethodTimeout.Std(),
		Form:   c.FormTimeout.Std(),
		Settle: c.SettleTimeout.Std(),
	}
}

// Flow is the login state machine. A Flow is used for one login attempt.
type Flow struct {
	page     page.Controller
	sel      Selectors
	timeouts Timeouts
	creds    Credentials
	logger   *slog.Logger

	state State
	trace []State
}

func NewFlow(p page.Controller, sel Selectors, timeouts Timeouts, creds Credentials, logger *slog.Logger) *Flow {
	return &Flow{
		page:     p,
		sel:      sel,
		timeouts: timeouts,
		creds:    creds,
		logger:   logger,
		state:    Idle,
		trace:    []State{Idle},
	}
}

// State returns the last state reached.
func (f *Flow) State() State { return f.state }

// Trace returns every state visited, in order.
func (f *Flow) Trace() []State { return append([]State(nil), f.trace...) }

func (f *Flow) enter(s State) {
	f.state = s
	f.trace = append(f.trace, s)
	f.logger.Debug("login state", "state", s)
}

// fail reports a required transition that could not be made from the current state.
func (f *Flow) fail(next State, err error) error {
	return step.Errorf(step.KindLogin, "%s -> %s: %w", f.state, next, err)
}

// Run performs the login. Failures of required transitions are returned as
// LoginFlowError; the optional method tab, dialog dismissal and navigation
// waits never fail the flow.
func (f *Flow) Run(ctx context.Context) error {
	if f.state != Idle {
		return fmt.Errorf("login flow already used (state %s)", f.state)
	}

	if err := f.page.WaitVisible(ctx, f.sel.Button, f.timeouts.Button); err != nil {
		return f.fail(ButtonLocated, err)
	}
	if err := f.page.Click(ctx, f.sel.Button); err != nil {
		return f.fail(ButtonLocated, err)
	}
	f.enter(ButtonLocated)

	f.selectPasswordMethod(ctx)

	if err := f.page.WaitVisible(ctx, f.sel.Password, f.timeouts.Form); err != nil {
		return f.fail(CredentialsEntered, err)
	}
	if err := f.page.Fill(ctx, f.sel.ID, f.creds.ID); err != nil {
		return f.fail(CredentialsEntered, err)
	}
	if err := f.page.Fill(ctx, f.sel.Password, f.creds.Secret); err != nil {
		return f.fail(CredentialsEntered, err)
	}
	f.enter(CredentialsEntered)

	if err := f.page.ScriptClick(ctx, f.sel.Submit); err != nil {
		return f.fail(Submitted, err)
	}
	f.enter(Submitted)

	f.settle(ctx)

	f.enter(Complete)
	return nil
}

func (f *Flow) selectPasswordMethod(ctx context.Context) {
	if err := f.page.WaitVisible(ctx, f.sel.PasswordMethod, f.timeouts.Method); err != nil {
		f.logger.Debug("password method tab not shown, continuing", "error", err)
		return
	}
	if err := f.page.Click(ctx, f.sel.PasswordMethod); err != nil {
		f.logger.Warn("password method tab click failed, continuing", "error", err)
		return
	}
	f.enter(AuthMethodSelected)
}

// settle waits for the dialog to close and the page to load. Both waits share
// one Settle budget.
func (f *Flow) settle(ctx context.Context) {
	start := time.Now()
	hiddenErr := f.page.WaitHidden(ctx, f.sel.Dialog, f.timeouts.Settle)
	if hiddenErr != nil {
		f.logger.Warn("login dialog still present", "error", hiddenErr)
	}

	remaining := f.timeouts.Settle - time.Since(start)
	if remaining <= 0 {
		f.logger.Warn("settle budget spent, not waiting for post-login navigation", "timeout", f.timeouts.Settle)
	} else if navErr := f.page.WaitNavigation(ctx, remaining); navErr != nil && !errors.Is(navErr, page.ErrTimeout) {
		f.logger.Warn("waiting for post-login navigation failed", "error", navErr)
	}
	if hiddenErr == nil {
		f.enter(DialogDismissed)
	}
}
