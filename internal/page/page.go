// Package page defines the browser capability the monitoring flow drives.
//
// Controller is implemented by internal/browser on top of Playwright and by
// pagetest.Page for tests. Elements are addressed with Locator values rather
// than driver-specific selectors so the login and verification logic can run
// against any page model.
package page

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrTimeout is returned (wrapped) when a bounded wait elapses.
var ErrTimeout = errors.New("wait timed out")

// Wait policies for Navigate.
const (
	WaitLoad             = "load"
	WaitDOMContentLoaded = "domcontentloaded"
	WaitNetworkIdle      = "networkidle"
	WaitCommit           = "commit"
)

// NavigateOptions configures a page load.
type NavigateOptions struct {
	WaitUntil string
	Timeout   time.Duration
}

// Controller is the page-level capability consumed by the monitoring flow.
// A Controller owns a single page and is not safe for concurrent use.
type Controller interface {
	Navigate(ctx context.Context, url string, opts NavigateOptions) error
	WaitVisible(ctx context.Context, loc Locator, timeout time.Duration) error
	WaitHidden(ctx context.Context, loc Locator, timeout time.Duration) error
	Click(ctx context.Context, loc Locator) error
	// ScriptClick dispatches a click from inside the document, for elements a
	// pointer event cannot reach (overlapped or off-screen).
	ScriptClick(ctx context.Context, loc Locator) error
	Fill(ctx context.Context, loc Locator, text string) error
	// Text returns the rendered text of the whole document.
	Text(ctx context.Context) (string, error)
	WaitNetworkIdle(ctx context.Context, timeout time.Duration) error
	WaitNavigation(ctx context.Context, timeout time.Duration) error
	// Screenshot captures the full scrollable page as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
}

// Locator addresses an element by CSS, by visible text or by accessible role.
// Exactly one of CSS, Text, Role or Any is set.
type Locator struct {
	CSS  string
	Text string
	Role string
	Name string // accessible name, with Role
	Any  []Locator
	// Parent scopes the lookup to descendants of another element.
	Parent *Locator
}

func ByCSS(selector string) Locator { return Locator{CSS: selector} }

func ByText(text string) Locator { return Locator{Text: text} }

func ByRole(role, name string) Locator { return Locator{Role: role, Name: name} }

// AnyOf matches the first element matched by any of the alternatives.
func AnyOf(alts ...Locator) Locator { return Locator{Any: alts} }

// Within returns a copy of l scoped to parent.
func (l Locator) Within(parent Locator) Locator {
	l.Parent = &parent
	return l
}

// String renders the locator for logs, in a Playwright-like notation.
func (l Locator) String() string {
	var self string
	switch {
	case len(l.Any) > 0:
		parts := make([]string, len(l.Any))
		for i, a := range l.Any {
			parts[i] = a.String()
		}
		self = "(" + strings.Join(parts, " | ") + ")"
	case l.CSS != "":
		self = l.CSS
	case l.Role != "":
		self = fmt.Sprintf("role=%s[name=%q]", l.Role, l.Name)
	default:
		self = fmt.Sprintf("text=%q", l.Text)
	}
	if l.Parent != nil {
		return l.Parent.String() + " >> " + self
	}
	return self
}
