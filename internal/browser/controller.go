package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/sznuper/portalwatch/internal/page"
)

var _ page.Controller = (*Session)(nil)

// Playwright calls are not context-aware; each method checks ctx before
// starting and relies on its own timeout to bound the call.

func (s *Session) Navigate(ctx context.Context, url string, opts page.NavigateOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gotoOpts := playwright.PageGotoOptions{}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		gotoOpts.WaitUntil = &waitUntil
	}
	if opts.Timeout > 0 {
		gotoOpts.Timeout = ms(opts.Timeout)
	}

	resp, err := s.page.Goto(url, gotoOpts)
	if err != nil {
		return fmt.Errorf("navigation failed: %w", translate(err))
	}
	if resp != nil && resp.Status() >= 500 {
		return fmt.Errorf("navigation failed: %s returned HTTP %d", url, resp.Status())
	}
	return nil
}

func (s *Session) WaitVisible(ctx context.Context, loc page.Locator, timeout time.Duration) error {
	return s.waitFor(ctx, loc, playwright.WaitForSelectorStateVisible, timeout)
}

func (s *Session) WaitHidden(ctx context.Context, loc page.Locator, timeout time.Duration) error {
	return s.waitFor(ctx, loc, playwright.WaitForSelectorStateHidden, timeout)
}

func (s *Session) waitFor(ctx context.Context, loc page.Locator, state *playwright.WaitForSelectorState, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.resolve(loc).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   state,
		Timeout: ms(timeout),
	})
	if err != nil {
		return fmt.Errorf("waiting for %s to be %s: %w", loc, *state, translate(err))
	}
	return nil
}

func (s *Session) Click(ctx context.Context, loc page.Locator) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.resolve(loc).First().Click(); err != nil {
		return fmt.Errorf("click %s: %w", loc, translate(err))
	}
	return nil
}

func (s *Session) ScriptClick(ctx context.Context, loc page.Locator) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.resolve(loc).First().Evaluate("el => el.click()", nil); err != nil {
		return fmt.Errorf("script click %s: %w", loc, translate(err))
	}
	return nil
}

func (s *Session) Fill(ctx context.Context, loc page.Locator, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.resolve(loc).First().Fill(text); err != nil {
		return fmt.Errorf("fill %s: %w", loc, translate(err))
	}
	return nil
}

func (s *Session) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := s.page.Locator("body").InnerText(playwright.LocatorInnerTextOptions{
		Timeout: ms(5 * time.Second),
	})
	if err != nil {
		return "", fmt.Errorf("text extraction failed: %w", translate(err))
	}
	return text, nil
}

func (s *Session) WaitNetworkIdle(ctx context.Context, timeout time.Duration) error {
	return s.waitLoadState(ctx, playwright.LoadStateNetworkidle, timeout)
}

// WaitNavigation waits for the document that follows a navigation to finish
// loading. It returns immediately when no navigation is in flight.
func (s *Session) WaitNavigation(ctx context.Context, timeout time.Duration) error {
	return s.waitLoadState(ctx, playwright.LoadStateLoad, timeout)
}

func (s *Session) waitLoadState(ctx context.Context, state *playwright.LoadState, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   state,
		Timeout: ms(timeout),
	})
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", *state, translate(err))
	}
	return nil
}

// Screenshot uses Playwright's fullPage capture at the fixed viewport width,
// which stitches the whole scrollable height without resizing the viewport.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Type:     playwright.ScreenshotTypePng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", translate(err))
	}
	return data, nil
}

// resolve builds the Playwright locator for loc.
func (s *Session) resolve(loc page.Locator) playwright.Locator {
	if len(loc.Any) > 0 {
		combined := s.resolve(scoped(loc.Any[0], loc.Parent))
		for _, alt := range loc.Any[1:] {
			combined = combined.Or(s.resolve(scoped(alt, loc.Parent)))
		}
		return combined
	}
	if loc.Parent != nil {
		return s.resolve(*loc.Parent).Locator(selector(loc))
	}
	return s.page.Locator(selector(loc))
}

func scoped(loc page.Locator, parent *page.Locator) page.Locator {
	if parent != nil && loc.Parent == nil {
		return loc.Within(*parent)
	}
	return loc
}

// selector renders a single (non-Any, unscoped) locator in Playwright's
// selector syntax.
func selector(loc page.Locator) string {
	switch {
	case loc.CSS != "":
		return loc.CSS
	case loc.Role != "" && loc.Name != "":
		return fmt.Sprintf("role=%s[name=%s]", loc.Role, strconv.Quote(loc.Name))
	case loc.Role != "":
		return "role=" + loc.Role
	default:
		return fmt.Sprintf(":text(%s)", strconv.Quote(loc.Text))
	}
}

func translate(err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", page.ErrTimeout, err)
	}
	return err
}

func ms(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}
