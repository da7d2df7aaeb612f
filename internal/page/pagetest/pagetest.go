// Package pagetest provides a scripted page.Controller for tests.
package pagetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sznuper/portalwatch/internal/page"
)

// Frame is the page text from At onwards, relative to the first Text call.
type Frame struct {
	At   time.Duration
	Text string
}

// Page is an in-memory page.Controller. Elements listed in Visible (keyed by
// Locator.String()) are present; everything else times out immediately.
// Document text follows Frames.
type Page struct {
	mu sync.Mutex

	Visible map[string]bool
	Frames  []Frame

	NavigateErr   error
	TextErr       error
	IdleErr       error
	NavWaitErr    error
	HiddenErr     error
	ScreenshotErr error
	// Errs fails a specific call, keyed "<op> <locator>" (e.g. "fill input").
	Errs map[string]error

	Screenshots int
	calls       []string
	filled      map[string]string
	textStart   time.Time
}

// New returns a page with the given visible locators.
func New(visible ...page.Locator) *Page {
	p := &Page{Visible: make(map[string]bool), Errs: make(map[string]error), filled: make(map[string]string)}
	for _, l := range visible {
		p.Visible[l.String()] = true
	}
	return p
}

// WithText sets a static document text.
func (p *Page) WithText(text string) *Page {
	p.Frames = []Frame{{Text: text}}
	return p
}

// WithFrames sets a text timeline.
func (p *Page) WithFrames(frames ...Frame) *Page {
	sort.SliceStable(frames, func(i, j int) bool { return frames[i].At < frames[j].At })
	p.Frames = frames
	return p
}

// Calls returns the recorded operations in order.
func (p *Page) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Filled returns the value typed into loc.
func (p *Page) Filled(loc page.Locator) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filled[loc.String()]
}

func (p *Page) record(op string, loc page.Locator) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := op + " " + loc.String()
	p.calls = append(p.calls, key)
	return p.Errs[key]
}

func (p *Page) visible(loc page.Locator) bool {
	if p.Visible[loc.String()] {
		return true
	}
	if loc.Parent == nil {
		for _, alt := range loc.Any {
			if p.Visible[alt.String()] {
				return true
			}
		}
	}
	return false
}

func (p *Page) Navigate(ctx context.Context, url string, _ page.NavigateOptions) error {
	p.mu.Lock()
	p.calls = append(p.calls, "navigate "+url)
	p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.NavigateErr
}

func (p *Page) WaitVisible(ctx context.Context, loc page.Locator, timeout time.Duration) error {
	if err := p.record("wait", loc); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.visible(loc) {
		return fmt.Errorf("waiting for %s: %w after %s", loc, page.ErrTimeout, timeout)
	}
	return nil
}

func (p *Page) WaitHidden(ctx context.Context, loc page.Locator, _ time.Duration) error {
	if err := p.record("hidden", loc); err != nil {
		return err
	}
	return p.HiddenErr
}

func (p *Page) Click(_ context.Context, loc page.Locator) error {
	return p.record("click", loc)
}

func (p *Page) ScriptClick(_ context.Context, loc page.Locator) error {
	return p.record("scriptclick", loc)
}

func (p *Page) Fill(_ context.Context, loc page.Locator, text string) error {
	if err := p.record("fill", loc); err != nil {
		return err
	}
	p.mu.Lock()
	p.filled[loc.String()] = text
	p.mu.Unlock()
	return nil
}

func (p *Page) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.textStart.IsZero() {
		p.textStart = time.Now()
	}
	if p.TextErr != nil {
		return "", p.TextErr
	}
	elapsed := time.Since(p.textStart)
	var text string
	for _, f := range p.Frames {
		if f.At > elapsed {
			break
		}
		text = f.Text
	}
	return text, nil
}

func (p *Page) WaitNetworkIdle(context.Context, time.Duration) error { return p.IdleErr }

func (p *Page) WaitNavigation(context.Context, time.Duration) error { return p.NavWaitErr }

func (p *Page) Screenshot(context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ScreenshotErr != nil {
		return nil, p.ScreenshotErr
	}
	p.Screenshots++
	return []byte("\x89PNG fake"), nil
}

var _ page.Controller = (*Page)(nil)
