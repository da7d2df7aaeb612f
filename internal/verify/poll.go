// Package verify confirms that a rendered page shows its expected marker.
package verify

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"
)

// OutcomeKind tags the result of PollUntil.
type OutcomeKind int

const (
	Success OutcomeKind = iota
	FatalMatch
	TimedOut
	Cancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case FatalMatch:
		return "fatal_match"
	case TimedOut:
		return "timed_out"
	default:
		return "cancelled"
	}
}

// Outcome is the tagged result of a poll. Match is the needle that ended the
// poll; Text is the last text fetched successfully; LastErr is the last fetch
// error, if any.
type Outcome struct {
	Kind    OutcomeKind
	Match   string
	Text    string
	Elapsed time.Duration
	Polls   int
	LastErr error
}

// TextSource fetches the current document text.
type TextSource func(ctx context.Context) (string, error)

// Matcher reports whether text matches and which needle matched.
type Matcher func(text string) (string, bool)

// Contains matches when text contains any of the non-empty needles.
func Contains(needles ...string) Matcher {
	return func(text string) (string, bool) {
		for _, n := range needles {
			if n != "" && strings.Contains(text, n) {
				return n, true
			}
		}
		return "", false
	}
}

// MinInterval is the polling period used when none is given.
const MinInterval = 10 * time.Millisecond

// PollUntil fetches text every interval until success matches, fatal matches,
// the deadline elapses or ctx is done. Within one tick success is evaluated
// before fatal, so stale error text elsewhere on a healthy page is ignored.
// Fetch errors count as a tick without a match. fatal may be nil. A
// non-positive interval polls every MinInterval.
func PollUntil(ctx context.Context, src TextSource, success, fatal Matcher, interval, deadline time.Duration) Outcome {
	if interval <= 0 {
		interval = MinInterval
	}
	start := time.Now()
	pollCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var out Outcome
	for {
		text, err := src(pollCtx)
		out.Polls++
		if err != nil {
			out.LastErr = err
		} else {
			out.Text = text
			if m, ok := success(text); ok {
				out.Kind, out.Match, out.Elapsed = Success, m, time.Since(start)
				return out
			}
			if fatal != nil {
				if m, ok := fatal(text); ok {
					out.Kind, out.Match, out.Elapsed = FatalMatch, m, time.Since(start)
					return out
				}
			}
		}

		select {
		case <-pollCtx.Done():
			out.Kind = TimedOut
			if ctx.Err() != nil {
				out.Kind = Cancelled
			}
			out.Elapsed = time.Since(start)
			return out
		case <-ticker.C:
		}
	}
}

// Preview collapses whitespace in text and truncates it to n runes.
func Preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "…"
}
