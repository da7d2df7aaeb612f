package runner

import (
	"time"

	"github.com/sznuper/portalwatch/internal/step"
	"github.com/sznuper/portalwatch/internal/target"
)

// Result captures the outcome of checking one target. Failures are stored in
// Err rather than returned, so the caller always has something to display.
type Result struct {
	Target   target.Target
	Steps    []step.Result
	Duration time.Duration
	// Err is the first failure: a failed step's error, or an Unknown error
	// for a recovered panic.
	Err *step.ErrorInfo
	// ErrStep names the step that failed; empty for a panic outside a step.
	ErrStep  string
	Panicked bool
}

func (r Result) Failed() bool { return r.Err != nil }

// Alerted reports whether any step of this target raised an alert.
func (r Result) Alerted() bool {
	for _, s := range r.Steps {
		if s.Alerted {
			return true
		}
	}
	return false
}
