package step

import "time"

type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// Result captures the outcome of a single step. It is logged and handed back
// to the caller, never stored.
type Result struct {
	Step       string
	Env        string
	Status     Status
	StartedAt  time.Time
	Duration   time.Duration
	Err        *ErrorInfo
	Screenshot string // saved evidence path, if capture succeeded
	Alerted    bool
}

func (r Result) Failed() bool { return r.Status == StatusFailed }

// Error returns the failure as an error, or nil when the step passed.
func (r Result) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}
