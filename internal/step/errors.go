package step

import (
	"errors"
	"fmt"
)

// Kind classifies a step failure.
type Kind string

const (
	KindTimeout    Kind = "Timeout"
	KindFatalPage  Kind = "FatalPageError"
	KindNavigation Kind = "NavigationError"
	KindLogin      Kind = "LoginFlowError"
	KindUnknown    Kind = "Unknown"
)

// ErrorInfo is a classified step failure. PagePreview holds the start of the
// page text when the failure was observed, if it was available.
type ErrorInfo struct {
	Kind        Kind
	Message     string
	PagePreview string
	Err         error
}

func (e *ErrorInfo) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.PagePreview != "" {
		msg += fmt.Sprintf(" (page: %q)", e.PagePreview)
	}
	return msg
}

func (e *ErrorInfo) Unwrap() error { return e.Err }

// Errorf builds an ErrorInfo of the given kind. A trailing %w operand is kept
// as the wrapped cause.
func Errorf(kind Kind, format string, args ...any) *ErrorInfo {
	err := fmt.Errorf(format, args...)
	return &ErrorInfo{Kind: kind, Message: err.Error(), Err: errors.Unwrap(err)}
}

// Classify returns err as an ErrorInfo. Unclassified errors become
// fallback-kind failures wrapping err.
func Classify(err error, fallback Kind) *ErrorInfo {
	if err == nil {
		return nil
	}
	var info *ErrorInfo
	if errors.As(err, &info) {
		return info
	}
	return &ErrorInfo{Kind: fallback, Message: err.Error(), Err: err}
}

// IsKind reports whether err is an ErrorInfo of the given kind.
func IsKind(err error, kind Kind) bool {
	var info *ErrorInfo
	return errors.As(err, &info) && info.Kind == kind
}
