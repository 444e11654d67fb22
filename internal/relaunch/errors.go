package relaunch

import (
	"fmt"
	"strings"
)

// Error codes.
const (
	ErrCodeConfigWrite  = "CONFIG_WRITE_FAILED"
	ErrCodeDiscovery    = "DISCOVERY_FAILED"
	ErrCodeRelaunch     = "RELAUNCH_FAILED"
	ErrCodeServiceQuit  = "SERVICE_QUIT_FAILED"
	ErrCodeInvalidSetup = "INVALID_SETUP"
	ErrCodeCanceled     = "CANCELED" // ctx ended during the apply
)

// RecoverySuggestion is attached to every GroupedFailure.
const RecoverySuggestion = "You may need to log out for the changes to take effect."

// Error is a failure that stopped ApplyOffset before any process was touched.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Failure records one process that did not relaunch cleanly.
type Failure struct {
	Name string
	PID  int
	Code string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s (pid %d): %v", f.Name, f.PID, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// GroupedFailure reports every process that failed during one ApplyOffset
// call.
type GroupedFailure struct {
	FailedNames        []string
	RecoverySuggestion string
	Failures           []Failure
}

func (g *GroupedFailure) Error() string {
	return fmt.Sprintf("failed to relaunch %s. %s", strings.Join(g.FailedNames, ", "), g.RecoverySuggestion)
}

// Unwrap exposes each recorded failure to errors.Is and errors.As.
func (g *GroupedFailure) Unwrap() []error {
	errs := make([]error, len(g.Failures))
	for i, f := range g.Failures {
		errs[i] = f
	}
	return errs
}
