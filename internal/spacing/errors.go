package spacing

import "fmt"

// Store operations reported in errors.
const (
	OpWrite  = "write"
	OpRemove = "remove"
)

// Error reports a failed store operation for a single key.
type Error struct {
	Key   string
	Op    string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(key, op string, cause error) *Error {
	return &Error{Key: key, Op: op, Cause: cause}
}
