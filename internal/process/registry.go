package process

import (
	"context"
	"errors"
)

// Sentinel errors.
var (
	// ErrNotFound means no process with the given pid exists.
	ErrNotFound = errors.New("process not found")

	// ErrTerminationTimeout means a process was still alive after forced
	// termination and the kill timeout elapsed.
	ErrTerminationTimeout = errors.New("process did not terminate after forced termination")

	// ErrMissingLocation means a process cannot be relaunched because its
	// bundle identifier or on-disk location is unknown.
	ErrMissingLocation = errors.New("process has no launchable location")
)

// Registry is the host's running-process registry.
type Registry interface {
	// Lookup resolves a pid. Returns ErrNotFound if it is not running.
	Lookup(ctx context.Context, pid int) (*Descriptor, error)

	// FindByBundleID returns every running process with the bundle id.
	FindByBundleID(ctx context.Context, bundleID string) ([]*Descriptor, error)

	// IsTerminated reports whether pid is gone.
	IsTerminated(ctx context.Context, pid int) bool

	// Quit asks pid to exit. Returns ErrNotFound if it is already gone.
	Quit(ctx context.Context, pid int) error

	// ForceTerminate kills pid. Returns ErrNotFound if it is already gone.
	ForceTerminate(ctx context.Context, pid int) error

	// WatchTermination returns a subscription resolved when pid is observed
	// terminated. The caller must Close it.
	WatchTermination(pid int) *Subscription
}
