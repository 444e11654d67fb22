package relaunch

import (
	"context"
	"log/slog"
	"time"

	"github.com/smazurov/barspacing/internal/events"
	"github.com/smazurov/barspacing/internal/menubar"
	"github.com/smazurov/barspacing/internal/process"
)

// Defaults.
const (
	DefaultSettleDelay       = 100 * time.Millisecond
	DefaultDeferredServiceID = "com.apple.controlcenter"
)

// DefaultSelfRelaunchingIDs lists components that restart themselves when
// they quit.
var DefaultSelfRelaunchingIDs = []string{"com.apple.SystemUIServer"}

// OffsetWriter persists a spacing offset.
type OffsetWriter interface {
	Apply(ctx context.Context, offset int) error
}

// Terminator drives a process to confirmed termination.
type Terminator interface {
	Terminate(ctx context.Context, d *process.Descriptor) error
}

// Launcher starts a terminated process again.
type Launcher interface {
	Launch(ctx context.Context, d *process.Descriptor) error
}

// Options configures an Orchestrator. Writer, Enumerator and Registry are
// required, as is Starter unless Launcher is set.
type Options struct {
	Writer     OffsetWriter
	Enumerator menubar.Enumerator
	Registry   process.Registry
	Starter    process.Starter

	// Terminator and Launcher replace the default process.Controller and
	// process.Launcher built from Registry and Starter.
	Terminator Terminator
	Launcher   Launcher

	// SettleDelay is the pause after writing the configuration and before
	// quitting the deferred service. Zero uses DefaultSettleDelay, negative
	// disables it.
	SettleDelay time.Duration

	EscalationTimeout time.Duration // zero uses process.DefaultEscalationTimeout
	KillTimeout       time.Duration // zero uses process.DefaultKillTimeout, negative waits forever

	DeferredServiceID  string   // empty uses DefaultDeferredServiceID
	SelfRelaunchingIDs []string // nil uses DefaultSelfRelaunchingIDs
	SelfPID            int      // zero uses os.Getpid()

	// MaxConcurrency bounds the fan-out. Zero or negative is unbounded.
	MaxConcurrency int

	Bus           *events.Bus
	Logger        *slog.Logger
	OnStateChange process.StateChangeCallback
}
