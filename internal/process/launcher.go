package process

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/barspacing/internal/events"
	"github.com/smazurov/barspacing/internal/logging"
)

// LaunchOptions controls how a process is started. The zero value is what
// relaunching wants: start in the background, leave no trace in recent items,
// never create a second instance and never prompt the user.
type LaunchOptions struct {
	Activate          bool
	AddToRecents      bool
	CreateNewInstance bool
	PromptsUser       bool
}

// Starter starts a process from d.Location.
type Starter interface {
	Start(ctx context.Context, d *Descriptor, opts LaunchOptions) error
}

// StarterFunc adapts a function to Starter.
type StarterFunc func(ctx context.Context, d *Descriptor, opts LaunchOptions) error

// Start implements Starter.
func (f StarterFunc) Start(ctx context.Context, d *Descriptor, opts LaunchOptions) error {
	return f(ctx, d, opts)
}

// Launcher relaunches processes, skipping those already running.
type Launcher struct {
	registry Registry
	starter  Starter
	opts     LaunchOptions
	logger   *slog.Logger
	bus      *events.Bus
}

// LauncherOption configures a Launcher.
type LauncherOption func(*Launcher)

// WithLaunchOptions overrides the launch flags.
func WithLaunchOptions(opts LaunchOptions) LauncherOption {
	return func(l *Launcher) {
		l.opts = opts
	}
}

// WithLauncherLogger sets the logger.
func WithLauncherLogger(logger *slog.Logger) LauncherOption {
	return func(l *Launcher) {
		l.logger = logger
	}
}

// WithLauncherBus publishes relaunch events on bus.
func WithLauncherBus(bus *events.Bus) LauncherOption {
	return func(l *Launcher) {
		l.bus = bus
	}
}

// NewLauncher creates a launcher.
func NewLauncher(registry Registry, starter Starter, opts ...LauncherOption) *Launcher {
	l := &Launcher{
		registry: registry,
		starter:  starter,
		logger:   logging.GetLogger("process"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Launch starts d again. If any process with d's bundle id is already
// running nothing is started and Launch succeeds.
func (l *Launcher) Launch(ctx context.Context, d *Descriptor) error {
	logger := l.logger.With("process", d)

	if d.BundleID != "" {
		running, err := l.registry.FindByBundleID(ctx, d.BundleID)
		if err != nil {
			logger.Warn("Failed to check for running instances", "error", err)
		} else if len(running) > 0 {
			logger.Debug("Process already running, skipping launch", "running_pid", running[0].PID)
			l.publish(d, true)
			return nil
		}
	}

	if d.BundleID == "" || d.Location == "" {
		return fmt.Errorf("%s: %w", d.DisplayName(), ErrMissingLocation)
	}

	logger.Info("Launching process", "location", d.Location)
	if err := l.starter.Start(ctx, d, l.opts); err != nil {
		return fmt.Errorf("failed to launch %s: %w", d.DisplayName(), err)
	}

	l.publish(d, false)
	return nil
}

func (l *Launcher) publish(d *Descriptor, alreadyRunning bool) {
	l.bus.Publish(events.ProcessRelaunchedEvent{
		PID:            d.PID,
		Name:           d.DisplayName(),
		BundleID:       d.BundleID,
		AlreadyRunning: alreadyRunning,
		Timestamp:      time.Now(),
	})
}
