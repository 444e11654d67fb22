package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/barspacing/internal/events"
	"github.com/smazurov/barspacing/internal/logging"
)

// Default timeouts for Controller.
const (
	DefaultEscalationTimeout = 1 * time.Second
	DefaultKillTimeout       = 5 * time.Second
)

// Controller drives a single process to a confirmed terminated state.
type Controller struct {
	registry          Registry
	logger            *slog.Logger
	bus               *events.Bus
	onStateChange     StateChangeCallback
	escalationTimeout time.Duration // wait after quit before forcing
	killTimeout       time.Duration // wait after forcing before giving up, <= 0 waits forever
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithEscalationTimeout sets how long a process gets to quit on its own.
func WithEscalationTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.escalationTimeout = d
	}
}

// WithKillTimeout sets how long to wait for termination after forcing it.
// Zero or negative waits indefinitely.
func WithKillTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.killTimeout = d
	}
}

// WithControllerLogger sets the logger.
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithControllerBus publishes quit and escalation events on bus.
func WithControllerBus(bus *events.Bus) ControllerOption {
	return func(c *Controller) {
		c.bus = bus
	}
}

// WithStateChange registers a callback for quit, escalation and termination.
func WithStateChange(cb StateChangeCallback) ControllerOption {
	return func(c *Controller) {
		c.onStateChange = cb
	}
}

// NewController creates a controller over registry.
func NewController(registry Registry, opts ...ControllerOption) *Controller {
	c := &Controller{
		registry:          registry,
		logger:            logging.GetLogger("process"),
		escalationTimeout: DefaultEscalationTimeout,
		killTimeout:       DefaultKillTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Terminate asks d to quit and returns once termination is confirmed.
// If d does not quit within the escalation timeout it is force terminated
// exactly once. Returns ErrTerminationTimeout if it is still alive after the
// kill timeout, or the context error if ctx ends first.
func (c *Controller) Terminate(ctx context.Context, d *Descriptor) error {
	logger := c.logger.With("process", d)

	if d.Terminated() {
		logger.Debug("Process already terminated")
		return nil
	}

	// Subscribe before checking so an exit in between is not missed.
	sub := c.registry.WatchTermination(d.PID)
	defer sub.Close()

	if c.registry.IsTerminated(ctx, d.PID) {
		logger.Debug("Process already terminated")
		d.MarkTerminated()
		return nil
	}

	logger.Info("Signaling process to quit")
	c.transition(d, StateRunning, StateQuitRequested, nil)
	c.bus.Publish(events.ProcessQuitRequestedEvent{
		PID:       d.PID,
		Name:      d.DisplayName(),
		BundleID:  d.BundleID,
		Timestamp: time.Now(),
	})

	if err := c.registry.Quit(ctx, d.PID); err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Debug("Process exited before quit was delivered")
			c.confirm(d, StateQuitRequested)
			return nil
		}
		// Keep going: escalation still applies.
		logger.Warn("Failed to signal process to quit", "error", err)
	}

	timer := time.NewTimer(c.escalationTimeout)
	defer timer.Stop()

	select {
	case <-sub.Done():
		c.confirm(d, StateQuitRequested)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	if c.registry.IsTerminated(ctx, d.PID) {
		c.confirm(d, StateQuitRequested)
		return nil
	}

	logger.Warn("Process did not quit in time, forcing termination", "timeout", c.escalationTimeout)
	c.transition(d, StateQuitRequested, StateEscalated, nil)
	c.bus.Publish(events.ProcessEscalatedEvent{
		PID:       d.PID,
		Name:      d.DisplayName(),
		BundleID:  d.BundleID,
		Waited:    c.escalationTimeout,
		Timestamp: time.Now(),
	})

	if err := c.registry.ForceTerminate(ctx, d.PID); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.confirm(d, StateEscalated)
			return nil
		}
		logger.Error("Failed to force terminate process", "error", err)
	}

	var killTimeout <-chan time.Time
	if c.killTimeout > 0 {
		killTimer := time.NewTimer(c.killTimeout)
		defer killTimer.Stop()
		killTimeout = killTimer.C
	}

	select {
	case <-sub.Done():
		c.confirm(d, StateEscalated)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-killTimeout:
		err := fmt.Errorf("%s: %w", d.DisplayName(), ErrTerminationTimeout)
		logger.Error("Process did not exit after forced termination", "timeout", c.killTimeout)
		c.transition(d, StateEscalated, StateFailed, err)
		return err
	}
}

func (c *Controller) confirm(d *Descriptor, from State) {
	d.MarkTerminated()
	c.logger.Debug("Process terminated", "process", d)
	c.transition(d, from, StateTerminated, nil)
}

func (c *Controller) transition(d *Descriptor, from, to State, err error) {
	if c.onStateChange != nil {
		c.onStateChange(d, from, to, err)
	}
}
