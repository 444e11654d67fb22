package relaunch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/smazurov/barspacing/internal/events"
	"github.com/smazurov/barspacing/internal/logging"
	"github.com/smazurov/barspacing/internal/menubar"
	"github.com/smazurov/barspacing/internal/process"
)

// discoveryOptions selects menu-bar items on the active space, including
// those currently hidden.
var discoveryOptions = menubar.ListOptions{OnScreenOnly: false, ActiveSpaceOnly: true}

// Orchestrator applies spacing offsets. It holds no per-call state, so
// concurrent ApplyOffset calls are safe but will fight over the same
// processes.
type Orchestrator struct {
	writer     OffsetWriter
	enumerator menubar.Enumerator
	registry   process.Registry
	terminator Terminator
	launcher   Launcher

	settleDelay     time.Duration
	deferredService string
	selfRelaunching map[string]bool
	selfPID         int
	maxConcurrency  int

	bus           *events.Bus
	logger        *slog.Logger
	onStateChange process.StateChangeCallback
}

// New creates an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	switch {
	case opts.Writer == nil:
		return nil, newError(ErrCodeInvalidSetup, "writer is required", nil)
	case opts.Enumerator == nil:
		return nil, newError(ErrCodeInvalidSetup, "enumerator is required", nil)
	case opts.Registry == nil:
		return nil, newError(ErrCodeInvalidSetup, "registry is required", nil)
	case opts.Launcher == nil && opts.Starter == nil:
		return nil, newError(ErrCodeInvalidSetup, "starter or launcher is required", nil)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger("relaunch")
	}

	o := &Orchestrator{
		writer:          opts.Writer,
		enumerator:      opts.Enumerator,
		registry:        opts.Registry,
		terminator:      opts.Terminator,
		launcher:        opts.Launcher,
		settleDelay:     opts.SettleDelay,
		deferredService: opts.DeferredServiceID,
		selfRelaunching: make(map[string]bool),
		selfPID:         opts.SelfPID,
		maxConcurrency:  opts.MaxConcurrency,
		bus:             opts.Bus,
		logger:          logger,
		onStateChange:   opts.OnStateChange,
	}

	if o.settleDelay == 0 {
		o.settleDelay = DefaultSettleDelay
	}
	if o.deferredService == "" {
		o.deferredService = DefaultDeferredServiceID
	}
	if o.selfPID == 0 {
		o.selfPID = os.Getpid()
	}

	ids := opts.SelfRelaunchingIDs
	if ids == nil {
		ids = DefaultSelfRelaunchingIDs
	}
	for _, id := range ids {
		o.selfRelaunching[id] = true
	}

	if o.terminator == nil {
		copts := []process.ControllerOption{
			process.WithControllerLogger(logging.GetLogger("process")),
			process.WithControllerBus(opts.Bus),
			process.WithStateChange(opts.OnStateChange),
		}
		if opts.EscalationTimeout != 0 {
			copts = append(copts, process.WithEscalationTimeout(opts.EscalationTimeout))
		}
		if opts.KillTimeout != 0 {
			copts = append(copts, process.WithKillTimeout(opts.KillTimeout))
		}
		o.terminator = process.NewController(opts.Registry, copts...)
	}
	if o.launcher == nil {
		o.launcher = process.NewLauncher(opts.Registry, opts.Starter,
			process.WithLauncherLogger(logging.GetLogger("process")),
			process.WithLauncherBus(opts.Bus),
		)
	}

	return o, nil
}

// ApplyOffset writes offset to the spacing configuration and relaunches
// every menu-bar item owner so it picks the change up.
//
// It returns a *Error if the configuration could not be written or the
// owners could not be discovered, a *GroupedFailure naming every process
// that did not come back, or the context error if ctx ended during a settle
// delay. A canceled apply still publishes its OffsetAppliedEvent, carrying
// the failures recorded so far and the CANCELED code. Processes are handled
// concurrently; one failing never stops the others.
func (o *Orchestrator) ApplyOffset(ctx context.Context, offset int) error {
	start := time.Now()
	o.logger.Info("Applying spacing offset", "offset", offset)

	if err := o.writer.Apply(ctx, offset); err != nil {
		writeErr := newError(ErrCodeConfigWrite, "failed to write spacing configuration", err)
		o.publishApplied(offset, 0, nil, writeErr, start)
		return writeErr
	}

	if err := o.settle(ctx); err != nil {
		o.publishApplied(offset, 0, nil, err, start)
		return err
	}

	owners, err := o.Owners(ctx)
	if err != nil {
		o.publishApplied(offset, 0, nil, err, start)
		return err
	}
	o.logger.Info("Relaunching menu bar item owners", "count", len(owners))

	var collector FailureCollector
	o.relaunchAll(ctx, owners, &collector)

	if err := o.settle(ctx); err != nil {
		if collector.Len() > 0 {
			o.logger.Warn("Spacing offset apply canceled with failures", "offset", offset, "error", collector.Err())
		}
		o.publishApplied(offset, len(owners), &collector, err, start)
		return err
	}
	o.quitDeferredService(ctx, &collector)

	err = collector.Err()
	o.publishApplied(offset, len(owners), &collector, nil, start)

	if err != nil {
		o.logger.Warn("Spacing offset applied with failures", "offset", offset, "error", err)
		return err
	}
	o.logger.Info("Spacing offset applied", "offset", offset, "duration", time.Since(start))
	return nil
}

// Owners returns the processes ApplyOffset would relaunch: the distinct
// owners of menu-bar items on the active space, minus this process and the
// deferred service. Owners that exit before they can be resolved are
// skipped.
func (o *Orchestrator) Owners(ctx context.Context) ([]*process.Descriptor, error) {
	items, err := o.enumerator.Items(ctx, discoveryOptions)
	if err != nil {
		return nil, newError(ErrCodeDiscovery, "failed to enumerate menu bar items", err)
	}

	var owners []*process.Descriptor
	for _, pid := range menubar.Owners(items) {
		if pid == o.selfPID {
			continue
		}
		d, err := o.registry.Lookup(ctx, pid)
		if err != nil {
			o.logger.Debug("Skipping menu bar item owner", "pid", pid, "error", err)
			continue
		}
		if d.BundleID == o.deferredService {
			continue
		}
		owners = append(owners, d)
	}
	return owners, nil
}

func (o *Orchestrator) relaunchAll(ctx context.Context, owners []*process.Descriptor, collector *FailureCollector) {
	// A plain Group: a failed workflow must not cancel its siblings.
	var g errgroup.Group
	if o.maxConcurrency > 0 {
		g.SetLimit(o.maxConcurrency)
	}
	for _, d := range owners {
		g.Go(func() error {
			o.relaunch(ctx, d, collector)
			return nil
		})
	}
	_ = g.Wait()
}

func (o *Orchestrator) relaunch(ctx context.Context, d *process.Descriptor, collector *FailureCollector) {
	if err := o.terminator.Terminate(ctx, d); err != nil {
		o.recordFailure(ctx, collector, d, ErrCodeRelaunch, err)
		return
	}

	o.transition(d, process.StateTerminated, process.StateRelaunching, nil)
	if err := o.launcher.Launch(ctx, d); err != nil {
		o.transition(d, process.StateRelaunching, process.StateFailed, err)
		o.recordFailure(ctx, collector, d, ErrCodeRelaunch, err)
		return
	}
	o.transition(d, process.StateRelaunching, process.StateRunning, nil)
}

func (o *Orchestrator) quitDeferredService(ctx context.Context, collector *FailureCollector) {
	running, err := o.registry.FindByBundleID(ctx, o.deferredService)
	if err != nil {
		o.logger.Warn("Failed to look up deferred service", "bundle_id", o.deferredService, "error", err)
		return
	}
	if len(running) == 0 {
		o.logger.Debug("Deferred service not running", "bundle_id", o.deferredService)
		return
	}

	service := running[0]
	if service.PID == o.selfPID {
		return
	}
	o.logger.Info("Quitting deferred service", "process", service)
	if err := o.terminator.Terminate(ctx, service); err != nil {
		o.recordFailure(ctx, collector, service, ErrCodeServiceQuit, err)
	}
}

func (o *Orchestrator) recordFailure(ctx context.Context, collector *FailureCollector, d *process.Descriptor, code string, err error) {
	if o.superseded(ctx, d) {
		o.logger.Info("Ignoring failure of self-relaunching process", "process", d, "error", err)
		return
	}

	o.logger.Warn("Process did not relaunch cleanly", "process", d, "code", code, "error", err)
	collector.Record(Failure{Name: d.DisplayName(), PID: d.PID, Code: code, Err: err})
	o.bus.Publish(events.RelaunchFailedEvent{
		PID:       d.PID,
		Name:      d.DisplayName(),
		BundleID:  d.BundleID,
		Code:      code,
		Error:     err.Error(),
		Timestamp: time.Now(),
	})
}

// superseded reports whether a failure of a self-relaunching component can
// be ignored: it counts only if the original pid is still the one running.
// This races the component's own restart and is best effort.
func (o *Orchestrator) superseded(ctx context.Context, d *process.Descriptor) bool {
	if !o.selfRelaunching[d.BundleID] {
		return false
	}
	running, err := o.registry.FindByBundleID(ctx, d.BundleID)
	if err != nil {
		return false
	}
	for _, r := range running {
		if r.PID == d.PID {
			return false
		}
	}
	return true
}

func (o *Orchestrator) settle(ctx context.Context) error {
	if o.settleDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(o.settleDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (o *Orchestrator) transition(d *process.Descriptor, from, to process.State, err error) {
	if o.onStateChange != nil {
		o.onStateChange(d, from, to, err)
	}
}

func (o *Orchestrator) publishApplied(offset, owners int, collector *FailureCollector, err error, start time.Time) {
	ev := events.OffsetAppliedEvent{
		Offset:    offset,
		Owners:    owners,
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	}
	if collector != nil {
		for _, f := range collector.Failures() {
			ev.Failed = append(ev.Failed, f.Name)
		}
	}
	var relaunchErr *Error
	switch {
	case errors.As(err, &relaunchErr):
		ev.Error = relaunchErr.Code
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		ev.Error = ErrCodeCanceled
	}
	o.bus.Publish(ev)
}
