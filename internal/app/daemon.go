package app

import (
	"context"
	"errors"
	"os"
	"reflect"

	"github.com/smazurov/barspacing/internal/config"
	"github.com/smazurov/barspacing/internal/logging"
	"github.com/smazurov/barspacing/internal/metrics/exporters"
)

// SettingsLoader loads settings from a configuration file path.
type SettingsLoader func(path string) (config.Settings, error)

// Daemon applies the configured offset on start and again whenever the
// configuration file changes it. Reloads are handled one at a time; a reload
// arriving while an apply runs replaces any reload still queued.
type Daemon struct {
	path   string
	load   SettingsLoader
	opts   []Option
	hooks  []func(config.Settings, error)
	app    *App
	reload chan config.Settings

	stopMetrics func() // stops the metrics server and waits for it
}

// NewDaemon creates a daemon for the file at path. opts are passed to New
// for every rebuild.
func NewDaemon(path string, load SettingsLoader, opts ...Option) *Daemon {
	return &Daemon{
		path:   path,
		load:   load,
		opts:   opts,
		reload: make(chan config.Settings, 1),
	}
}

// OnApplied registers a callback run after every apply with its result.
// Must be called before Run.
func (d *Daemon) OnApplied(hook func(config.Settings, error)) {
	d.hooks = append(d.hooks, hook)
}

// Run blocks until ctx is done. It fails only if the initial settings
// cannot be loaded or wired; apply failures are logged and the daemon keeps
// running.
func (d *Daemon) Run(ctx context.Context) error {
	logger := logging.GetLogger("main")

	s, err := d.load(d.path)
	if err != nil {
		return err
	}
	applyLogLevels(s)

	if d.app, err = New(s, d.opts...); err != nil {
		return err
	}
	defer func() { d.app.Close() }()

	d.serveMetrics(ctx, s.Metrics.Addr)
	defer d.serveMetrics(ctx, "")

	d.apply(ctx, s)

	if _, statErr := os.Stat(d.path); statErr == nil {
		watcher := config.NewConfigWatcher[config.Settings](d.path, d.load, logging.GetLogger("config"))
		watcher.OnReload(d.enqueue)
		if startErr := watcher.Start(); startErr != nil {
			logger.Warn("Failed to start config watcher, hot-reload disabled", "error", startErr)
		} else {
			defer func() { _ = watcher.Stop() }()
		}
	} else {
		logger.Info("No configuration file, hot-reload disabled", "path", d.path)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("Daemon stopping")
			return nil
		case next := <-d.reload:
			d.handleReload(ctx, next)
		}
	}
}

// enqueue keeps only the newest pending settings.
func (d *Daemon) enqueue(s config.Settings) {
	for {
		select {
		case d.reload <- s:
			return
		default:
		}
		select {
		case <-d.reload:
		default:
		}
	}
}

func (d *Daemon) handleReload(ctx context.Context, next config.Settings) {
	logger := logging.GetLogger("main")
	current := d.app.Settings

	applyLogLevels(next)
	if reflect.DeepEqual(current, next) {
		logger.Debug("Configuration unchanged")
		return
	}

	rebuilt, err := New(next, d.opts...)
	if err != nil {
		logger.Warn("Ignoring invalid configuration", "error", err)
		return
	}
	d.app.Close()
	d.app = rebuilt

	if next.Metrics.Addr != current.Metrics.Addr {
		logger.Info("Metrics address changed", "from", current.Metrics.Addr, "to", next.Metrics.Addr)
		d.serveMetrics(ctx, next.Metrics.Addr)
	}

	if next.Spacing.Offset == current.Spacing.Offset {
		logger.Info("Configuration reloaded, offset unchanged", "offset", next.Spacing.Offset)
		return
	}
	d.apply(ctx, next)
}

// serveMetrics stops the running metrics server, if any, and starts one on
// addr unless it is empty. The old listener is closed before the new one
// binds, so the same port can be reused.
func (d *Daemon) serveMetrics(ctx context.Context, addr string) {
	if d.stopMetrics != nil {
		d.stopMetrics()
		d.stopMetrics = nil
	}
	if addr == "" {
		return
	}

	srvCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	d.stopMetrics = func() {
		cancel()
		<-done
	}
	go func() {
		defer close(done)
		if err := exporters.Serve(srvCtx, addr); err != nil {
			logging.GetLogger("main").Error("Metrics server failed", "addr", addr, "error", err)
		}
	}()
}

func (d *Daemon) apply(ctx context.Context, s config.Settings) {
	logger := logging.GetLogger("main")

	err := d.app.Apply(ctx, s.Spacing.Offset)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Failed to apply spacing offset", "offset", s.Spacing.Offset, "error", err)
	}
	for _, hook := range d.hooks {
		hook(s, err)
	}
}

func applyLogLevels(s config.Settings) {
	logger := logging.GetLogger("config")
	for module, level := range s.LoggingConfig().Modules {
		if err := logging.SetModuleLevel(module, level); err != nil {
			logger.Warn("Invalid module log level", "module", module, "level", level, "error", err)
		}
	}
}
