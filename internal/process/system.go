package process

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"slices"
	"sort"
	"sync"
	"syscall"
	"time"

	ps "github.com/shirou/gopsutil/v4/process"

	"github.com/smazurov/barspacing/internal/events"
	"github.com/smazurov/barspacing/internal/logging"
)

// DefaultPollInterval is how often SystemRegistry checks a watched pid.
const DefaultPollInterval = 50 * time.Millisecond

type bundleInfo struct {
	id       string
	location string
	name     string
}

// SystemRegistry is the Registry for the local host. Termination watches
// poll the pid and announce the exit as a ProcessTerminatedEvent, so every
// watcher of the same pid is resolved by the first poller to notice.
type SystemRegistry struct {
	bus          *events.Bus
	logger       *slog.Logger
	pollInterval time.Duration

	resolve func(ctx context.Context, exe, name string) (bundleInfo, bool)
	bundles sync.Map // executable path -> bundleInfo, final results only
}

// RegistryOption configures a SystemRegistry.
type RegistryOption func(*SystemRegistry)

// WithPollInterval sets the termination poll interval.
func WithPollInterval(d time.Duration) RegistryOption {
	return func(r *SystemRegistry) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// NewSystemRegistry creates a registry. A nil bus gets a private one.
func NewSystemRegistry(bus *events.Bus, logger *slog.Logger, opts ...RegistryOption) *SystemRegistry {
	if bus == nil {
		bus = events.New()
	}
	if logger == nil {
		logger = logging.GetLogger("process")
	}
	r := &SystemRegistry{
		bus:          bus,
		logger:       logger,
		pollInterval: DefaultPollInterval,
		resolve:      resolveBundle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lookup implements Registry.
func (r *SystemRegistry) Lookup(ctx context.Context, pid int) (*Descriptor, error) {
	p, err := r.open(ctx, pid)
	if err != nil {
		return nil, err
	}
	if isZombie(ctx, p) {
		return nil, ErrNotFound
	}
	return r.describe(ctx, p), nil
}

// FindByBundleID implements Registry. Results are ordered by pid.
func (r *SystemRegistry) FindByBundleID(ctx context.Context, bundleID string) ([]*Descriptor, error) {
	procs, err := ps.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	var found []*Descriptor
	for _, p := range procs {
		exe, err := p.ExeWithContext(ctx)
		if err != nil || exe == "" {
			// Exited since listing, or not ours to inspect.
			continue
		}
		info := r.bundle(ctx, exe, "")
		if info.id != bundleID || isZombie(ctx, p) {
			continue
		}
		found = append(found, r.describe(ctx, p))
	}

	sort.Slice(found, func(i, j int) bool { return found[i].PID < found[j].PID })
	return found, nil
}

// IsTerminated implements Registry. Zombies count as terminated. A pid whose
// state cannot be read is reported as still running.
func (r *SystemRegistry) IsTerminated(ctx context.Context, pid int) bool {
	exists, err := ps.PidExistsWithContext(ctx, int32(pid))
	if err != nil {
		r.logger.Debug("Failed to check pid", "pid", pid, "error", err)
		return false
	}
	if !exists {
		return true
	}
	p, err := ps.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return errors.Is(err, ps.ErrorProcessNotRunning)
	}
	return isZombie(ctx, p)
}

// Quit implements Registry by sending SIGTERM.
func (r *SystemRegistry) Quit(ctx context.Context, pid int) error {
	p, err := r.open(ctx, pid)
	if err != nil {
		return err
	}
	return mapSignalError(p.TerminateWithContext(ctx))
}

// ForceTerminate implements Registry by sending SIGKILL.
func (r *SystemRegistry) ForceTerminate(ctx context.Context, pid int) error {
	p, err := r.open(ctx, pid)
	if err != nil {
		return err
	}
	return mapSignalError(p.KillWithContext(ctx))
}

// WatchTermination implements Registry.
func (r *SystemRegistry) WatchTermination(pid int) *Subscription {
	pollCtx, cancel := context.WithCancel(context.Background())

	var unsubscribe func()
	sub := NewSubscription(func() {
		cancel()
		if unsubscribe != nil {
			unsubscribe()
		}
	})
	unsubscribe = r.bus.Subscribe(func(e events.ProcessTerminatedEvent) {
		if e.PID == pid {
			sub.Resolve()
		}
	})

	go r.poll(pollCtx, pid, sub)
	return sub
}

func (r *SystemRegistry) poll(ctx context.Context, pid int, sub *Subscription) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		if r.IsTerminated(ctx, pid) {
			// Resolve directly too: the bus delivers asynchronously.
			sub.Resolve()
			r.bus.Publish(events.ProcessTerminatedEvent{PID: pid, Timestamp: time.Now()})
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *SystemRegistry) open(ctx context.Context, pid int) (*ps.Process, error) {
	if pid <= 0 {
		return nil, ErrNotFound
	}
	p, err := ps.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		if errors.Is(err, ps.ErrorProcessNotRunning) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *SystemRegistry) describe(ctx context.Context, p *ps.Process) *Descriptor {
	name, _ := p.NameWithContext(ctx)
	exe, _ := p.ExeWithContext(ctx)
	info := r.bundle(ctx, exe, name)
	return &Descriptor{
		PID:      int(p.Pid),
		BundleID: info.id,
		Location: info.location,
		Name:     info.name,
	}
}

// bundle resolves and caches bundle metadata per executable. The cached
// entry keeps the bundle name; the process name is only a fallback. A lookup
// that could not read the bundle is retried next time.
func (r *SystemRegistry) bundle(ctx context.Context, exe, name string) bundleInfo {
	if exe == "" {
		return bundleInfo{name: name}
	}
	if cached, ok := r.bundles.Load(exe); ok {
		info := cached.(bundleInfo)
		if info.name == "" {
			info.name = name
		}
		return info
	}
	info, final := r.resolve(ctx, exe, "")
	if final {
		r.bundles.Store(exe, info)
	}
	if info.name == "" {
		info.name = name
	}
	return info
}

func isZombie(ctx context.Context, p *ps.Process) bool {
	status, err := p.StatusWithContext(ctx)
	if err != nil {
		return false
	}
	return slices.Contains(status, ps.Zombie)
}

func mapSignalError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrProcessDone),
		errors.Is(err, syscall.ESRCH),
		errors.Is(err, ps.ErrorProcessNotRunning):
		return ErrNotFound
	default:
		return err
	}
}
