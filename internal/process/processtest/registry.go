// Package processtest provides in-memory fakes of the process registry and
// starter for tests.
package processtest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/smazurov/barspacing/internal/process"
)

// Proc describes a fake running process and how it reacts to signals.
type Proc struct {
	PID      int // zero allocates a pid
	BundleID string
	Location string
	Name     string

	IgnoreQuit bool          // stays alive after Quit
	IgnoreKill bool          // stays alive after ForceTerminate
	QuitDelay  time.Duration // exit this long after Quit instead of at once
	QuitErr    error         // returned by Quit, the process still reacts
	Respawn    bool          // comes back under a new pid after exiting
}

// Registry is a process.Registry over an in-memory process table.
type Registry struct {
	mu       sync.Mutex
	procs    map[int]*Proc
	watchers map[int]map[*process.Subscription]struct{}
	quits    map[int]int
	forces   map[int]int
	nextPID  int

	// FindErr, when set, fails every FindByBundleID call.
	FindErr error
}

var _ process.Registry = (*Registry)(nil)

// NewRegistry creates an empty registry. Allocated pids start at 1000.
func NewRegistry() *Registry {
	return &Registry{
		procs:    make(map[int]*Proc),
		watchers: make(map[int]map[*process.Subscription]struct{}),
		quits:    make(map[int]int),
		forces:   make(map[int]int),
		nextPID:  1000,
	}
}

// Add registers p as running and returns its pid.
func (r *Registry) Add(p Proc) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLocked(p)
}

func (r *Registry) addLocked(p Proc) int {
	if p.PID == 0 {
		r.nextPID++
		p.PID = r.nextPID
	}
	r.procs[p.PID] = &p
	return p.PID
}

// Running reports whether pid is alive.
func (r *Registry) Running(pid int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.procs[pid]
	return ok
}

// QuitCalls returns how many times Quit was called for pid.
func (r *Registry) QuitCalls(pid int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quits[pid]
}

// ForceCalls returns how many times ForceTerminate was called for pid.
func (r *Registry) ForceCalls(pid int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.forces[pid]
}

// TotalForceCalls sums ForceCalls over all pids.
func (r *Registry) TotalForceCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, n := range r.forces {
		total += n
	}
	return total
}

// Exit terminates pid as if it quit on its own.
func (r *Registry) Exit(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exitLocked(pid)
}

// Lookup implements process.Registry.
func (r *Registry) Lookup(_ context.Context, pid int) (*process.Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.procs[pid]
	if !ok {
		return nil, process.ErrNotFound
	}
	return describe(p), nil
}

// FindByBundleID implements process.Registry.
func (r *Registry) FindByBundleID(_ context.Context, bundleID string) ([]*process.Descriptor, error) {
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var found []*process.Descriptor
	for _, p := range r.procs {
		if p.BundleID == bundleID && bundleID != "" {
			found = append(found, describe(p))
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].PID < found[j].PID })
	return found, nil
}

// IsTerminated implements process.Registry.
func (r *Registry) IsTerminated(_ context.Context, pid int) bool {
	return !r.Running(pid)
}

// Quit implements process.Registry.
func (r *Registry) Quit(_ context.Context, pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.procs[pid]
	if !ok {
		return process.ErrNotFound
	}
	r.quits[pid]++

	switch {
	case p.IgnoreQuit:
	case p.QuitDelay > 0:
		time.AfterFunc(p.QuitDelay, func() { r.Exit(pid) })
	default:
		r.exitLocked(pid)
	}
	return p.QuitErr
}

// ForceTerminate implements process.Registry.
func (r *Registry) ForceTerminate(_ context.Context, pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.procs[pid]
	if !ok {
		return process.ErrNotFound
	}
	r.forces[pid]++
	if !p.IgnoreKill {
		r.exitLocked(pid)
	}
	return nil
}

// WatchTermination implements process.Registry.
func (r *Registry) WatchTermination(pid int) *process.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sub *process.Subscription
	sub = process.NewSubscription(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.watchers[pid], sub)
	})

	if _, ok := r.procs[pid]; !ok {
		sub.Resolve()
		return sub
	}
	if r.watchers[pid] == nil {
		r.watchers[pid] = make(map[*process.Subscription]struct{})
	}
	r.watchers[pid][sub] = struct{}{}
	return sub
}

func (r *Registry) exitLocked(pid int) {
	p, ok := r.procs[pid]
	if !ok {
		return
	}
	delete(r.procs, pid)
	for sub := range r.watchers[pid] {
		sub.Resolve()
	}
	delete(r.watchers, pid)

	if p.Respawn {
		next := *p
		next.PID = 0
		r.addLocked(next)
	}
}

func describe(p *Proc) *process.Descriptor {
	return &process.Descriptor{
		PID:      p.PID,
		BundleID: p.BundleID,
		Location: p.Location,
		Name:     p.Name,
	}
}

// Starter is a process.Starter that registers started processes in a
// Registry.
type Starter struct {
	Registry *Registry

	mu     sync.Mutex
	fail   map[string]error
	starts []string
}

var _ process.Starter = (*Starter)(nil)

// NewStarter creates a starter backed by r.
func NewStarter(r *Registry) *Starter {
	return &Starter{Registry: r, fail: make(map[string]error)}
}

// FailFor makes starts of bundleID return err.
func (s *Starter) FailFor(bundleID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		err = errors.New("launch refused")
	}
	s.fail[bundleID] = err
}

// Starts returns the bundle ids started so far, in call order, including
// failed attempts.
func (s *Starter) Starts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.starts...)
}

// Start implements process.Starter.
func (s *Starter) Start(_ context.Context, d *process.Descriptor, _ process.LaunchOptions) error {
	s.mu.Lock()
	s.starts = append(s.starts, d.BundleID)
	err := s.fail[d.BundleID]
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.Registry.Add(Proc{BundleID: d.BundleID, Location: d.Location, Name: d.Name})
	return nil
}
