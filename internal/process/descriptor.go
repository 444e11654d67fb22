package process

import (
	"log/slog"
	"strconv"
	"sync/atomic"
)

// Descriptor identifies a running (or formerly running) process.
type Descriptor struct {
	PID      int
	BundleID string // package identifier, empty when unknown
	Location string // executable or bundle path used to relaunch
	Name     string // display name

	terminated atomic.Bool
}

// Terminated reports whether termination has been confirmed. Once true it
// stays true.
func (d *Descriptor) Terminated() bool {
	return d.terminated.Load()
}

// MarkTerminated records confirmed termination.
func (d *Descriptor) MarkTerminated() {
	d.terminated.Store(true)
}

// DisplayName returns the name used in user-facing messages.
func (d *Descriptor) DisplayName() string {
	switch {
	case d.Name != "":
		return d.Name
	case d.BundleID != "":
		return d.BundleID
	default:
		return "pid " + strconv.Itoa(d.PID)
	}
}

// LogValue implements slog.LogValuer.
func (d *Descriptor) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("pid", d.PID),
		slog.String("name", d.DisplayName()),
	}
	if d.BundleID != "" {
		attrs = append(attrs, slog.String("bundle_id", d.BundleID))
	}
	return slog.GroupValue(attrs...)
}
