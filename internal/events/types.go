package events

import "time"

// Event type constants for kelindar/event.
const (
	TypeOffsetApplied uint32 = iota + 1
	TypeProcessQuitRequested
	TypeProcessEscalated
	TypeProcessTerminated
	TypeProcessRelaunched
	TypeRelaunchFailed
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// OffsetAppliedEvent is published once per ApplyOffset call. Error holds the
// code of the failure that stopped the call early (a config write,
// discovery or cancellation); per-process failures are listed in Failed.
type OffsetAppliedEvent struct {
	Offset    int           `json:"offset"`
	Owners    int           `json:"owners"`
	Failed    []string      `json:"failed,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// Type returns the event type identifier for OffsetAppliedEvent.
func (e OffsetAppliedEvent) Type() uint32 { return TypeOffsetApplied }

// ProcessQuitRequestedEvent is published when a cooperative quit is sent.
type ProcessQuitRequestedEvent struct {
	PID       int       `json:"pid"`
	Name      string    `json:"name"`
	BundleID  string    `json:"bundle_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for ProcessQuitRequestedEvent.
func (e ProcessQuitRequestedEvent) Type() uint32 { return TypeProcessQuitRequested }

// ProcessEscalatedEvent is published when a process did not quit within the
// escalation window and was force terminated.
type ProcessEscalatedEvent struct {
	PID       int           `json:"pid"`
	Name      string        `json:"name"`
	BundleID  string        `json:"bundle_id,omitempty"`
	Waited    time.Duration `json:"waited"`
	Timestamp time.Time     `json:"timestamp"`
}

// Type returns the event type identifier for ProcessEscalatedEvent.
func (e ProcessEscalatedEvent) Type() uint32 { return TypeProcessEscalated }

// ProcessTerminatedEvent is published by a registry when it observes that a
// watched process is gone.
type ProcessTerminatedEvent struct {
	PID       int       `json:"pid"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for ProcessTerminatedEvent.
func (e ProcessTerminatedEvent) Type() uint32 { return TypeProcessTerminated }

// ProcessRelaunchedEvent is published after a launch request succeeded.
// AlreadyRunning is set when no launch was needed.
type ProcessRelaunchedEvent struct {
	PID            int       `json:"pid"`
	Name           string    `json:"name"`
	BundleID       string    `json:"bundle_id,omitempty"`
	AlreadyRunning bool      `json:"already_running"`
	Timestamp      time.Time `json:"timestamp"`
}

// Type returns the event type identifier for ProcessRelaunchedEvent.
func (e ProcessRelaunchedEvent) Type() uint32 { return TypeProcessRelaunched }

// RelaunchFailedEvent is published for every failure recorded during an
// ApplyOffset call.
type RelaunchFailedEvent struct {
	PID       int       `json:"pid"`
	Name      string    `json:"name"`
	BundleID  string    `json:"bundle_id,omitempty"`
	Code      string    `json:"code"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for RelaunchFailedEvent.
func (e RelaunchFailedEvent) Type() uint32 { return TypeRelaunchFailed }
