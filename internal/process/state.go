package process

// State is a step in a process's relaunch workflow.
type State string

// Relaunch workflow states.
const (
	StateRunning       State = "running"        // Discovered, or relaunched successfully
	StateQuitRequested State = "quit_requested" // Cooperative quit sent
	StateEscalated     State = "escalated"      // Forced termination sent
	StateTerminated    State = "terminated"     // Termination confirmed
	StateRelaunching   State = "relaunching"    // Launch requested
	StateFailed        State = "failed"         // Did not terminate or did not launch
)

// StateChangeCallback is called when a process moves between states.
// err is set for transitions into StateFailed.
type StateChangeCallback func(d *Descriptor, oldState, newState State, err error)
