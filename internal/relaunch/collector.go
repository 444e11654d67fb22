package relaunch

import "sync"

// FailureCollector gathers failures from concurrent relaunch workflows.
// The zero value is ready to use.
type FailureCollector struct {
	mu       sync.Mutex
	failures []Failure
}

// Record appends f.
func (c *FailureCollector) Record(f Failure) {
	c.mu.Lock()
	c.failures = append(c.failures, f)
	c.mu.Unlock()
}

// Len returns the number of recorded failures.
func (c *FailureCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.failures)
}

// Failures returns a copy of the recorded failures in recording order.
func (c *FailureCollector) Failures() []Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Failure(nil), c.failures...)
}

// Err builds the GroupedFailure, or returns nil when nothing was recorded.
func (c *FailureCollector) Err() error {
	failures := c.Failures()
	if len(failures) == 0 {
		return nil
	}

	names := make([]string, len(failures))
	for i, f := range failures {
		names[i] = f.Name
	}
	return &GroupedFailure{
		FailedNames:        names,
		RecoverySuggestion: RecoverySuggestion,
		Failures:           failures,
	}
}
