package relaunch

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestFailureCollectorEmpty(t *testing.T) {
	var c FailureCollector
	if err := c.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestFailureCollectorConcurrentRecord(t *testing.T) {
	var c FailureCollector
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Record(Failure{Name: fmt.Sprintf("app-%d", i), PID: i, Code: ErrCodeRelaunch, Err: errors.New("boom")})
		}()
	}
	wg.Wait()

	if c.Len() != 50 {
		t.Fatalf("Len() = %d, want 50", c.Len())
	}
	var g *GroupedFailure
	if !errors.As(c.Err(), &g) {
		t.Fatal("Err() should be a *GroupedFailure")
	}
	if len(g.FailedNames) != 50 || len(g.Failures) != 50 {
		t.Errorf("names = %d, failures = %d", len(g.FailedNames), len(g.Failures))
	}
}

func TestGroupedFailureUnwrap(t *testing.T) {
	sentinel := errors.New("launch refused")
	var c FailureCollector
	c.Record(Failure{Name: "Clock", PID: 10, Code: ErrCodeRelaunch, Err: fmt.Errorf("failed to launch Clock: %w", sentinel)})
	c.Record(Failure{Name: "Control Center", PID: 11, Code: ErrCodeServiceQuit, Err: errors.New("timeout")})

	err := c.Err()
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should reach a recorded cause")
	}

	msg := err.Error()
	for _, want := range []string{"Clock", "Control Center", RecoverySuggestion} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}

	var f Failure
	if !errors.As(err, &f) || f.Name != "Clock" {
		t.Errorf("errors.As Failure = %+v", f)
	}
}

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("disk full")
	err := newError(ErrCodeConfigWrite, "failed to write spacing configuration", cause)

	if !errors.Is(err, cause) {
		t.Error("Error should unwrap to its cause")
	}
	if got, want := err.Error(), "CONFIG_WRITE_FAILED: failed to write spacing configuration: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got := newError(ErrCodeDiscovery, "no items", nil).Error(); got != "DISCOVERY_FAILED: no items" {
		t.Errorf("Error() without cause = %q", got)
	}
}
