package exporters

import (
	"testing"
	"time"

	"github.com/smazurov/barspacing/internal/events"
	"github.com/smazurov/barspacing/internal/metrics"
)

func TestAttachObservesApply(t *testing.T) {
	bus := events.New()
	detach := Attach(bus)
	defer detach()

	bus.Publish(events.OffsetAppliedEvent{
		Offset:   3,
		Owners:   2,
		Failed:   []string{"Battery"},
		Duration: 40 * time.Millisecond,
	})

	// No waiting: the update happens inside Publish.
	s := metrics.LastApply()
	if s == nil || s.Offset != 3 || s.Result != metrics.ResultPartial {
		t.Fatalf("last apply = %+v, want offset 3 partial", s)
	}
	if len(s.Failed) != 1 || s.Failed[0] != "Battery" {
		t.Errorf("failed = %v, want [Battery]", s.Failed)
	}
}

func TestDetachStopsUpdates(t *testing.T) {
	bus := events.New()
	detach := Attach(bus)

	bus.Publish(events.OffsetAppliedEvent{Offset: 11})
	if s := metrics.LastApply(); s == nil || s.Offset != 11 {
		t.Fatalf("last apply = %+v, want offset 11", s)
	}

	detach()
	bus.Publish(events.OffsetAppliedEvent{Offset: 12})

	if s := metrics.LastApply(); s.Offset != 11 {
		t.Errorf("offset = %d after detach, want 11", s.Offset)
	}
}
