package exporters

import (
	"github.com/smazurov/barspacing/internal/events"
	"github.com/smazurov/barspacing/internal/metrics"
)

// Attach updates the metrics from lifecycle events on bus. Updates happen
// inside Publish, so the metrics reflect an apply as soon as ApplyOffset
// returns. The returned function detaches.
func Attach(bus *events.Bus) func() {
	return bus.Tap(observe)
}

func observe(ev events.Event) {
	switch e := ev.(type) {
	case events.OffsetAppliedEvent:
		metrics.ObserveApply(e.Offset, e.Owners, e.Failed, e.Error, e.Duration)
	case events.ProcessQuitRequestedEvent:
		metrics.ObserveProcess(metrics.OutcomeQuitRequested)
	case events.ProcessEscalatedEvent:
		metrics.ObserveProcess(metrics.OutcomeEscalated)
	case events.ProcessRelaunchedEvent:
		if e.AlreadyRunning {
			metrics.ObserveProcess(metrics.OutcomeAlreadyRunning)
			return
		}
		metrics.ObserveProcess(metrics.OutcomeRelaunched)
	case events.RelaunchFailedEvent:
		metrics.ObserveFailure(e.Code)
	}
}
