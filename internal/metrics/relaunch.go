// Package metrics provides Prometheus metrics for spacing applies and
// process relaunches.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Apply results.
const (
	ResultSuccess = "success"
	ResultPartial = "partial"
	ResultError   = "error"
)

// Process outcomes.
const (
	OutcomeQuitRequested  = "quit_requested"
	OutcomeEscalated      = "escalated"
	OutcomeRelaunched     = "relaunched"
	OutcomeAlreadyRunning = "already_running"
	OutcomeFailed         = "failed"
)

var (
	applyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "barspacing",
		Subsystem: "apply",
		Name:      "total",
		Help:      "Spacing offset applies by result",
	}, []string{"result"})

	applyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "barspacing",
		Subsystem: "apply",
		Name:      "duration_seconds",
		Help:      "Time to apply an offset and relaunch every owner",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	applyOffset = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "barspacing",
		Subsystem: "apply",
		Name:      "offset",
		Help:      "Last applied spacing offset",
	})

	applyOwners = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "barspacing",
		Subsystem: "apply",
		Name:      "owners",
		Help:      "Menu bar item owners handled by the last apply",
	})

	processOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "barspacing",
		Subsystem: "process",
		Name:      "outcomes_total",
		Help:      "Per-process relaunch workflow outcomes",
	}, []string{"outcome"})

	processFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "barspacing",
		Subsystem: "process",
		Name:      "failures_total",
		Help:      "Recorded relaunch failures by error code",
	}, []string{"code"})

	// Local copy of the last apply for status output.
	last   *ApplySummary
	lastMu sync.RWMutex
)

// ApplySummary describes one completed apply.
type ApplySummary struct {
	Offset   int
	Owners   int
	Failed   []string
	Result   string
	Duration time.Duration
	At       time.Time
}

// ObserveApply records one apply. errCode is set when the apply stopped
// before relaunching anything.
func ObserveApply(offset, owners int, failed []string, errCode string, duration time.Duration) {
	result := ResultSuccess
	switch {
	case errCode != "":
		result = ResultError
	case len(failed) > 0:
		result = ResultPartial
	}

	applyTotal.WithLabelValues(result).Inc()
	applyDuration.Observe(duration.Seconds())
	if result != ResultError {
		applyOffset.Set(float64(offset))
		applyOwners.Set(float64(owners))
	}

	lastMu.Lock()
	last = &ApplySummary{
		Offset:   offset,
		Owners:   owners,
		Failed:   append([]string(nil), failed...),
		Result:   result,
		Duration: duration,
		At:       time.Now(),
	}
	lastMu.Unlock()
}

// ObserveProcess counts a per-process outcome.
func ObserveProcess(outcome string) {
	processOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveFailure counts a recorded failure.
func ObserveFailure(code string) {
	processOutcomes.WithLabelValues(OutcomeFailed).Inc()
	processFailures.WithLabelValues(code).Inc()
}

// LastApply returns a copy of the last apply summary, or nil.
func LastApply() *ApplySummary {
	lastMu.RLock()
	defer lastMu.RUnlock()
	if last == nil {
		return nil
	}
	dup := *last
	dup.Failed = append([]string(nil), last.Failed...)
	return &dup
}
