package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveApplyResults(t *testing.T) {
	tests := []struct {
		name    string
		failed  []string
		errCode string
		want    string
	}{
		{"success", nil, "", ResultSuccess},
		{"partial", []string{"Clock"}, "", ResultPartial},
		{"error", nil, "CONFIG_WRITE_FAILED", ResultError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(applyTotal.WithLabelValues(tt.want))
			ObserveApply(6, 3, tt.failed, tt.errCode, 250*time.Millisecond)

			if got := testutil.ToFloat64(applyTotal.WithLabelValues(tt.want)) - before; got != 1 {
				t.Errorf("apply_total{result=%q} delta = %v, want 1", tt.want, got)
			}

			summary := LastApply()
			if summary == nil || summary.Result != tt.want || summary.Offset != 6 {
				t.Errorf("LastApply() = %+v", summary)
			}
		})
	}
}

func TestObserveApplyGauges(t *testing.T) {
	ObserveApply(4, 7, nil, "", time.Second)
	if got := testutil.ToFloat64(applyOffset); got != 4 {
		t.Errorf("offset = %v, want 4", got)
	}
	if got := testutil.ToFloat64(applyOwners); got != 7 {
		t.Errorf("owners = %v, want 7", got)
	}

	// Failed applies leave the gauges alone.
	ObserveApply(9, 0, nil, "DISCOVERY_FAILED", time.Second)
	if got := testutil.ToFloat64(applyOffset); got != 4 {
		t.Errorf("offset after error = %v, want 4", got)
	}
}

func TestObserveFailure(t *testing.T) {
	before := testutil.ToFloat64(processFailures.WithLabelValues("RELAUNCH_FAILED"))
	beforeOutcome := testutil.ToFloat64(processOutcomes.WithLabelValues(OutcomeFailed))

	ObserveFailure("RELAUNCH_FAILED")

	if got := testutil.ToFloat64(processFailures.WithLabelValues("RELAUNCH_FAILED")) - before; got != 1 {
		t.Errorf("failures delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(processOutcomes.WithLabelValues(OutcomeFailed)) - beforeOutcome; got != 1 {
		t.Errorf("failed outcome delta = %v, want 1", got)
	}
}

func TestLastApplyIsCopy(t *testing.T) {
	ObserveApply(1, 1, []string{"Clock"}, "", time.Millisecond)

	s := LastApply()
	s.Failed[0] = "changed"
	if LastApply().Failed[0] != "Clock" {
		t.Error("LastApply should return an independent copy")
	}
}
