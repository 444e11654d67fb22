package exporters

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/barspacing/internal/metrics"
)

func TestHTTPHandler(t *testing.T) {
	handler := HTTPHandler()
	if handler == nil {
		t.Fatal("expected non-nil handler")
	}

	// Set a metric so there's something to export
	metrics.ObserveApply(2, 1, nil, "", 10*time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := w.Body.String(); !strings.Contains(body, "barspacing_apply_total") {
		t.Error("expected prometheus metrics in response")
	}
}

func TestWriteTextfile(t *testing.T) {
	metrics.ObserveProcess(metrics.OutcomeRelaunched)

	path := filepath.Join(t.TempDir(), "barspacing.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `barspacing_process_outcomes_total{outcome="relaunched"}`) {
		t.Errorf("textfile missing outcome counter:\n%s", data)
	}
}
