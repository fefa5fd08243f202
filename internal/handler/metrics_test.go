package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mockapi/mockapi/internal/metrics"
)

func TestMetricsHandler_Prometheus(t *testing.T) {
	recorder := metrics.NewPrometheus()
	recorder.IncRecordCreated()
	h := NewMetricsHandler(recorder.Handler())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	h.Metrics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `mockapi_record_operations_total{operation="create"} 1`) {
		t.Errorf("missing record counter in:\n%s", rec.Body.String())
	}
}

func TestMetricsHandler_Disabled(t *testing.T) {
	h := NewMetricsHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	h.Metrics(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
}
