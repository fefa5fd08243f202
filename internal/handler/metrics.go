package handler

import (
	"net/http"
)

// MetricsHandler exposes the metrics registry.
type MetricsHandler struct {
	exposition http.Handler
}

// NewMetricsHandler creates a new MetricsHandler. exposition is typically
// the Prometheus recorder's Handler; nil makes the endpoint unavailable.
func NewMetricsHandler(exposition http.Handler) *MetricsHandler {
	return &MetricsHandler{exposition: exposition}
}

// Metrics returns metrics in Prometheus exposition format.
//
// GET /metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.exposition == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics disabled")
		return
	}
	h.exposition.ServeHTTP(w, r)
}
