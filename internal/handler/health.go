package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/mockapi/mockapi/internal/handler/dto"
)

// TimeLayout is the timestamp format of the health response: RFC 3339 in
// UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages the health check endpoint.
type HealthHandler struct {
	store HealthChecker
	now   func() time.Time
}

// NewHealthHandler creates a new HealthHandler.
// Pass nil for store to skip the store check.
func NewHealthHandler(store HealthChecker) *HealthHandler {
	return &HealthHandler{
		store: store,
		now:   time.Now,
	}
}

// Health reports liveness and the current server time.
//
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, dto.HealthResponse{
		Status: status,
		Time:   h.now().UTC().Format(TimeLayout),
	})
}
