package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mockapi/mockapi/internal/handler/dto"
	"github.com/mockapi/mockapi/internal/testutil"
)

// mockHealthChecker is a mock implementation of HealthChecker for testing.
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) Ping(ctx context.Context) error {
	return m.err
}

func TestHealthHandler_Health(t *testing.T) {
	h := NewHealthHandler(&mockHealthChecker{})
	loc := time.FixedZone("UTC+7", 7*60*60)
	h.now = func() time.Time {
		return time.Date(2024, 3, 9, 17, 4, 5, 6_000_000, loc)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	response := testutil.DecodeJSON[dto.HealthResponse](t, rec.Body)
	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got %s", response.Status)
	}
	if response.Time != "2024-03-09T10:04:05.006Z" {
		t.Errorf("unexpected time: %s", response.Time)
	}
}

func TestHealthHandler_Health_TimeIsParseable(t *testing.T) {
	h := NewHealthHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	before := time.Now().Add(-time.Second)
	h.Health(rec, req)

	response := testutil.DecodeJSON[dto.HealthResponse](t, rec.Body)
	ts, err := time.Parse(time.RFC3339Nano, response.Time)
	if err != nil {
		t.Fatalf("time is not RFC 3339: %v", err)
	}
	if ts.Before(before) || ts.After(time.Now().Add(time.Second)) {
		t.Errorf("time %s is not current", response.Time)
	}
}

func TestHealthHandler_Health_StoreUnhealthy(t *testing.T) {
	h := NewHealthHandler(&mockHealthChecker{err: errors.New("closed")})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}

	response := testutil.DecodeJSON[dto.HealthResponse](t, rec.Body)
	if response.Status != "unhealthy" {
		t.Errorf("expected status 'unhealthy', got %s", response.Status)
	}
}
