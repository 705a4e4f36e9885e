package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/canvas-market/api/internal/services"
)

type stubSystemService struct {
	report services.HealthReport
}

func (s *stubSystemService) Health(context.Context) services.HealthReport {
	return s.report
}

func TestHealthz(t *testing.T) {
	start := time.Date(2026, time.April, 2, 12, 0, 0, 0, time.UTC)
	handlers := NewHealthHandlers(WithHealthClock(func() time.Time { return start }))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	handlers.Healthz(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body healthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("expected ok, got %s", body.Status)
	}
}

func TestReadyzDegraded(t *testing.T) {
	system := &stubSystemService{
		report: services.HealthReport{
			Status: "degraded",
			Components: []services.ComponentHealth{
				{Name: "firestore", Status: "degraded", Error: "deadline exceeded"},
			},
		},
	}
	handlers := NewHealthHandlers(WithSystemService(system))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	handlers.Readyz(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	var body healthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(body.Components) != 1 || body.Components[0].Error != "deadline exceeded" {
		t.Errorf("unexpected components: %+v", body.Components)
	}
}

func TestReadyzHealthy(t *testing.T) {
	system := &stubSystemService{
		report: services.HealthReport{
			Status:     "ok",
			Components: []services.ComponentHealth{{Name: "firestore", Status: "ok"}},
		},
	}
	handlers := NewHealthHandlers(WithSystemService(system))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	handlers.Readyz(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
