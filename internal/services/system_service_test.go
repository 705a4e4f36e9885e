package services

import (
	"context"
	"errors"
	"testing"
)

type stubHealthRepository struct {
	pingFn func(ctx context.Context) error
}

func (s *stubHealthRepository) Ping(ctx context.Context) error {
	if s.pingFn == nil {
		return nil
	}
	return s.pingFn(ctx)
}

func TestHealthReportsOK(t *testing.T) {
	svc, err := NewSystemService(SystemServiceDeps{Health: &stubHealthRepository{}})
	if err != nil {
		t.Fatalf("NewSystemService: %v", err)
	}

	report := svc.Health(context.Background())
	if report.Status != "ok" {
		t.Errorf("expected ok, got %s", report.Status)
	}
	if len(report.Components) != 1 || report.Components[0].Name != "firestore" {
		t.Fatalf("unexpected components: %#v", report.Components)
	}
}

func TestHealthReportsDegradedFirestore(t *testing.T) {
	health := &stubHealthRepository{
		pingFn: func(context.Context) error { return errors.New("deadline exceeded") },
	}
	svc, err := NewSystemService(SystemServiceDeps{Health: health})
	if err != nil {
		t.Fatalf("NewSystemService: %v", err)
	}

	report := svc.Health(context.Background())
	if report.Status != "degraded" {
		t.Errorf("expected degraded, got %s", report.Status)
	}
	if report.Components[0].Error != "deadline exceeded" {
		t.Errorf("expected probe error surfaced, got %q", report.Components[0].Error)
	}
}

func TestNewSystemServiceRequiresHealthRepository(t *testing.T) {
	if _, err := NewSystemService(SystemServiceDeps{}); err == nil {
		t.Fatal("expected dependency validation error")
	}
}
