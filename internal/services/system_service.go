package services

import (
	"context"
	"errors"

	"github.com/canvas-market/api/internal/repositories"
)

var errSystemHealthRequired = errors.New("system service: health repository is required")

const (
	healthStatusOK       = "ok"
	healthStatusDegraded = "degraded"
)

// SystemServiceDeps wires the downstream probes.
type SystemServiceDeps struct {
	Health repositories.HealthRepository
	Logger Logger
}

type systemService struct {
	health repositories.HealthRepository
	logger Logger
}

// NewSystemService constructs a SystemService.
func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.Health == nil {
		return nil, errSystemHealthRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &systemService{health: deps.Health, logger: logger}, nil
}

// Health probes downstream dependencies and reports per-component status.
func (s *systemService) Health(ctx context.Context) HealthReport {
	report := HealthReport{Status: healthStatusOK}

	firestore := ComponentHealth{Name: "firestore", Status: healthStatusOK}
	if err := s.health.Ping(ctx); err != nil {
		firestore.Status = healthStatusDegraded
		firestore.Error = err.Error()
		report.Status = healthStatusDegraded
		s.logger(ctx, "system.health.degraded", map[string]any{
			"component": "firestore",
			"error":     err.Error(),
		})
	}
	report.Components = append(report.Components, firestore)

	return report
}
