package handlers

import (
	"net/http"
	"time"

	"github.com/canvas-market/api/internal/services"
)

// HealthHandlers serves the liveness and readiness probes. Liveness only
// reports the process is up; readiness probes downstream dependencies.
type HealthHandlers struct {
	system services.SystemService
	clock  func() time.Time
	start  time.Time
}

// HealthOption customises the health handlers.
type HealthOption func(*HealthHandlers)

// WithSystemService wires the readiness probe to the system service.
func WithSystemService(system services.SystemService) HealthOption {
	return func(h *HealthHandlers) {
		h.system = system
	}
}

// WithHealthClock overrides the clock, for tests.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewHealthHandlers constructs the probe handlers.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{clock: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	h.start = h.clock()
	return h
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	writeJSONResponse(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Uptime:    now.Sub(h.start).String(),
		Timestamp: now.UTC().Format(time.RFC3339),
	})
}

// Readyz probes downstream dependencies and reports 503 when any is degraded.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	resp := healthResponse{
		Status:    "ok",
		Uptime:    now.Sub(h.start).String(),
		Timestamp: now.UTC().Format(time.RFC3339),
	}

	status := http.StatusOK
	if h.system != nil {
		report := h.system.Health(r.Context())
		resp.Status = report.Status
		for _, component := range report.Components {
			resp.Components = append(resp.Components, componentPayload{
				Name:   component.Name,
				Status: component.Status,
				Error:  component.Error,
			})
		}
		if report.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
	}
	writeJSONResponse(w, status, resp)
}

type healthResponse struct {
	Status     string             `json:"status"`
	Uptime     string             `json:"uptime"`
	Timestamp  string             `json:"timestamp"`
	Components []componentPayload `json:"components,omitempty"`
}

type componentPayload struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
