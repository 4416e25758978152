package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// TelemetryStatus reports the view-telemetry store's availability.
type TelemetryStatus interface {
	Enabled() bool
	Ready() bool
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	db        HealthChecker
	telemetry TelemetryStatus
}

// NewHealthHandler creates a new HealthHandler.
// Pass nil for db or telemetry if they are not initialized.
func NewHealthHandler(db HealthChecker, telemetry TelemetryStatus) *HealthHandler {
	return &HealthHandler{
		db:        db,
		telemetry: telemetry,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe endpoint. It returns 200 while the process
// is serving; no dependency checks.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz is a readiness probe endpoint. Only PostgreSQL decides health;
// the telemetry store is reported but optional, since every page renders
// without it.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			checks["postgres"] = "error: " + err.Error()
			healthy = false
		} else {
			checks["postgres"] = "ok"
		}
	} else {
		checks["postgres"] = "not configured"
	}

	switch {
	case h.telemetry == nil || !h.telemetry.Enabled():
		checks["telemetry"] = "disabled"
	case h.telemetry.Ready():
		checks["telemetry"] = "ok"
	default:
		checks["telemetry"] = "unavailable"
	}

	status := "ok"
	statusCode := http.StatusOK
	if !healthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, HealthResponse{
		Status: status,
		Checks: checks,
	})
}
