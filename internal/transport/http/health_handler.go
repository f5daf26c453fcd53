package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"lobstats/internal/services"
	api "lobstats/pkg/contracts/api/v1"
)

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	service HealthServiceInterface
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service HealthServiceInterface, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /server/api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse(h.service.HealthCheck(r.Context())))
}

// ReadinessCheck handles GET /server/api/health/ready. It answers 503 until
// the dataset has loaded.
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := h.service.ReadinessCheck(r.Context())
	if status.Status != services.StatusReady {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, healthResponse(status))
}

// LivenessCheck handles GET /server/api/health/live
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse(h.service.LivenessCheck(r.Context())))
}

// Version handles GET /server/api/version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Version())
}

func healthResponse(status services.HealthStatus) api.HealthResponse {
	return api.HealthResponse{
		Status:    status.Status,
		Timestamp: status.Timestamp,
		Version:   status.Version,
		Runtime:   status.Runtime,
		Services:  status.Services,
	}
}
