package http

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	api "tokenauth/pkg/contracts/api/v1"
)

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	version string
	now     func() time.Time
}

// NewHealthHandler creates a new health handler; now defaults to time.Now
func NewHealthHandler(version string, now func() time.Time) *HealthHandler {
	if now == nil {
		now = time.Now
	}
	return &HealthHandler{version: version, now: now}
}

// HealthCheck handles GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Version:   h.version,
	})
}
