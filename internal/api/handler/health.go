package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// HealthHandler handles GET /health. It answers as long as the process serves requests.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Pinger is a dependency that can report whether it is reachable.
type Pinger func(ctx context.Context) error

// ReadinessHandler handles GET /health/ready. The service is ready only when
// every registered dependency answers its ping. Ping errors are logged, never
// returned, because the route is unauthenticated.
type ReadinessHandler struct {
	deps    map[string]Pinger
	timeout time.Duration
	logger  zerolog.Logger
}

func NewReadinessHandler(deps map[string]Pinger, logger zerolog.Logger) *ReadinessHandler {
	return &ReadinessHandler{deps: deps, timeout: 3 * time.Second, logger: logger}
}

type dependencyStatus struct {
	Status string `json:"status"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	deps := make(map[string]dependencyStatus, len(h.deps))
	healthy := true
	for name, ping := range h.deps {
		if err := ping(ctx); err != nil {
			h.logger.Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
			deps[name] = dependencyStatus{Status: "unhealthy"}
			healthy = false
			continue
		}
		deps[name] = dependencyStatus{Status: "ok"}
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	return c.JSON(code, readinessResponse{Status: status, Dependencies: deps})
}
