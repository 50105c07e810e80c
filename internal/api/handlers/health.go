package handlers

import (
	"context"
	"net/http"
	"time"

	"codementor/internal/logging"
	"codementor/pkg/models"
	"codementor/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Version is reported by the health endpoints
const Version = "1.0.0"

var startTime = time.Now()

// Checker probes one dependency
type Checker = func(ctx context.Context) error

// runChecks probes every dependency and reports whether all passed
func runChecks(ctx context.Context, checks map[string]Checker) (map[string]string, bool) {
	results := map[string]string{"api": "ok"}
	healthy := true
	for name, check := range checks {
		if err := check(ctx); err != nil {
			results[name] = "error: " + err.Error()
			healthy = false
			continue
		}
		results[name] = "ok"
	}
	return results, healthy
}

// HealthHandler handles health check requests
func HealthHandler(c echo.Context) error {
	requestID := utils.GenerateRequestID()
	logger := logging.GetGlobalLogger()

	logger.Debug("Health check requested", map[string]interface{}{"request_id": requestID})

	response := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(startTime),
		Checks: map[string]string{
			"api": "ok",
		},
	}

	return c.JSON(http.StatusOK, response)
}

// ReadinessHandler reports ready only when every dependency check passes
func ReadinessHandler(checks map[string]Checker) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.GetGlobalLogger()

		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()

		results, ready := runChecks(ctx, checks)
		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
			logger.Warn("Readiness check failed", map[string]interface{}{
				"request_id": requestID,
				"checks":     results,
			})
		}

		return c.JSON(code, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   Version,
			Uptime:    time.Since(startTime),
			Checks:    results,
		})
	}
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(startTime),
	})
}

// StatusHandler provides detailed service status. Dependency failures are
// reported as degraded without failing the request.
func StatusHandler(checks map[string]Checker, details func() map[string]string) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.GetGlobalLogger()

		logger.Debug("Status check requested", map[string]interface{}{"request_id": requestID})

		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()

		results, healthy := runChecks(ctx, checks)
		if details != nil {
			for k, v := range details() {
				results[k] = v
			}
		}

		status := "operational"
		if !healthy {
			status = "degraded"
		}
		return c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   Version,
			Uptime:    time.Since(startTime),
			Checks:    results,
		})
	}
}
