package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"jobscout/internal/llm"
	"jobscout/pkg/models"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthHandler returns the overall service health
func HealthHandler(llmManager *llm.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		checks := map[string]string{
			"server": "ok",
		}

		if llmManager.Available() {
			if err := llmManager.IsHealthy(c.Request().Context()); err != nil {
				checks["llm"] = "degraded"
			} else {
				checks["llm"] = "ok"
			}
		} else {
			checks["llm"] = "not_configured"
		}

		return c.JSON(http.StatusOK, models.HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now(),
			Version:   version,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			Checks:    checks,
		})
	}
}

// ReadinessHandler reports whether the service can accept traffic
func ReadinessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessHandler reports process liveness
func LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// StatusHandler returns basic service information
func StatusHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"service": "JobScout",
		"version": version,
		"status":  "running",
		"uptime":  time.Since(startTime).Round(time.Second).String(),
	})
}
