package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"jobscout/internal/background"
	"jobscout/internal/fetch"
	"jobscout/internal/orchestrator"
)

// WorkerStatsHandler reports orchestrator and task queue statistics
func WorkerStatsHandler(orch *orchestrator.Orchestrator, taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"orchestrator": orch.Stats(),
			"tasks":        taskManager.Stats(),
			"timestamp":    time.Now(),
		})
	}
}

// DomainStatsHandler reports rate limiter and circuit breaker state for one domain
func DomainStatsHandler(engines *fetch.Engines) echo.HandlerFunc {
	return func(c echo.Context) error {
		domain := c.Param("domain")
		if domain == "" {
			return badRequest(c, "invalid_request", "Domain is required")
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"domain": domain,
			"stats":  engines.Limiter().DomainStats(domain),
		})
	}
}

// AllDomainStatsHandler reports limiter state for every tracked domain
func AllDomainStatsHandler(engines *fetch.Engines) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"domains":   engines.Limiter().AllStats(),
			"timestamp": time.Now(),
		})
	}
}
