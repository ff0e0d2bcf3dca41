package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"jobscout/internal/api/handlers"
	"jobscout/internal/api/middleware"
	"jobscout/internal/background"
	"jobscout/internal/config"
	"jobscout/internal/fetch"
	"jobscout/internal/llm"
	"jobscout/internal/orchestrator"
)

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, orch *orchestrator.Orchestrator, llmManager *llm.Manager, taskManager background.TaskManager, engines *fetch.Engines) {
	// Global middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.RequestValidation())
	// Selective timeout: 30s for most endpoints, 2 minutes for pipeline endpoints
	e.Use(middleware.SelectiveTimeoutConfig(cfg.Server.ReadTimeout, 2*time.Minute))

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler(llmManager))
		health.GET("/ready", handlers.ReadinessHandler)
		health.GET("/live", handlers.LivenessHandler)
	}

	// Status route
	e.GET("/status", handlers.StatusHandler)

	// API v1 routes
	v1 := e.Group("/api/v1")
	{
		// Discovery pipeline routes
		discover := v1.Group("/discover")
		{
			discover.POST("", handlers.DiscoverHandler(orch))
			discover.POST("/async", handlers.AsyncDiscoverHandler(taskManager))
			discover.POST("/batch", handlers.BatchDiscoverHandler(orch))
			discover.POST("/batch/async", handlers.AsyncBatchDiscoverHandler(taskManager))
		}

		// Background task routes
		tasks := v1.Group("/tasks")
		{
			tasks.GET("/:id", handlers.TaskStatusHandler(taskManager))
		}

		// Worker monitoring routes
		workers := v1.Group("/workers")
		{
			workers.GET("/stats", handlers.WorkerStatsHandler(orch, taskManager))
		}

		// Domain-specific routes
		domains := v1.Group("/domains")
		{
			domains.GET("/stats", handlers.AllDomainStatsHandler(engines))
			domains.GET("/:domain/stats", handlers.DomainStatsHandler(engines))
		}
	}

	// Root route
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "JobScout",
			"version": "1.0.0",
			"status":  "running",
		})
	})
}
