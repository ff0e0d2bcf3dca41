package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"jobscout/internal/background"
	"jobscout/internal/logging"
	"jobscout/internal/orchestrator"
	"jobscout/pkg/models"
)

var validate = validator.New()

func requestID(c echo.Context) string {
	if id, ok := c.Get("request_id").(string); ok {
		return id
	}
	return ""
}

func badRequest(c echo.Context, errType, message string) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:     errType,
		Message:   message,
		RequestID: requestID(c),
		Timestamp: time.Now(),
	})
}

// DiscoverHandler runs the full pipeline for one company synchronously
func DiscoverHandler(orch *orchestrator.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.DiscoveryRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid_request", "Request body could not be parsed")
		}
		if err := validate.Struct(&req); err != nil {
			return badRequest(c, "validation_failed", err.Error())
		}

		logging.GetGlobalLogger().Info("Discovery request received", map[string]interface{}{
			"company":    req.CompanyName,
			"website":    req.CompanyWebsite,
			"request_id": requestID(c),
		})

		result := orch.RunCompany(c.Request().Context(), &req)
		return c.JSON(http.StatusOK, result)
	}
}

// BatchDiscoverHandler runs the pipeline for multiple companies
// synchronously and returns the aggregated report.
func BatchDiscoverHandler(orch *orchestrator.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var batch models.BatchDiscoveryRequest
		if err := c.Bind(&batch); err != nil {
			return badRequest(c, "invalid_request", "Request body could not be parsed")
		}
		if err := validate.Struct(&batch); err != nil {
			return badRequest(c, "validation_failed", err.Error())
		}

		logging.GetGlobalLogger().Info("Batch discovery request received", map[string]interface{}{
			"companies":  len(batch.Companies),
			"request_id": requestID(c),
		})

		result := orch.RunBatch(c.Request().Context(), &batch)
		return c.JSON(http.StatusOK, result)
	}
}

// AsyncDiscoverHandler accepts a single-company discovery for background
// processing and returns a process ID immediately.
func AsyncDiscoverHandler(taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.DiscoveryRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid_request", "Request body could not be parsed")
		}
		if err := validate.Struct(&req); err != nil {
			return badRequest(c, "validation_failed", err.Error())
		}

		processID, err := taskManager.SubmitDiscovery(c.Request().Context(), &req)
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, models.CreateAsyncErrorResponse(
				"submission_failed", err.Error(), processID))
		}

		return c.JSON(http.StatusAccepted, models.CreateAsyncDiscoveryResponse(
			processID, "Discovery request accepted for background processing"))
	}
}

// AsyncBatchDiscoverHandler accepts a batch for background processing
func AsyncBatchDiscoverHandler(taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		var batch models.BatchDiscoveryRequest
		if err := c.Bind(&batch); err != nil {
			return badRequest(c, "invalid_request", "Request body could not be parsed")
		}
		if err := validate.Struct(&batch); err != nil {
			return badRequest(c, "validation_failed", err.Error())
		}

		processID, err := taskManager.SubmitBatch(c.Request().Context(), &batch)
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, models.CreateAsyncErrorResponse(
				"submission_failed", err.Error(), processID))
		}

		return c.JSON(http.StatusAccepted, models.CreateAsyncDiscoveryResponse(
			processID, "Batch discovery accepted for background processing"))
	}
}
