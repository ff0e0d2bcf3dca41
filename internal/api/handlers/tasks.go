package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"jobscout/internal/background"
	"jobscout/pkg/models"
)

// TaskStatusHandler returns the status of a background task by process ID
func TaskStatusHandler(taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		processID := c.Param("id")
		if processID == "" {
			return badRequest(c, "invalid_request", "Process ID is required")
		}

		status, err := taskManager.GetTaskStatus(c.Request().Context(), processID)
		if err != nil {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:     "task_not_found",
				Message:   "No task found for the given process ID",
				RequestID: requestID(c),
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, status)
	}
}
