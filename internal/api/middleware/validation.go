package middleware

import (
	"net/http"
	"time"

	"jobscout/pkg/models"
	"jobscout/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Request bodies past this size are rejected before binding.
const maxRequestBody = 1 << 20

// RequestValidation tags every request with an ID and enforces the body
// size limit on writes.
func RequestValidation() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := utils.GenerateRequestID()
			c.Set("request_id", requestID)
			c.Response().Header().Set("X-Request-ID", requestID)

			if c.Request().Method == http.MethodPost && c.Request().ContentLength > maxRequestBody {
				return c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
					Error:     "request_too_large",
					Message:   "Request body too large",
					RequestID: requestID,
					Timestamp: time.Now(),
				})
			}

			return next(c)
		}
	}
}
