package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// TimeoutConfig returns timeout middleware configuration
func TimeoutConfig(timeout time.Duration) echo.MiddlewareFunc {
	return middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: timeout,
	})
}

// SelectiveTimeoutConfig applies the default timeout to most endpoints and a
// longer one to pipeline endpoints, which wait on remote sites and the LLM.
func SelectiveTimeoutConfig(defaultTimeout, pipelineTimeout time.Duration) echo.MiddlewareFunc {
	standard := middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: defaultTimeout,
	})
	pipeline := middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: pipelineTimeout,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if strings.HasPrefix(c.Path(), "/api/v1/discover") {
				return pipeline(next)(c)
			}
			return standard(next)(c)
		}
	}
}
