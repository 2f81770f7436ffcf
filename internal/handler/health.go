package handler // declare the package name; contains HTTP handlers

import (
	"net/http" // net/http provides status codes and response helpers
	"time"

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is a simple health-check endpoint used by load balancers
// and monitoring systems to verify that the service is running.
func Health(c echo.Context) error {
	start := time.Now()
	return c.JSON(http.StatusOK, echo.Map{
		"status":           "Healthy",
		"timestamp":        time.Now().UTC(),
		"response_time_ms": float64(time.Since(start).Microseconds()) / 1000.0,
	})
}
