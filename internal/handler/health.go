package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// HealthHandler answers load balancer probes.
type HealthHandler struct {
    Started time.Time
}

// Health returns 200 with the process uptime.
func (h *HealthHandler) Health(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{
        "status": "ok",
        "uptime": time.Since(h.Started).Round(time.Second).String(),
    })
}
