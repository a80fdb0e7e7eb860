package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health reports that the service is up. Load balancers poll it.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
