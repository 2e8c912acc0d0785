package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// bind decodes and validates a request body, mapping both failure modes to a
// 400 for the central error handler to render.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
