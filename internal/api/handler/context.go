package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bakeryflow/identity/internal/api/middleware"
)

// currentPrincipal extracts the identity attached by the access filter.
// Handlers that reach here behind RequireRoles/RequireAuthenticated will
// always find one; the fallback 401 covers misconfigured routes.
func currentPrincipal(c echo.Context) (*middleware.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return p, nil
}
