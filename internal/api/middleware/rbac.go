package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bakeryflow/identity/internal/core/domain"
)

// RequireRoles enforces role-based access control on a route. Anonymous
// callers get 401; authenticated callers lacking every allowed role get 403.
func RequireRoles(allowed ...domain.RoleName) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !p.HasAnyRole(allowed...) {
				return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
			}
			return next(c)
		}
	}
}

// RequireAuthenticated admits any caller with a valid access token,
// regardless of role.
func RequireAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := PrincipalFrom(c); !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}
