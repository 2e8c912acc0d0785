package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bakeryflow/identity/internal/api/handler"
	"github.com/bakeryflow/identity/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the uniform response envelope on every error path.
//
// Authentication failures deliberately collapse into one generic message so
// the response never distinguishes "unknown user" from "wrong password".
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, errorCode, msg := resolveError(err, log, c)
		_ = handler.Fail(c, code, errorCode, msg)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (status int, errorCode, msg string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, codeFor(he.Code), fmt.Sprintf("%v", he.Message)
	}

	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return http.StatusConflict, "CONFLICT", conflict.Error()
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Invalid username or password"
	case errors.Is(err, domain.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired refresh token"
	case errors.Is(err, domain.ErrPasswordMismatch):
		return http.StatusBadRequest, "VALIDATION_ERROR", "Current password is incorrect"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "NOT_FOUND", "User not found"
	case errors.Is(err, domain.ErrRoleNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Role not found"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "VALIDATION_ERROR"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	default:
		return "ERROR"
	}
}
