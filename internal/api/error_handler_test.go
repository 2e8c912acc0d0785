package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bakeryflow/identity/internal/api/handler"
	"github.com/bakeryflow/identity/internal/core/domain"
)

func renderError(t *testing.T, err error) (*httptest.ResponseRecorder, handler.Response) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var resp handler.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return rec, resp
}

func TestErrorHandler_DomainErrors(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		status    int
		errorCode string
		message   string
	}{
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid username or password"},
		{"invalid refresh token", domain.ErrInvalidRefreshToken, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired refresh token"},
		{"password mismatch", domain.ErrPasswordMismatch, http.StatusBadRequest, "VALIDATION_ERROR", "Current password is incorrect"},
		{"user not found", domain.ErrUserNotFound, http.StatusNotFound, "NOT_FOUND", "User not found"},
		{"role not found", domain.ErrRoleNotFound, http.StatusNotFound, "NOT_FOUND", "Role not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, resp := renderError(t, tc.err)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if resp.Success {
				t.Fatalf("error envelope must not be success")
			}
			if resp.ErrorCode != tc.errorCode {
				t.Fatalf("expected code %s, got %s", tc.errorCode, resp.ErrorCode)
			}
			if resp.Message != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, resp.Message)
			}
		})
	}
}

func TestErrorHandler_Conflict(t *testing.T) {
	rec, resp := renderError(t, domain.NewConflict("email"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if resp.ErrorCode != "CONFLICT" {
		t.Fatalf("expected CONFLICT, got %s", resp.ErrorCode)
	}
}

func TestErrorHandler_EchoHTTPError(t *testing.T) {
	rec, resp := renderError(t, echo.NewHTTPError(http.StatusForbidden, "access forbidden"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if resp.ErrorCode != "FORBIDDEN" || resp.Message != "access forbidden" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}

func TestErrorHandler_UnexpectedErrorIsOpaque(t *testing.T) {
	rec, resp := renderError(t, errors.New("pq: connection refused"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if resp.ErrorCode != "INTERNAL_ERROR" {
		t.Fatalf("expected INTERNAL_ERROR, got %s", resp.ErrorCode)
	}
	// The internal cause stays in the logs.
	if resp.Message != "internal server error" {
		t.Fatalf("internal details leaked: %q", resp.Message)
	}
}

func TestErrorHandler_CommittedResponseUntouched(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := c.NoContent(http.StatusNoContent); err != nil {
		t.Fatalf("commit response: %v", err)
	}
	NewHTTPErrorHandler(zerolog.Nop())(errors.New("late failure"), c)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("committed response was overwritten: %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("committed response body was appended to: %q", rec.Body.String())
	}
}
