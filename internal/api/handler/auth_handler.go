package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/bakeryflow/identity/internal/core/ports"
)

// AuthHandler exposes the authentication endpoints.
type AuthHandler struct {
	auth ports.AuthService
}

func NewAuthHandler(auth ports.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

type registerRequest struct {
	Username    string `json:"username" validate:"required,max=50"`
	Email       string `json:"email" validate:"required,email,max=100"`
	Password    string `json:"password" validate:"required,min=6,max=100"`
	FirstName   string `json:"firstName" validate:"required,max=50"`
	LastName    string `json:"lastName" validate:"required,max=50"`
	EmployeeID  string `json:"employeeId" validate:"omitempty,max=20"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,max=20"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=100"`
}

// Login authenticates a username/password pair and returns an access token,
// a refresh token, and the public user projection.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.auth.Authenticate(c.Request().Context(), req.Username, req.Password, c.RealIP(), req.RememberMe)
	if err != nil {
		return err
	}
	return OK(c, result, "Login successful")
}

// Register creates a new account and auto-authenticates it.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.auth.Register(c.Request().Context(), ports.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		EmployeeID:  req.EmployeeID,
		PhoneNumber: req.PhoneNumber,
		ClientIP:    c.RealIP(),
	})
	if err != nil {
		return err
	}
	return Created(c, result, "Registration successful")
}

// Refresh exchanges a refresh token for a new access token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return OK(c, result, "Token refreshed successfully")
}

// ChangePassword updates the caller's password after re-verifying the
// current one. Requires authentication.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.auth.ChangePassword(c.Request().Context(), p.Username, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return OK(c, nil, "Password changed successfully")
}

type tokenValidity struct {
	Valid    bool     `json:"valid"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

type availability struct {
	Available bool `json:"available"`
}

// Validate confirms the presented access token. Reaching this handler behind
// the access filter and RequireAuthenticated already proves validity; the
// body echoes the token's identity snapshot.
func (h *AuthHandler) Validate(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	return OK(c, tokenValidity{Valid: true, Username: p.Username, Roles: p.Roles}, "Token is valid")
}

// CheckUsername reports whether a username is free to register.
func (h *AuthHandler) CheckUsername(c echo.Context) error {
	available, err := h.auth.UsernameAvailable(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	msg := "Username is available"
	if !available {
		msg = "Username is not available"
	}
	return OK(c, availability{Available: available}, msg)
}

// CheckEmail reports whether an email is free to register.
func (h *AuthHandler) CheckEmail(c echo.Context) error {
	available, err := h.auth.EmailAvailable(c.Request().Context(), c.Param("email"))
	if err != nil {
		return err
	}
	msg := "Email is available"
	if !available {
		msg = "Email is not available"
	}
	return OK(c, availability{Available: available}, msg)
}

// Logout records the logout. Already-issued tokens stay valid until they
// expire; clients are expected to discard them.
func (h *AuthHandler) Logout(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.auth.Logout(c.Request().Context(), p.Username); err != nil {
		return err
	}
	return OK(c, nil, "Logout successful")
}
