package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bakeryflow/identity/internal/core/domain"
	"github.com/bakeryflow/identity/internal/core/ports"
)

// UserHandler exposes CRUD over user records.
type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type createUserRequest struct {
	Username    string   `json:"username" validate:"required,min=3,max=50"`
	Email       string   `json:"email" validate:"required,email,max=100"`
	Password    string   `json:"password" validate:"required,min=6,max=100"`
	FirstName   string   `json:"firstName" validate:"required,max=50"`
	LastName    string   `json:"lastName" validate:"required,max=50"`
	EmployeeID  string   `json:"employeeId" validate:"omitempty,max=20"`
	PhoneNumber string   `json:"phoneNumber" validate:"omitempty,max=20"`
	Roles       []string `json:"roles" validate:"omitempty,dive,oneof=ADMIN MANAGER BAKER CASHIER INVENTORY"`
	Enabled     *bool    `json:"enabled"`
}

type updateUserRequest struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	FirstName   *string `json:"firstName" validate:"omitempty,max=50"`
	LastName    *string `json:"lastName" validate:"omitempty,max=50"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=20"`
	Enabled     *bool   `json:"enabled"`
}

type setEnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// List returns one page of users. With a non-empty q parameter it searches
// by username/email/name fragment instead.
func (h *UserHandler) List(c echo.Context) error {
	opts := listOptions(c)

	var (
		page *ports.UserViewPage
		err  error
	)
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		page, err = h.users.Search(c.Request().Context(), q, opts)
	} else {
		page, err = h.users.List(c.Request().Context(), opts)
	}
	if err != nil {
		return err
	}
	return OK(c, page, fmt.Sprintf("Retrieved %d users", page.Total))
}

// GetByID returns one user.
func (h *UserHandler) GetByID(c echo.Context) error {
	view, err := h.users.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return OK(c, view, "User retrieved successfully")
}

// Me returns the authenticated caller's record, resolved fresh from the
// store (not the token snapshot).
func (h *UserHandler) Me(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	view, err := h.users.GetByUsername(c.Request().Context(), p.Username)
	if err != nil {
		return err
	}
	return OK(c, view, "Current user retrieved successfully")
}

// Create adds a user with an explicit role set. Administrative endpoint.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	roles := make([]domain.RoleName, 0, len(req.Roles))
	for _, r := range req.Roles {
		name, err := domain.ParseRoleName(r)
		if err != nil {
			return err
		}
		roles = append(roles, name)
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	view, err := h.users.Create(c.Request().Context(), ports.CreateUserInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		EmployeeID:  req.EmployeeID,
		PhoneNumber: req.PhoneNumber,
		Roles:       roles,
		Enabled:     enabled,
	})
	if err != nil {
		return err
	}
	return Created(c, view, "User created successfully")
}

// Update applies profile changes to a user.
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	view, err := h.users.Update(c.Request().Context(), c.Param("id"), ports.UpdateUserInput{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Enabled:     req.Enabled,
	})
	if err != nil {
		return err
	}
	return OK(c, view, "User updated successfully")
}

// SetEnabled soft-disables or re-enables an account.
func (h *UserHandler) SetEnabled(c echo.Context) error {
	var req setEnabledRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	view, err := h.users.SetEnabled(c.Request().Context(), c.Param("id"), *req.Enabled)
	if err != nil {
		return err
	}
	return OK(c, view, "User updated successfully")
}

// AssignRole adds a role to a user.
func (h *UserHandler) AssignRole(c echo.Context) error {
	role, err := domain.ParseRoleName(c.Param("role"))
	if err != nil {
		return err
	}

	view, err := h.users.AssignRole(c.Request().Context(), c.Param("id"), role)
	if err != nil {
		return err
	}
	return OK(c, view, "Role assigned successfully")
}

// RemoveRole removes a role from a user.
func (h *UserHandler) RemoveRole(c echo.Context) error {
	role, err := domain.ParseRoleName(c.Param("role"))
	if err != nil {
		return err
	}

	view, err := h.users.RemoveRole(c.Request().Context(), c.Param("id"), role)
	if err != nil {
		return err
	}
	return OK(c, view, "Role removed successfully")
}

// Delete permanently removes a user record.
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.users.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return OK(c, nil, "User deleted successfully")
}

// listOptions reads the pagination query parameters. Page is zero-based.
func listOptions(c echo.Context) ports.ListOptions {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	return ports.ListOptions{
		Page:     page,
		Size:     size,
		SortBy:   c.QueryParam("sortBy"),
		SortDesc: strings.EqualFold(c.QueryParam("sortDir"), "desc"),
	}
}
