package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bakeryflow/identity/internal/core/ports"
)

// RoleHandler exposes the fixed role set.
type RoleHandler struct {
	roles ports.RoleService
}

func NewRoleHandler(roles ports.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

type updateRoleRequest struct {
	Description string `json:"description" validate:"required,max=500"`
}

// List returns every role, optionally with per-role user counts.
func (h *RoleHandler) List(c echo.Context) error {
	includeCounts, _ := strconv.ParseBool(c.QueryParam("includeCounts"))

	views, err := h.roles.List(c.Request().Context(), includeCounts)
	if err != nil {
		return err
	}
	return OK(c, views, "Roles retrieved successfully")
}

// GetByID returns one role.
func (h *RoleHandler) GetByID(c echo.Context) error {
	view, err := h.roles.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return OK(c, view, "Role retrieved successfully")
}

// GetByName returns one role looked up by its enumeration name.
func (h *RoleHandler) GetByName(c echo.Context) error {
	view, err := h.roles.GetByName(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return OK(c, view, "Role retrieved successfully")
}

// UpdateDescription edits a role's human-readable description.
func (h *RoleHandler) UpdateDescription(c echo.Context) error {
	var req updateRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	view, err := h.roles.UpdateDescription(c.Request().Context(), c.Param("id"), req.Description)
	if err != nil {
		return err
	}
	return OK(c, view, "Role updated successfully")
}
