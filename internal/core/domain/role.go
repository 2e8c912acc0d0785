package domain

import "strings"

// RoleName identifies one of the fixed staff roles.
type RoleName string

const (
	RoleAdmin     RoleName = "ADMIN"
	RoleManager   RoleName = "MANAGER"
	RoleBaker     RoleName = "BAKER"
	RoleCashier   RoleName = "CASHIER"
	RoleInventory RoleName = "INVENTORY"
)

// AllRoles lists every role in the system. Roles are reference data: seeded at
// startup, never created or removed through the normal operation flow.
var AllRoles = []RoleName{RoleAdmin, RoleManager, RoleBaker, RoleCashier, RoleInventory}

// DefaultRole is assigned to self-registered users.
const DefaultRole = RoleBaker

// ParseRoleName maps a string (case-insensitive) to a RoleName.
func ParseRoleName(s string) (RoleName, error) {
	name := RoleName(strings.ToUpper(strings.TrimSpace(s)))
	for _, r := range AllRoles {
		if r == name {
			return r, nil
		}
	}
	return "", ErrRoleNotFound
}

// Role is the stored representation of a role: the fixed name plus a
// human-readable description that administrators may edit.
type Role struct {
	ID          string   `json:"id"`
	Name        RoleName `json:"name"`
	Description string   `json:"description"`
}

// DisplayName returns the human-friendly label for the role.
func (r RoleName) DisplayName() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleManager:
		return "Manager"
	case RoleBaker:
		return "Baker"
	case RoleCashier:
		return "Cashier"
	case RoleInventory:
		return "Inventory Staff"
	default:
		return string(r)
	}
}

// DefaultDescription returns the seed description for the role.
func (r RoleName) DefaultDescription() string {
	switch r {
	case RoleAdmin:
		return "Full system access including user management"
	case RoleManager:
		return "Can manage operations, inventory, and view reports"
	case RoleBaker:
		return "Can manage production workflows and view assigned tasks"
	case RoleCashier:
		return "Can handle orders and payments"
	case RoleInventory:
		return "Can manage stock and inventory"
	default:
		return ""
	}
}
