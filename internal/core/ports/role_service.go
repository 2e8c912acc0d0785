package ports

import "context"

// RoleView is the public projection of a role, optionally with the number of
// users currently holding it.
type RoleView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	UserCount   *int64 `json:"userCount,omitempty"`
}

// RoleService exposes read and description-edit operations over the fixed
// role set. Roles are reference data; they are never created or deleted here.
type RoleService interface {
	List(ctx context.Context, includeCounts bool) ([]*RoleView, error)
	GetByID(ctx context.Context, id string) (*RoleView, error)
	GetByName(ctx context.Context, name string) (*RoleView, error)
	UpdateDescription(ctx context.Context, id string, description string) (*RoleView, error)
}
