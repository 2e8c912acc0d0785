package ports

import (
	"context"

	"github.com/bakeryflow/identity/internal/core/domain"
)

// RoleRepository persists the fixed role enumeration's reference records.
type RoleRepository interface {
	FindAll(ctx context.Context) ([]*domain.Role, error)
	FindByID(ctx context.Context, id string) (*domain.Role, error)
	FindByName(ctx context.Context, name domain.RoleName) (*domain.Role, error)
	Save(ctx context.Context, role *domain.Role) (*domain.Role, error)
}
