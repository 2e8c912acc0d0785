package ports

import (
	"context"

	"github.com/bakeryflow/identity/internal/core/domain"
)

// ListOptions controls pagination and sorting for user listings.
// Page is zero-based.
type ListOptions struct {
	Page     int
	Size     int
	SortBy   string
	SortDesc bool
}

// UserPage is one page of users plus the unpaged total.
type UserPage struct {
	Users []*domain.User
	Total int64
}

// UserRepository is the credential store contract. Uniqueness of username,
// email, and employee id is enforced by the store itself (unique indexes);
// the services above it do not lock.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByEmployeeID(ctx context.Context, employeeID string) (bool, error)
	List(ctx context.Context, opts ListOptions) (*UserPage, error)
	Search(ctx context.Context, query string, opts ListOptions) (*UserPage, error)
	CountByRole(ctx context.Context, role domain.RoleName) (int64, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}
