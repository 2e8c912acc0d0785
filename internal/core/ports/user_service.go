package ports

import (
	"context"

	"github.com/bakeryflow/identity/internal/core/domain"
)

// CreateUserInput carries the fields an administrator supplies when creating
// a user directly (as opposed to self-registration).
type CreateUserInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	EmployeeID  string
	PhoneNumber string
	Roles       []domain.RoleName
	Enabled     bool
}

// UpdateUserInput carries the mutable profile fields. Nil pointers mean
// "leave unchanged".
type UpdateUserInput struct {
	Email       *string
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	Enabled     *bool
}

// UserViewPage is one page of public user projections.
type UserViewPage struct {
	Users []*domain.UserView `json:"users"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Size  int                `json:"size"`
}

// UserService exposes CRUD over user records. Authorization is enforced at
// the transport layer; the service assumes the caller is already allowed.
type UserService interface {
	List(ctx context.Context, opts ListOptions) (*UserViewPage, error)
	Search(ctx context.Context, query string, opts ListOptions) (*UserViewPage, error)
	GetByID(ctx context.Context, id string) (*domain.UserView, error)
	GetByUsername(ctx context.Context, username string) (*domain.UserView, error)
	Create(ctx context.Context, input CreateUserInput) (*domain.UserView, error)
	Update(ctx context.Context, id string, input UpdateUserInput) (*domain.UserView, error)
	SetEnabled(ctx context.Context, id string, enabled bool) (*domain.UserView, error)
	AssignRole(ctx context.Context, id string, role domain.RoleName) (*domain.UserView, error)
	RemoveRole(ctx context.Context, id string, role domain.RoleName) (*domain.UserView, error)
	Delete(ctx context.Context, id string) error
}
