package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bakeryflow/identity/internal/core/domain"
	"github.com/bakeryflow/identity/internal/core/ports"
	"github.com/bakeryflow/identity/internal/pkg/hash"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// UserService implements CRUD over user records on top of the credential
// store. Uniqueness and atomic read-modify-write guarantees are delegated to
// the repository.
type UserService struct {
	users ports.UserRepository
	log   zerolog.Logger
}

func NewUserService(users ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{users: users, log: log}
}

// List returns one page of users ordered per opts.
func (s *UserService) List(ctx context.Context, opts ports.ListOptions) (*ports.UserViewPage, error) {
	opts = normalize(opts)
	page, err := s.users.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return toViewPage(page, opts), nil
}

// Search returns users whose username, email, or name contains the query.
func (s *UserService) Search(ctx context.Context, query string, opts ports.ListOptions) (*ports.UserViewPage, error) {
	opts = normalize(opts)
	page, err := s.users.Search(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return toViewPage(page, opts), nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.UserView, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.View(), nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.UserView, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return user.View(), nil
}

// Create adds a user on behalf of an administrator. Unlike self-registration
// the caller picks the role set and enabled flag.
func (s *UserService) Create(ctx context.Context, input ports.CreateUserInput) (*domain.UserView, error) {
	if taken, err := s.users.ExistsByUsername(ctx, input.Username); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	} else if taken {
		return nil, domain.NewConflict("username")
	}
	if taken, err := s.users.ExistsByEmail(ctx, input.Email); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if taken {
		return nil, domain.NewConflict("email")
	}
	if input.EmployeeID != "" {
		if taken, err := s.users.ExistsByEmployeeID(ctx, input.EmployeeID); err != nil {
			return nil, fmt.Errorf("check employee id: %w", err)
		} else if taken {
			return nil, domain.NewConflict("employeeId")
		}
	}

	roles := input.Roles
	if len(roles) == 0 {
		roles = []domain.RoleName{domain.DefaultRole}
	}

	pwHash, err := hash.Password(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: pwHash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PhoneNumber:  input.PhoneNumber,
		EmployeeID:   input.EmployeeID,
		Enabled:      input.Enabled,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("username", created.Username).Msg("user created")
	return created.View(), nil
}

// Update applies the non-nil profile fields.
func (s *UserService) Update(ctx context.Context, id string, input ports.UpdateUserInput) (*domain.UserView, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && *input.Email != user.Email {
		if taken, err := s.users.ExistsByEmail(ctx, *input.Email); err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		} else if taken {
			return nil, domain.NewConflict("email")
		}
		user.Email = *input.Email
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.PhoneNumber != nil {
		user.PhoneNumber = *input.PhoneNumber
	}
	if input.Enabled != nil {
		user.Enabled = *input.Enabled
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user.View(), nil
}

// SetEnabled soft-disables or re-enables an account. Disabling is the normal
// removal path; hard delete is reserved for administrative cleanup.
func (s *UserService) SetEnabled(ctx context.Context, id string, enabled bool) (*domain.UserView, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Enabled = enabled
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("set enabled: %w", err)
	}

	s.log.Info().Str("username", user.Username).Bool("enabled", enabled).Msg("user enabled flag changed")
	return user.View(), nil
}

// AssignRole adds a role to the user. Idempotent.
func (s *UserService) AssignRole(ctx context.Context, id string, role domain.RoleName) (*domain.UserView, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !user.HasRole(role) {
		user.Roles = append(user.Roles, role)
		user.UpdatedAt = time.Now().UTC()
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("assign role: %w", err)
		}
	}
	return user.View(), nil
}

// RemoveRole removes a role from the user. Idempotent.
func (s *UserService) RemoveRole(ctx context.Context, id string, role domain.RoleName) (*domain.UserView, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.HasRole(role) {
		kept := user.Roles[:0]
		for _, r := range user.Roles {
			if r != role {
				kept = append(kept, r)
			}
		}
		user.Roles = kept
		user.UpdatedAt = time.Now().UTC()
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("remove role: %w", err)
		}
	}
	return user.View(), nil
}

// Delete removes the record permanently. Administrative action only.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

func normalize(opts ports.ListOptions) ports.ListOptions {
	if opts.Size <= 0 {
		opts.Size = defaultPageSize
	}
	if opts.Size > maxPageSize {
		opts.Size = maxPageSize
	}
	if opts.Page < 0 {
		opts.Page = 0
	}
	if opts.SortBy == "" {
		opts.SortBy = "username"
	}
	return opts
}

func toViewPage(page *ports.UserPage, opts ports.ListOptions) *ports.UserViewPage {
	views := make([]*domain.UserView, len(page.Users))
	for i, u := range page.Users {
		views[i] = u.View()
	}
	return &ports.UserViewPage{Users: views, Total: page.Total, Page: opts.Page, Size: opts.Size}
}
