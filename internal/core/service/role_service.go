package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bakeryflow/identity/internal/core/domain"
	"github.com/bakeryflow/identity/internal/core/ports"
)

// RoleService exposes the fixed role set as reference data. Only the
// human-readable description is mutable.
type RoleService struct {
	roles ports.RoleRepository
	users ports.UserRepository
	log   zerolog.Logger
}

func NewRoleService(roles ports.RoleRepository, users ports.UserRepository, log zerolog.Logger) *RoleService {
	return &RoleService{roles: roles, users: users, log: log}
}

func (s *RoleService) List(ctx context.Context, includeCounts bool) ([]*ports.RoleView, error) {
	roles, err := s.roles.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	views := make([]*ports.RoleView, len(roles))
	for i, r := range roles {
		view := toRoleView(r)
		if includeCounts {
			n, err := s.users.CountByRole(ctx, r.Name)
			if err != nil {
				return nil, fmt.Errorf("count users for role %s: %w", r.Name, err)
			}
			view.UserCount = &n
		}
		views[i] = view
	}
	return views, nil
}

func (s *RoleService) GetByID(ctx context.Context, id string) (*ports.RoleView, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toRoleView(role), nil
}

func (s *RoleService) GetByName(ctx context.Context, name string) (*ports.RoleView, error) {
	roleName, err := domain.ParseRoleName(name)
	if err != nil {
		return nil, err
	}
	role, err := s.roles.FindByName(ctx, roleName)
	if err != nil {
		return nil, err
	}
	return toRoleView(role), nil
}

func (s *RoleService) UpdateDescription(ctx context.Context, id string, description string) (*ports.RoleView, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	role.Description = description
	saved, err := s.roles.Save(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("update role description: %w", err)
	}

	s.log.Info().Str("role", string(saved.Name)).Msg("role description updated")
	return toRoleView(saved), nil
}

func toRoleView(r *domain.Role) *ports.RoleView {
	return &ports.RoleView{
		ID:          r.ID,
		Name:        string(r.Name),
		DisplayName: r.Name.DisplayName(),
		Description: r.Description,
	}
}
