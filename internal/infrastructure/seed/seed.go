// Package seed initializes the reference data the service depends on: the
// fixed role set and, when configured, a bootstrap administrator account.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bakeryflow/identity/internal/core/domain"
	"github.com/bakeryflow/identity/internal/core/ports"
	"github.com/bakeryflow/identity/internal/infrastructure/config"
	"github.com/bakeryflow/identity/internal/pkg/hash"
)

// Run seeds roles and the default admin. Idempotent: existing data is left
// untouched, so it is safe on every startup.
func Run(ctx context.Context, roles ports.RoleRepository, users ports.UserRepository, cfg config.SeedConfig, log zerolog.Logger) error {
	if err := seedRoles(ctx, roles, log); err != nil {
		return err
	}
	return seedAdmin(ctx, users, cfg, log)
}

// seedRoles creates any role missing from the store. Checking each role
// individually repairs a partially seeded set (interrupted first startup,
// manually deleted role) without touching existing descriptions.
func seedRoles(ctx context.Context, roles ports.RoleRepository, log zerolog.Logger) error {
	created := 0
	for _, name := range domain.AllRoles {
		_, err := roles.FindByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrRoleNotFound) {
			return fmt.Errorf("look up role %s: %w", name, err)
		}

		role := &domain.Role{Name: name, Description: name.DefaultDescription()}
		if _, err := roles.Save(ctx, role); err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
		created++
	}

	if created > 0 {
		log.Info().Int("count", created).Msg("missing default roles created")
	} else {
		log.Debug().Msg("roles already seeded")
	}
	return nil
}

func seedAdmin(ctx context.Context, users ports.UserRepository, cfg config.SeedConfig, log zerolog.Logger) error {
	if cfg.AdminPassword == "" {
		log.Debug().Msg("no admin password configured, skipping admin seed")
		return nil
	}

	_, err := users.FindByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		log.Debug().Str("username", cfg.AdminUsername).Msg("admin user already exists")
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("look up admin user: %w", err)
	}

	pwHash, err := hash.Password(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now().UTC()
	admin := &domain.User{
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: pwHash,
		FirstName:    "System",
		LastName:     "Administrator",
		Enabled:      true,
		Roles:        []domain.RoleName{domain.RoleAdmin},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	log.Info().Str("username", cfg.AdminUsername).Msg("bootstrap admin user created")
	return nil
}
