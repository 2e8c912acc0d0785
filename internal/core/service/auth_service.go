package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bakeryflow/identity/internal/api/metrics"
	"github.com/bakeryflow/identity/internal/core/domain"
	"github.com/bakeryflow/identity/internal/core/ports"
	"github.com/bakeryflow/identity/internal/core/token"
	"github.com/bakeryflow/identity/internal/pkg/hash"
)

const bearerTokenType = "Bearer"

// AuthService implements credential verification, token issuance, token
// refresh, and logout bookkeeping. Stateless per call: every operation is
// independently parallelizable, the only shared resource is the repository.
type AuthService struct {
	users    ports.UserRepository
	codec    *token.Codec
	throttle ports.LoginThrottle
	log      zerolog.Logger
}

// NewAuthService wires the authenticator. throttle may be nil, in which case
// failed-login attempts are not rate limited.
func NewAuthService(users ports.UserRepository, codec *token.Codec, throttle ports.LoginThrottle, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, codec: codec, throttle: throttle, log: log}
}

// Authenticate verifies a username/password pair and issues one access token
// and one refresh token. Every failure mode — unknown user, disabled account,
// wrong password, store error — collapses into ErrInvalidCredentials so the
// response never reveals whether the username existed. The internal cause is
// logged instead. Throttling is keyed by username+clientIP so failed attempts
// from one address cannot lock the username out everywhere.
func (s *AuthService) Authenticate(ctx context.Context, username, password, clientIP string, remember bool) (*ports.LoginResult, error) {
	if username == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	attemptKey := throttleKey(username, clientIP)
	if !s.allowAttempt(ctx, attemptKey) {
		metrics.LoginsTotal.WithLabelValues("throttled").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Error().Err(err).Msg("credential store lookup failed during login")
		} else {
			s.log.Debug().Str("username", username).Msg("login attempt for unknown user")
		}
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if !user.Enabled {
		s.log.Warn().Str("username", username).Msg("login attempt for disabled account")
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if !hash.Verify(password, user.PasswordHash) {
		s.log.Debug().Str("username", username).Msg("login attempt with wrong password")
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	s.resetAttempts(ctx, attemptKey)

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.log.Error().Err(err).Str("username", username).Msg("failed to record last login")
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	result, err := s.issueTokens(user, remember, true)
	if err != nil {
		s.log.Error().Err(err).Str("username", username).Msg("token issuance failed")
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("username", username).Msg("user authenticated")
	return result, nil
}

// Register creates a new enabled user with the default role after uniqueness
// checks on username, email, and employee id, then auto-authenticates:
// registration implies login.
func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.LoginResult, error) {
	if taken, err := s.users.ExistsByUsername(ctx, input.Username); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	} else if taken {
		metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		return nil, domain.NewConflict("username")
	}

	if taken, err := s.users.ExistsByEmail(ctx, input.Email); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if taken {
		metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		return nil, domain.NewConflict("email")
	}

	if input.EmployeeID != "" {
		if taken, err := s.users.ExistsByEmployeeID(ctx, input.EmployeeID); err != nil {
			return nil, fmt.Errorf("check employee id: %w", err)
		} else if taken {
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return nil, domain.NewConflict("employeeId")
		}
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
		Enabled:      true,
		Roles:        []domain.RoleName{domain.DefaultRole},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("username", input.Username).Msg("user registered")

	return s.Authenticate(ctx, input.Username, input.Password, input.ClientIP, false)
}

// UsernameAvailable reports whether no account holds the username yet.
func (s *AuthService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return !taken, nil
}

// EmailAvailable reports whether no account holds the email yet.
func (s *AuthService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	taken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return !taken, nil
}

// Refresh exchanges a valid refresh token for a new access token. The token
// must be of kind refresh — an access token presented here is rejected even
// when its signature and expiration are fine. The principal is re-resolved
// from the store, so role changes since the original login take effect here.
// The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.LoginResult, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		s.log.Debug().Err(err).Msg("refresh token failed validation")
		metrics.TokenRefreshTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidRefreshToken
	}

	if claims.TokenType != token.KindRefresh {
		s.log.Debug().Str("token_type", string(claims.TokenType)).Msg("refresh called with wrong token kind")
		metrics.TokenRefreshTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidRefreshToken
	}

	user, err := s.users.FindByUsername(ctx, claims.Subject)
	if err != nil {
		s.log.Debug().Err(err).Str("username", claims.Subject).Msg("refresh token subject not resolvable")
		metrics.TokenRefreshTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidRefreshToken
	}

	if !user.Enabled {
		s.log.Warn().Str("username", user.Username).Msg("refresh attempt for disabled account")
		metrics.TokenRefreshTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidRefreshToken
	}

	result, err := s.issueTokens(user, false, false)
	if err != nil {
		s.log.Error().Err(err).Str("username", user.Username).Msg("token issuance failed on refresh")
		metrics.TokenRefreshTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidRefreshToken
	}

	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	return result, nil
}

// ChangePassword re-verifies the current password before writing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, username, currentPassword, newPassword string) error {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	if !hash.Verify(currentPassword, user.PasswordHash) {
		return domain.ErrPasswordMismatch
	}

	pwHash, err := hash.Password(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = pwHash
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.log.Info().Str("username", username).Msg("password changed")
	return nil
}

// Logout is bookkeeping only. Issued tokens are self-contained and remain
// valid until their natural expiration; there is no server-side denylist.
// This is a deliberate design choice, not an oversight — real invalidation
// would need a denylist keyed by token id with TTL equal to the remaining
// token lifetime.
func (s *AuthService) Logout(ctx context.Context, username string) error {
	s.log.Info().Str("username", username).Msg("user logged out")
	return nil
}

// issueTokens signs the tokens for a verified principal. withRefresh is false
// on the refresh path, which returns a new access token only.
func (s *AuthService) issueTokens(user *domain.User, remember, withRefresh bool) (*ports.LoginResult, error) {
	accessToken, err := s.codec.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	metrics.TokensIssuedTotal.WithLabelValues(string(token.KindAccess)).Inc()

	result := &ports.LoginResult{
		AccessToken: accessToken,
		TokenType:   bearerTokenType,
		ExpiresIn:   s.codec.AccessTTL().Milliseconds(),
		User:        user.View(),
	}

	if withRefresh {
		refreshToken, err := s.codec.IssueRefresh(user, remember)
		if err != nil {
			return nil, fmt.Errorf("issue refresh token: %w", err)
		}
		metrics.TokensIssuedTotal.WithLabelValues(string(token.KindRefresh)).Inc()
		result.RefreshToken = refreshToken
	}

	return result, nil
}

func (s *AuthService) allowAttempt(ctx context.Context, key string) bool {
	if s.throttle == nil {
		return true
	}
	allowed, err := s.throttle.Allow(ctx, key)
	if err != nil {
		// The throttle is supplemental protection; its backend being down
		// must not lock every user out.
		s.log.Warn().Err(err).Msg("login throttle unavailable, allowing attempt")
		return true
	}
	if !allowed {
		s.log.Warn().Str("key", key).Msg("login attempts throttled")
	}
	return allowed
}

func (s *AuthService) resetAttempts(ctx context.Context, key string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Reset(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("failed to reset login throttle")
	}
}

// throttleKey scopes the attempt counter to a username+client pair.
func throttleKey(username, clientIP string) string {
	if clientIP == "" {
		return username
	}
	return username + "@" + clientIP
}
