package ports

import (
	"context"

	"github.com/bakeryflow/identity/internal/core/domain"
)

// LoginResult is what a successful authentication, registration, or refresh
// returns: bearer tokens plus the public projection of the principal.
// RefreshToken is empty on refresh (refresh tokens are not rotated).
type LoginResult struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken,omitempty"`
	TokenType    string           `json:"tokenType"`
	ExpiresIn    int64            `json:"expiresIn"`
	User         *domain.UserView `json:"user"`
}

// RegisterInput carries the profile fields accepted at self-registration,
// plus the client address used for throttling the auto-login.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	EmployeeID  string
	PhoneNumber string
	ClientIP    string
}

// AuthService orchestrates credential verification, token issuance, token
// refresh, and logout bookkeeping. Stateless per call. clientIP identifies
// the remote caller for login throttling.
type AuthService interface {
	Authenticate(ctx context.Context, username, password, clientIP string, remember bool) (*LoginResult, error)
	Register(ctx context.Context, input RegisterInput) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResult, error)
	ChangePassword(ctx context.Context, username, currentPassword, newPassword string) error
	Logout(ctx context.Context, username string) error
	// UsernameAvailable and EmailAvailable report whether the identifier is
	// free to register. Pre-flight conveniences; the unique indexes stay
	// authoritative.
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	EmailAvailable(ctx context.Context, email string) (bool, error)
}

// LoginThrottle bounds failed-login attempts per username+client pair before
// the password is even checked. Over-limit callers fail closed as invalid
// credentials; keying on the pair keeps a remote attacker from locking a
// victim's username out globally.
type LoginThrottle interface {
	// Allow reports whether another attempt is permitted for the key.
	Allow(ctx context.Context, key string) (bool, error)
	// Reset clears the counter after a successful authentication.
	Reset(ctx context.Context, key string) error
}
