// Package token encodes and decodes the signed bearer tokens issued by the
// identity service. Tokens are self-contained HS256 JWTs carrying a snapshot
// of the principal's identity and roles at issuance time; nothing is persisted
// server-side.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bakeryflow/identity/internal/core/domain"
)

// Kind discriminates the two token flavours carried in the tokenType claim.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Decode failures, one sentinel per taxonomy member. Callers differentiate
// ErrExpired from the rest: an expired token is an expected, unremarkable
// condition, not an attack signal.
var (
	ErrMalformed        = errors.New("token is malformed")
	ErrUnsupported      = errors.New("token uses an unsupported signing method")
	ErrSignatureInvalid = errors.New("token signature is invalid")
	ErrExpired          = errors.New("token is expired")
)

// Claims is the typed claim set embedded in every token. Known custom claims
// are named fields rather than an untyped map; the wire shape stays flat JSON.
type Claims struct {
	UserID     string   `json:"userId,omitempty"`
	Username   string   `json:"username,omitempty"`
	Email      string   `json:"email,omitempty"`
	Roles      []string `json:"roles,omitempty"`
	EmployeeID string   `json:"employeeId,omitempty"`
	TokenType  Kind     `json:"tokenType"`
	jwt.RegisteredClaims
}

// Config carries the immutable signing settings, built once at process start.
type Config struct {
	Secret        string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	RememberMeTTL time.Duration
	// ClockSkew is the validation leniency absorbing issuer/validator clock
	// drift. It never extends a token's real lifetime.
	ClockSkew time.Duration
}

const (
	defaultAccessTTL   = time.Hour
	defaultRefreshTTL  = 7 * 24 * time.Hour
	defaultRememberTTL = 30 * 24 * time.Hour
	defaultClockSkew   = time.Minute
	defaultIssuer      = "bakery-flow-manager"
)

// Codec issues and validates signed tokens with a shared symmetric secret.
type Codec struct {
	secret      []byte
	issuer      string
	accessTTL   time.Duration
	refreshTTL  time.Duration
	rememberTTL time.Duration
	skew        time.Duration

	now func() time.Time // overridable in tests
}

func NewCodec(cfg Config) *Codec {
	c := &Codec{
		secret:      []byte(cfg.Secret),
		issuer:      cfg.Issuer,
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		rememberTTL: cfg.RememberMeTTL,
		skew:        cfg.ClockSkew,
		now:         time.Now,
	}
	if c.issuer == "" {
		c.issuer = defaultIssuer
	}
	if c.accessTTL <= 0 {
		c.accessTTL = defaultAccessTTL
	}
	if c.refreshTTL <= 0 {
		c.refreshTTL = defaultRefreshTTL
	}
	if c.rememberTTL <= 0 {
		c.rememberTTL = defaultRememberTTL
	}
	if c.skew <= 0 {
		c.skew = defaultClockSkew
	}
	return c
}

// AccessTTL reports the configured access-token lifetime, used by callers to
// populate the expiresIn field of login responses.
func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

// IssueAccess signs a short-lived access token carrying the full identity
// snapshot: id, username, email, roles, and employee id.
func (c *Codec) IssueAccess(user *domain.User) (string, error) {
	return c.issue(user, KindAccess, c.accessTTL, true)
}

// IssueRefresh signs a long-lived refresh token carrying only enough to
// re-resolve the principal. remember extends the lifetime to the configured
// remember-me window.
func (c *Codec) IssueRefresh(user *domain.User, remember bool) (string, error) {
	ttl := c.refreshTTL
	if remember {
		ttl = c.rememberTTL
	}
	return c.issue(user, KindRefresh, ttl, false)
}

func (c *Codec) issue(user *domain.User, kind Kind, ttl time.Duration, snapshot bool) (string, error) {
	now := c.now()
	claims := &Claims{
		UserID:    user.ID,
		Username:  user.Username,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Username,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if snapshot {
		claims.Email = user.Email
		claims.Roles = user.RoleStrings()
		claims.EmployeeID = user.EmployeeID
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies signature and expiration and returns the claim set.
// Failures map onto exactly one of the package sentinels; expiration wins
// over every other condition so that callers can treat expired tokens as the
// benign case they are.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc, jwt.WithLeeway(c.skew))
	if err != nil {
		return nil, c.mapError(err)
	}

	// The leeway above absorbs issuer/validator drift on the early side
	// (issued-at slightly in the future). Expiration is re-checked strictly
	// here so skew never extends a token's real lifetime.
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(c.now()) {
		return nil, ErrExpired
	}
	return claims, nil
}

// IsKind decodes the token and checks its tokenType claim. Any decode failure
// yields false, not an error: this is a lightweight pre-filter.
func (c *Codec) IsKind(tokenString string, kind Kind) bool {
	claims, err := c.Decode(tokenString)
	if err != nil {
		return false
	}
	return claims.TokenType == kind
}

// IsAccess reports whether the token is a valid access token.
func (c *Codec) IsAccess(tokenString string) bool {
	return c.IsKind(tokenString, KindAccess)
}

// IsRefresh reports whether the token is a valid refresh token.
func (c *Codec) IsRefresh(tokenString string) bool {
	return c.IsKind(tokenString, KindRefresh)
}

// keyFunc pins the signing method to HMAC before releasing the secret.
// Returning ErrUnsupported here lets mapError surface alg-confusion attempts
// (e.g. alg=none, RS256) as their own taxonomy member.
func (c *Codec) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrUnsupported
	}
	return c.secret, nil
}

func (c *Codec) mapError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, ErrUnsupported):
		return ErrUnsupported
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
