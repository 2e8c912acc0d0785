package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bakeryflow/identity/internal/api/metrics"
	"github.com/bakeryflow/identity/internal/core/domain"
	"github.com/bakeryflow/identity/internal/core/token"
)

const principalKey = "auth.principal"

// Principal is the caller identity the access filter attaches to the request
// context: the token's claim snapshot, not a fresh store lookup.
type Principal struct {
	UserID     string
	Username   string
	Email      string
	EmployeeID string
	Roles      []string
}

// HasAnyRole reports whether the principal carries at least one of the roles.
func (p *Principal) HasAnyRole(names ...domain.RoleName) bool {
	for _, n := range names {
		for _, r := range p.Roles {
			if r == string(n) {
				return true
			}
		}
	}
	return false
}

// PrincipalFrom returns the principal attached by the access filter, if any.
func PrincipalFrom(c echo.Context) (*Principal, bool) {
	p, ok := c.Get(principalKey).(*Principal)
	return p, ok
}

// ExtractorConfig names the transport locations a token may arrive in.
type ExtractorConfig struct {
	// Header is the request header carrying the token. Default "Authorization".
	Header string
	// Prefix is the scheme prefix inside the header. Default "Bearer ".
	Prefix string
	// Cookie is the cookie name checked when the header is absent.
	Cookie string
	// QueryParam is the query parameter checked last, for transports that
	// cannot set headers (streaming connections).
	QueryParam string
}

func (cfg ExtractorConfig) withDefaults() ExtractorConfig {
	if cfg.Header == "" {
		cfg.Header = "Authorization"
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "Bearer "
	}
	if cfg.Cookie == "" {
		cfg.Cookie = "access_token"
	}
	if cfg.QueryParam == "" {
		cfg.QueryParam = "access_token"
	}
	return cfg
}

// Authenticate is the access filter. It extracts a candidate token (header,
// then cookie, then query parameter — first match wins), validates it as an
// access token, and attaches the caller's identity to the request context.
//
// The filter never blocks the pipeline: a missing or invalid token lets the
// request proceed unauthenticated, and RequireRoles downstream is the
// enforcement point. Decode failures are logged at debug only — expired
// tokens are routine, not remarkable.
func Authenticate(codec *token.Codec, cfg ExtractorConfig, log zerolog.Logger) echo.MiddlewareFunc {
	cfg = cfg.withDefaults()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractToken(c, cfg)
			if raw == "" {
				metrics.FilterDecisionsTotal.WithLabelValues("anonymous").Inc()
				return next(c)
			}

			claims, err := codec.Decode(raw)
			if err != nil {
				log.Debug().Err(err).Str("path", c.Path()).Msg("request token rejected")
				metrics.FilterDecisionsTotal.WithLabelValues("rejected_token").Inc()
				return next(c)
			}
			if claims.TokenType != token.KindAccess {
				log.Debug().Str("token_type", string(claims.TokenType)).Str("path", c.Path()).
					Msg("non-access token presented on request")
				metrics.FilterDecisionsTotal.WithLabelValues("rejected_token").Inc()
				return next(c)
			}

			c.Set(principalKey, &Principal{
				UserID:     claims.UserID,
				Username:   claims.Username,
				Email:      claims.Email,
				EmployeeID: claims.EmployeeID,
				Roles:      claims.Roles,
			})
			metrics.FilterDecisionsTotal.WithLabelValues("authenticated").Inc()
			return next(c)
		}
	}
}

func extractToken(c echo.Context, cfg ExtractorConfig) string {
	if header := c.Request().Header.Get(cfg.Header); header != "" {
		if len(header) > len(cfg.Prefix) && strings.EqualFold(header[:len(cfg.Prefix)], cfg.Prefix) {
			return strings.TrimSpace(header[len(cfg.Prefix):])
		}
		// A populated header with the wrong scheme does not fall through to
		// weaker transports.
		return ""
	}

	if cookie, err := c.Cookie(cfg.Cookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return c.QueryParam(cfg.QueryParam)
}
