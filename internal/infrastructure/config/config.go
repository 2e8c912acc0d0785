package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is the immutable process configuration, built once at startup and
// passed explicitly into constructors. No ambient global state.
type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWT      JWTConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Throttle ThrottleConfig
	Seed     SeedConfig
}

// JWTConfig groups the token codec and access filter settings.
type JWTConfig struct {
	Secret        string        `env:"JWT_SECRET, required"`
	Issuer        string        `env:"JWT_ISSUER,             default=bakery-flow-manager"`
	AccessTTL     time.Duration `env:"JWT_ACCESS_TTL,         default=1h"`
	RefreshTTL    time.Duration `env:"JWT_REFRESH_TTL,        default=168h"`
	RememberMeTTL time.Duration `env:"JWT_REMEMBER_ME_TTL,    default=720h"`
	ClockSkew     time.Duration `env:"JWT_CLOCK_SKEW,         default=60s"`

	Header            string `env:"JWT_HEADER,        default=Authorization"`
	TokenPrefix       string `env:"JWT_TOKEN_PREFIX"` // default "Bearer " applied by the filter
	AccessTokenCookie string `env:"JWT_ACCESS_COOKIE, default=access_token"`
	AccessTokenParam  string `env:"JWT_ACCESS_PARAM,  default=access_token"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=bakeryflow_identity"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// ThrottleConfig bounds failed-login attempts per username within a fixed
// window before attempts fail closed.
type ThrottleConfig struct {
	MaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS, default=10"`
	Window      time.Duration `env:"LOGIN_WINDOW,       default=15m"`
}

// SeedConfig describes the bootstrap admin account. The admin is only
// created when a password is configured; no hardcoded credentials.
type SeedConfig struct {
	AdminUsername string `env:"SEED_ADMIN_USERNAME, default=admin"`
	AdminEmail    string `env:"SEED_ADMIN_EMAIL,    default=admin@bakeryflow.local"`
	AdminPassword string `env:"SEED_ADMIN_PASSWORD"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return &cfg, nil
}
