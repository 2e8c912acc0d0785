package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bakeryflow/identity/internal/api/handler"
	"github.com/bakeryflow/identity/internal/api/middleware"
	"github.com/bakeryflow/identity/internal/core/domain"
	"github.com/bakeryflow/identity/internal/core/service"
	"github.com/bakeryflow/identity/internal/core/token"
	"github.com/bakeryflow/identity/internal/infrastructure/config"
	mongostore "github.com/bakeryflow/identity/internal/infrastructure/db/mongo"
	redisstore "github.com/bakeryflow/identity/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("identity"))

	// --- Dependencies ---
	codec := token.NewCodec(token.Config{
		Secret:        cfg.JWT.Secret,
		Issuer:        cfg.JWT.Issuer,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		RememberMeTTL: cfg.JWT.RememberMeTTL,
		ClockSkew:     cfg.JWT.ClockSkew,
	})

	userRepo := mongostore.NewUserRepository(db)
	roleRepo := mongostore.NewRoleRepository(db)
	throttle := redisstore.NewLoginThrottle(rdb, cfg.Throttle.MaxAttempts, cfg.Throttle.Window)

	authService := service.NewAuthService(userRepo, codec, throttle, log)
	userService := service.NewUserService(userRepo, log)
	roleService := service.NewRoleService(roleRepo, userRepo, log)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)

	// --- Health probes and metrics (outside the access filter) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)         // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Access filter ---
	// The filter never rejects requests itself; RequireRoles below is the
	// enforcement point.
	authenticate := middleware.Authenticate(codec, middleware.ExtractorConfig{
		Header:     cfg.JWT.Header,
		Prefix:     cfg.JWT.TokenPrefix,
		Cookie:     cfg.JWT.AccessTokenCookie,
		QueryParam: cfg.JWT.AccessTokenParam,
	}, log)

	apiGroup := e.Group("/api", authenticate)

	// --- Auth routes ---
	auth := apiGroup.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.POST("/refresh", authHandler.Refresh)
	auth.GET("/validate", authHandler.Validate, middleware.RequireAuthenticated())
	auth.GET("/check-username/:username", authHandler.CheckUsername)
	auth.GET("/check-email/:email", authHandler.CheckEmail)
	auth.POST("/change-password", authHandler.ChangePassword, middleware.RequireAuthenticated())
	auth.POST("/logout", authHandler.Logout, middleware.RequireAuthenticated())

	// --- User management ---
	users := apiGroup.Group("/users")
	users.GET("/me", userHandler.Me, middleware.RequireAuthenticated())
	users.GET("", userHandler.List, middleware.RequireRoles(domain.RoleAdmin, domain.RoleManager))
	users.GET("/:id", userHandler.GetByID, middleware.RequireRoles(domain.RoleAdmin, domain.RoleManager))
	users.POST("", userHandler.Create, middleware.RequireRoles(domain.RoleAdmin, domain.RoleManager))
	users.PUT("/:id", userHandler.Update, middleware.RequireRoles(domain.RoleAdmin, domain.RoleManager))
	users.PATCH("/:id/enabled", userHandler.SetEnabled, middleware.RequireRoles(domain.RoleAdmin, domain.RoleManager))
	users.POST("/:id/roles/:role", userHandler.AssignRole, middleware.RequireRoles(domain.RoleAdmin))
	users.DELETE("/:id/roles/:role", userHandler.RemoveRole, middleware.RequireRoles(domain.RoleAdmin))
	users.DELETE("/:id", userHandler.Delete, middleware.RequireRoles(domain.RoleAdmin))

	// --- Role management ---
	roles := apiGroup.Group("/roles", middleware.RequireRoles(domain.RoleAdmin, domain.RoleManager))
	roles.GET("", roleHandler.List)
	roles.GET("/:id", roleHandler.GetByID)
	roles.GET("/name/:name", roleHandler.GetByName)
	roles.PUT("/:id", roleHandler.UpdateDescription, middleware.RequireRoles(domain.RoleAdmin))

	return e
}
