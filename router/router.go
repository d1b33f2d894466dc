// Package router wires handlers and middleware into the gin engine.
package router

import (
	"fmt"

	"github.com/caresync/caresync-api/config"
	"github.com/caresync/caresync-api/endpoint"
	"github.com/caresync/caresync-api/middleware"
	"github.com/caresync/caresync-api/model"
	"github.com/caresync/caresync-api/schema"
	"github.com/caresync/caresync-api/storage"
	"github.com/caresync/caresync-api/util"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Deps are the process wide services the routes need. Redis and Security may
// be nil.
type Deps struct {
	Config   *config.Config
	Store    *storage.Storage
	Redis    *redis.Client
	Logger   zerolog.Logger
	Security *util.SecurityLogger
}

// NewRouter builds the engine with every route mounted.
func NewRouter(deps Deps) (*gin.Engine, error) {
	cfg := deps.Config
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	schema.RegisterValidators()

	tokens, err := util.NewTokenManager(util.TokenConfig{
		Secret:     cfg.JWTSecret,
		Algorithm:  cfg.JWTAlgorithm,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	h := endpoint.NewHandler(endpoint.Options{
		AppName:  cfg.AppName,
		Tokens:   tokens,
		Cookies:  util.CookieConfig{Secure: cfg.CookieSecure, Domain: cfg.CookieDomain},
		Security: deps.Security,
		Redis:    deps.Redis,
	})
	auth := middleware.NewAuthenticator(tokens, deps.Security)
	loginLimit := middleware.RateLimiter(deps.Redis, middleware.RateLimitConfig{
		Limit:  cfg.LoginRateLimit,
		Window: cfg.LoginRateWindow,
		Scope:  middleware.LoginRateScope,
	}, deps.Security)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middleware.DatabaseMiddleware(deps.Store))

	r.GET("/", h.Welcome)

	v1 := r.Group("/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/token", loginLimit, h.Login)
		authGroup.POST("/login", loginLimit, h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", auth.RequireAuth(), h.Me)
	}

	patient := v1.Group("/patient")
	{
		patient.POST("/register", h.RegisterPatient)
		patient.GET("/all", auth.RequireAuth(), h.ListPatients)

		own := patient.Group("/profile", auth.RequireAuth(), middleware.RequireRole(model.RolePatient))
		own.GET("", h.GetPatientProfile)
		own.PATCH("", h.UpdatePatientProfile)
	}

	doctor := v1.Group("/doctor")
	{
		doctor.POST("/register", h.RegisterDoctor)
		doctor.GET("/all", h.ListDoctors)

		own := doctor.Group("/profile", auth.RequireAuth(), middleware.RequireRole(model.RoleDoctor))
		own.GET("", h.GetDoctorProfile)
		own.PATCH("", h.UpdateDoctorProfile)

		doctor.GET("/:id", h.GetDoctor)
	}

	return r, nil
}
