package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                      // the Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"    // Echo's bundled middleware (CORS)
	"github.com/redis/go-redis/v9"                     // Redis client for the response cache

	"github.com/iliyamo/staff-auth/internal/config"     // cache settings
	"github.com/iliyamo/staff-auth/internal/handler"    // request handlers
	"github.com/iliyamo/staff-auth/internal/middleware" // JWT authentication and role enforcement
)

// RegisterRoutes registers routes that need neither authentication
// nor the API prefix: the health check and the browser CORS policy
// for the configured frontend origin.
func RegisterRoutes(e *echo.Echo, corsOrigin string) {
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{corsOrigin},
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.GET("/health", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Login and
// refresh are open (refresh authenticates through the token
// itself); logout and me require a valid bearer token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, cfg config.Config) {
	g := e.Group("/api/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	protected := e.Group("/api/auth")
	protected.Use(middleware.JWTAuth(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience))
	protected.POST("/logout", a.Logout)
	protected.GET("/me", a.Me)
}

// RegisterRoles registers role management endpoints. All of them
// require a valid bearer token carrying the admin role; the
// authorization check lives here in the dispatch layer, not in the
// handlers.
func RegisterRoles(e *echo.Echo, r *handler.RoleHandler, cfg config.Config, cacheCfg config.CacheConfig, rdb *redis.Client) {
	g := e.Group("/api/roles")
	g.Use(middleware.JWTAuth(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience))
	g.Use(middleware.RequireRole("admin"))
	// The role list is immutable reference data, safe to serve from
	// the response cache.
	g.GET("", r.GetAllRoles, middleware.NewRedisCache(cacheCfg, rdb))
	g.GET("/user/:id", r.GetUserRoles)
	g.POST("/assign", r.AssignRole)
	g.DELETE("/remove", r.RemoveRole)
}

// RegisterHistory registers the login-history endpoints. The
// cross-user views are admin-only; my-history is available to any
// authenticated caller.
func RegisterHistory(e *echo.Echo, h *handler.HistoryHandler, cfg config.Config) {
	g := e.Group("/api/loginhistory")
	g.Use(middleware.JWTAuth(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience))
	g.GET("/my-history", h.GetMyLoginHistory)

	admin := e.Group("/api/loginhistory")
	admin.Use(middleware.JWTAuth(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience))
	admin.Use(middleware.RequireRole("admin"))
	admin.GET("", h.GetLoginHistory)
	admin.GET("/user/:id", h.GetUserLoginHistory)
}
