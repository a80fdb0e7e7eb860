// Package router wires HTTP routes to their handlers and attaches
// the authentication and rate limiting middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/railswap/train-seat-exchange/internal/config"
	"github.com/railswap/train-seat-exchange/internal/handler"
	"github.com/railswap/train-seat-exchange/internal/middleware"
	"github.com/railswap/train-seat-exchange/internal/model"
)

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the OTP login flow under /api/auth and the
// profile endpoints behind JWT authentication.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, rl echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	if rl != nil {
		g.Use(rl)
	}
	g.POST("/send-otp", a.SendOTP)
	g.POST("/verify-otp", a.VerifyOTP)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/api")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/users/me", a.Me)
	auth.PUT("/users/me", a.UpdateMe)
}

// RegisterAPI registers the authenticated ticket, matching and
// exchange endpoints under /api.
func RegisterAPI(e *echo.Echo, t *handler.TicketHandler, m *handler.MatchHandler, x *handler.ExchangeHandler, jwtSecret string, rl echo.MiddlewareFunc) {
	g := e.Group("/api")
	g.Use(middleware.JWTAuth(jwtSecret))
	if rl != nil {
		g.Use(rl)
	}

	g.POST("/tickets", t.Create)
	g.GET("/tickets", t.List)
	g.GET("/tickets/:id", t.Get)
	g.PATCH("/tickets/:id/preferences", t.UpdatePreferences)
	g.DELETE("/tickets/:id", t.Cancel)

	g.POST("/exchange/find-matches/:ticket_id", m.FindMatches)
	g.POST("/exchange/batch-find-matches", m.BatchFindMatches)

	g.POST("/exchange/request", x.Create)
	g.GET("/exchange/requests", x.List)
	g.POST("/exchange/requests/:id/accept", x.Accept)
	g.POST("/exchange/requests/:id/decline", x.Decline)
	g.POST("/exchange/requests/:id/complete", x.Confirm)
}

// RegisterAdmin registers the operator-only matching jobs under
// /api/admin, gated on the ADMIN role.
func RegisterAdmin(e *echo.Echo, am *handler.AdminMatchingHandler, jwtSecret string) {
	g := e.Group("/api/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin))

	g.POST("/matching/run", am.Run)
	g.POST("/matching/run-global", am.RunGlobal)
	g.POST("/matching/preview-global", am.PreviewGlobal)
}

// NewRateLimiter builds the shared token bucket middleware, or nil
// when rate limiting is disabled or Redis is unavailable.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	return middleware.NewTokenBucket(cfg, rdb)
}
