// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cine-reservas/internal/handler"
	"github.com/iliyamo/cine-reservas/internal/middleware"
	"github.com/iliyamo/cine-reservas/internal/repository"
)

// Handlers bundles every handler the router wires up.
type Handlers struct {
	Auth         *handler.AuthHandler
	Seats        *handler.SeatHandler
	Reservations *handler.ReservationHandler
	Premium      *handler.PremiumHandler
	Bot          *handler.BotHandler
	Stats        *handler.StatsHandler
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI registers the /v1 surface. Unauthenticated operations
// live under /v1/auth; everything else requires a valid access token
// and a live (unexpired) account, enforced by the JWT and session
// middleware in that order. The extra middleware (rate limiting,
// response caching) is applied to the protected group when non-nil.
func RegisterAPI(e *echo.Echo, h Handlers, users *repository.UserRepo, jwtSecret string, extra ...echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", h.Auth.Register)
	g.POST("/login", h.Auth.Login)
	g.POST("/refresh", h.Auth.Refresh)
	// Logout by refresh token works without a bearer.
	g.POST("/logout", h.Auth.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.SessionUser(users))
	for _, m := range extra {
		if m != nil {
			auth.Use(m)
		}
	}

	auth.GET("/me", h.Auth.Me)
	auth.POST("/logout", h.Auth.Logout)

	auth.GET("/seats", h.Seats.List)
	auth.GET("/seats/available", h.Seats.ListAvailable)

	auth.POST("/reservations", h.Reservations.Create)
	auth.DELETE("/reservations/:seatID", h.Reservations.Cancel)
	auth.GET("/my-reservations", h.Reservations.Mine)
	auth.GET("/combos", h.Reservations.Combos)

	auth.POST("/premium/upgrade", h.Premium.Upgrade)

	auth.POST("/bot/action", h.Bot.Action)

	auth.GET("/stats", h.Stats.Get)
}
