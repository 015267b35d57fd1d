package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// Register wires every route of the service onto the Echo instance.
// Public reads carry the response cache; every mutating route passes
// through JWTAuth before its handler, and the role middleware encodes
// the capability matrix:
//
//	events:   reads public, writes ADMIN only
//	bookings: listing for any authenticated identity (self-scoped in
//	          the handler), creation and single fetch USER only
//
// rdb may be nil, which disables caching and login rate limiting.
func Register(e *echo.Echo, cfg config.Config, rdb *redis.Client,
	auth *handler.AuthHandler, events *handler.EventHandler, bookings *handler.BookingHandler,
	users middleware.IdentityStore) {

	e.GET("/healthz", handler.Health)

	// Auth endpoints: no session required. Login carries the
	// fixed-window limiter to slow credential stuffing.
	g := e.Group("/v1/auth")
	g.POST("/register", auth.Register)
	g.POST("/login", auth.Login, middleware.LoginRateLimit(rdb, cfg.LoginRate))
	g.POST("/refresh", auth.Refresh)
	g.POST("/logout", auth.Logout)

	authRequired := middleware.JWTAuth(cfg.JWTSecret, users)
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	userOnly := middleware.RequireRole(model.RoleUser)

	// Public event reads, served through the response cache.
	cache := middleware.Cache(rdb, cfg.Cache)
	e.GET("/v1/events", events.GetAllEvents, cache)
	e.GET("/v1/events/:id", events.GetEventByID, cache)

	// Admin event mutations.
	e.POST("/v1/events", events.CreateEvent, authRequired, adminOnly)
	e.PUT("/v1/events/:id", events.UpdateEvent, authRequired, adminOnly)
	e.DELETE("/v1/events/:id", events.DeleteEvent, authRequired, adminOnly)

	// Bookings. Single-record fetch is USER only: admins inspect
	// bookings through the list endpoint's filters instead.
	e.GET("/v1/bookings", bookings.GetAllBookings, authRequired)
	e.GET("/v1/bookings/:id", bookings.GetBookingByID, authRequired, userOnly)
	e.POST("/v1/bookings", bookings.CreateBooking, authRequired, userOnly)
}
