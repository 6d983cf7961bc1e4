package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/stayhub/hotel-reservation/internal/config"
	"github.com/stayhub/hotel-reservation/internal/handler"
	"github.com/stayhub/hotel-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the registration, verification and login
// endpoints under /v1/auth.  The whole group sits behind the Redis
// token bucket because each of these requests can trigger an outbound
// email or a bcrypt comparison.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1/auth", middleware.NewTokenBucket(rlCfg, rdb))
	g.POST("/register", a.Register)
	g.POST("/verify", a.Verify)
	g.POST("/resend", a.Resend)
	g.POST("/login", a.Login)
}

// RegisterPublic registers the unauthenticated hotel catalogue routes.
// Responses are cached in Redis; the catalogue changes rarely and these
// are the highest-volume reads in the system.
func RegisterPublic(e *echo.Echo, h *handler.HotelHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
	cache := middleware.NewRedisCache(cacheCfg, rdb)
	e.GET("/v1/hotels", h.List, cache)
	e.GET("/v1/hotels/:id", h.Get, cache)
}

// RegisterBooking registers the two-phase booking endpoints and the
// caller's booking listing.  All routes require a valid access token,
// verified by RequireAuth from either the access_token cookie or the
// Authorization header.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.RequireAuth(jwtSecret))
	g.POST("/hotels/:id/authorize", b.Authorize)
	g.POST("/hotels/:id/book", b.Confirm)
	g.GET("/my-bookings", b.MyBookings)
}
