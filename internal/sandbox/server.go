// Package sandbox is an in-memory implementation of the booking API the
// client core consumes.  It exists for integration tests and local
// development: every endpoint behaves like the real backend (JWT
// sessions with rotating refresh tokens, idempotent holds, amount
// validation, HMAC-verified payment confirmations) but all state lives
// in one process and vanishes on exit.  It is deliberately not a
// production server.
package sandbox

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/roamstay/bookingflow/internal/config"
)

// Server bundles the sandbox's state and handlers.
type Server struct {
    Cfg   config.Sandbox
    Store *Store
}

// New seeds a Server from cfg.
func New(cfg config.Sandbox) *Server {
    return &Server{Cfg: cfg, Store: NewStore(cfg.HoldTTL)}
}

// Echo builds the echo instance with all routes registered.  rdb may be
// nil, which disables rate limiting.
func (s *Server) Echo(rdb *redis.Client) *echo.Echo {
    e := echo.New()
    e.HideBanner = true

    auth := NewAuthHandler(s.Cfg, s.Store)
    bookings := NewBookingHandler(s.Cfg, s.Store)

    e.GET("/healthz", func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
    })

    // Session endpoints.  Rate limited per IP so the sandbox behaves
    // like the real thing under credential stuffing.
    limited := rateLimit(rdb, 30, time.Minute)
    e.POST("/auth/register", auth.Register, limited)
    e.POST("/auth/login", auth.Login, limited)
    e.POST("/auth/refresh-token", auth.Refresh, limited)
    e.POST("/auth/logout", auth.Logout)

    // Everything below requires a live access token.
    g := e.Group("", jwtAuth(s.Cfg.JWTSecret, s.Store))
    g.POST("/bookings/calculate-price", bookings.CalculatePrice)
    g.POST("/bookings", bookings.CreateBooking)
    g.POST("/bookings/:id/cancel", bookings.CancelBooking)
    g.POST("/bookings/:id/refund-request", bookings.RequestRefund)
    g.POST("/payments/order", bookings.CreateOrder)
    g.POST("/payments/verify", bookings.VerifyPayment)

    return e
}
