package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/blureserve/seat-reservation/internal/handler"
	"github.com/blureserve/seat-reservation/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers login and session routes.  All but logout_all
// are public, so the rate limiter keys them by client IP.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, secret string, rateLimit echo.MiddlewareFunc) {
	e.POST("/employee/verification", a.Verify, rateLimit)

	g := e.Group("/auth", rateLimit)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.POST("/logout_all", a.LogoutAll, middleware.JWTAuth(secret))
}

// Deps are the collaborators New wires into the server.  Nil middleware
// is replaced by a pass-through.
type Deps struct {
	JWTSecret string
	Auth      *handler.AuthHandler
	Seats     *handler.SeatHandler
	Manager   *handler.ManagerHandler
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
	Log       *zap.Logger
}

// New builds the echo server with every route registered.
func New(d Deps) *echo.Echo {
	if d.RateLimit == nil {
		d.RateLimit = noop
	}
	if d.Cache == nil {
		d.Cache = noop
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Log))

	RegisterRoutes(e)
	RegisterAuth(e, d.Auth, d.JWTSecret, d.RateLimit)
	RegisterSeats(e, d.Seats, d.JWTSecret, d.RateLimit, d.Cache)
	RegisterManager(e, d.Manager, d.JWTSecret, d.RateLimit)
	return e
}

func noop(next echo.HandlerFunc) echo.HandlerFunc { return next }
