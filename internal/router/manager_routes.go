package router

import (
	"github.com/labstack/echo/v4"

	"github.com/blureserve/seat-reservation/internal/handler"
	"github.com/blureserve/seat-reservation/internal/middleware"
	"github.com/blureserve/seat-reservation/internal/service"
)

// RegisterManager registers the fund ledger routes.  The manager check
// is open to any authenticated employee; balance and top-up require the
// MANAGER role.
func RegisterManager(e *echo.Echo, m *handler.ManagerHandler, jwtSecret string, rateLimit echo.MiddlewareFunc) {
	e.GET("/employee/is_manager", m.IsManager, middleware.JWTAuth(jwtSecret), rateLimit)

	g := e.Group(
		"/manager",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(service.RoleManager),
		rateLimit,
	)
	g.GET("/blufunds", m.Balance)
	g.PUT("/fund_updation", m.TopUp)
}
