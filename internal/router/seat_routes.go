package router

import (
	"github.com/labstack/echo/v4"

	"github.com/blureserve/seat-reservation/internal/handler"
	"github.com/blureserve/seat-reservation/internal/middleware"
)

// RegisterSeats registers availability and reservation routes.  All of
// them require a valid JWT; handlers check that the session acts for the
// emp_id or reservation in the request.  Availability answers go through
// the response cache.  The routes share no common prefix, so middleware
// is attached per route rather than through a group.
func RegisterSeats(e *echo.Echo, h *handler.SeatHandler, jwtSecret string, rateLimit, cache echo.MiddlewareFunc) {
	jwt := middleware.JWTAuth(jwtSecret)

	e.GET("/seats/available", h.Available, jwt, rateLimit, cache)
	e.POST("/seats/reservation/:emp_id", h.Create, jwt, rateLimit)
	e.PUT("/seats/cancellation", h.Cancel, jwt, rateLimit)
	e.GET("/seats/reservation/", h.List, jwt, rateLimit)
	e.GET("/reservation/details/:reservation_id", h.Details, jwt, rateLimit)
}
