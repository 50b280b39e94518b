package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/blureserve/seat-reservation/internal/utils"
)

// JWTAuth validates a Bearer access token and stores the session's
// employee id and role in the request context (see EmployeeID and Role).
// Requests without a valid token are rejected with 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return deny(c, http.StatusUnauthorized, "missing bearer token")
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return deny(c, http.StatusUnauthorized, "invalid token")
			}
			c.Set(ctxEmpID, claims.EmployeeID)
			c.Set(ctxRole, claims.Role)
			return next(c)
		}
	}
}

func deny(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"status": false, "message": msg})
}
