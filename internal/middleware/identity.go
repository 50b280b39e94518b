package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	ctxEmpID = "emp_id"
	ctxRole  = "role"
)

// EmployeeID returns the authenticated employee of the request.
func EmployeeID(c echo.Context) (int64, bool) {
	id, ok := c.Get(ctxEmpID).(int64)
	return id, ok && id > 0
}

// Role returns the authenticated role of the request.
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

// SetSession stores a session identity on c the way JWTAuth does.
func SetSession(c echo.Context, empID int64, role string) {
	c.Set(ctxEmpID, empID)
	c.Set(ctxRole, role)
}

// userKey identifies the caller for rate limiting; "anon" before auth.
func userKey(c echo.Context) string {
	if id, ok := EmployeeID(c); ok {
		return strconv.FormatInt(id, 10)
	}
	return "anon"
}
