package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/blureserve/seat-reservation/internal/middleware"
	"github.com/blureserve/seat-reservation/internal/service"
)

const requestTimeout = 5 * time.Second

// reqCtx bounds store work by the request context and a timeout.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"status": false, "message": msg})
}

// respond maps a service error onto its HTTP status.  Causes of 500s are
// logged and hidden from the client.
func respond(c echo.Context, log *zap.Logger, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrUnauthorized):
		return fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		return fail(c, http.StatusConflict, err.Error())
	default:
		log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "internal error")
	}
}

// sessionMatches checks that the request acts for the authenticated
// employee.  It writes the error response itself and reports false when
// the request must stop.
func sessionMatches(c echo.Context, empID int64) (bool, error) {
	sess, ok := middleware.EmployeeID(c)
	if !ok {
		return false, fail(c, http.StatusUnauthorized, "no session")
	}
	if sess != empID {
		return false, fail(c, http.StatusForbidden, "session does not match emp_id")
	}
	return true, nil
}

func parseEmpID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid emp_id %q", s)
	}
	return id, nil
}

// flexInt decodes a JSON number or a numeric string.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fmt.Errorf("not an integer: %q", s)
		}
		*f = flexInt(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

func ints(fs []flexInt) []int {
	out := make([]int, len(fs))
	for i, f := range fs {
		out[i] = int(f)
	}
	return out
}
