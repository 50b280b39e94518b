package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/blureserve/seat-reservation/internal/middleware"
	"github.com/blureserve/seat-reservation/internal/service"
)

// AuthHandler serves login and session refresh.
type AuthHandler struct {
	Auth *service.Auth
	Log  *zap.Logger
}

func NewAuthHandler(a *service.Auth, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Auth: a, Log: log}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	Status  bool      `json:"status"`
	EmpID   int64     `json:"emp_id"`
	Role    string    `json:"role"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func sessionResp(s service.Session) authResp {
	return authResp{
		Status:  true,
		EmpID:   s.EmployeeID,
		Role:    s.Role,
		Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
		Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp},
	}
}

// Verify: POST /employee/verification.  Checks credentials and returns a
// token pair.
func (h *AuthHandler) Verify(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, sessionResp(s))
}

// Refresh: POST /auth/refresh.  Rotates the refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, sessionResp(s))
}

// Logout: POST /auth/logout.  Revokes the refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, req.RefreshToken); err != nil {
		return respond(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll: POST /auth/logout_all.  Revokes every refresh token of the
// authenticated employee, ending all of their sessions.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	empID, ok := middleware.EmployeeID(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.LogoutAll(ctx, empID); err != nil {
		return respond(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
