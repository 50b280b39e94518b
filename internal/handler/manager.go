package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/blureserve/seat-reservation/internal/service"
)

// ManagerHandler serves the manager fund ledger.
type ManagerHandler struct {
	Ledger *service.Ledger
	Log    *zap.Logger
}

func NewManagerHandler(l *service.Ledger, log *zap.Logger) *ManagerHandler {
	return &ManagerHandler{Ledger: l, Log: log}
}

type fundUpdateReq struct {
	EmpID  flexInt `json:"emp_id"`
	Amount flexInt `json:"amount"`
}

// IsManager: GET /employee/is_manager?emp_id=
func (h *ManagerHandler) IsManager(c echo.Context) error {
	empID, err := parseEmpID(c.QueryParam("emp_id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	ok, err := h.Ledger.IsManager(ctx, empID)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"is_manager": ok})
}

// Balance: GET /manager/blufunds?emp_id=
func (h *ManagerHandler) Balance(c echo.Context) error {
	empID, err := parseEmpID(c.QueryParam("emp_id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	if ok, err := sessionMatches(c, empID); !ok {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Ledger.Balance(ctx, empID)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// TopUp: PUT /manager/fund_updation.  Negative amounts reduce the balance.
func (h *ManagerHandler) TopUp(c echo.Context) error {
	var req fundUpdateReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.EmpID <= 0 {
		return fail(c, http.StatusBadRequest, "emp_id is required")
	}
	if ok, err := sessionMatches(c, int64(req.EmpID)); !ok {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Ledger.TopUp(ctx, int64(req.EmpID), int64(req.Amount)); err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true})
}
