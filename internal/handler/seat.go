package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/blureserve/seat-reservation/internal/middleware"
	"github.com/blureserve/seat-reservation/internal/model"
	"github.com/blureserve/seat-reservation/internal/service"
)

// SeatHandler serves availability and the reservation lifecycle.
type SeatHandler struct {
	Reservations *service.Reservations
	Log          *zap.Logger
}

func NewSeatHandler(r *service.Reservations, log *zap.Logger) *SeatHandler {
	return &SeatHandler{Reservations: r, Log: log}
}

type createReq struct {
	SeatIDs       []flexInt `json:"seat_ids"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	NumberOfSlots flexInt   `json:"number_of_slots"`
}

type cancelReq struct {
	ReservationID string `json:"reservation_id"`
}

type reservationSummary struct {
	ReservationID string `json:"reservation_id"`
	EmpID         int64  `json:"emp_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	NumberOfSlots int    `json:"number_of_slots"`
}

type reservationDetails struct {
	ReservationID string `json:"reservation_id"`
	EmpID         int64  `json:"emp_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	NumSlots      int    `json:"num_slots"`
	Seats         []int  `json:"seats"`
	QRCodeURL     string `json:"qr_code_url"`
}

// Available: GET /seats/available?date=&time=&number_of_slots=
// Returns the free seat numbers as a JSON array.
func (h *SeatHandler) Available(c echo.Context) error {
	slots, err := strconv.Atoi(strings.TrimSpace(c.QueryParam("number_of_slots")))
	if err != nil {
		return fail(c, http.StatusBadRequest, "number_of_slots must be an integer")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	free, err := h.Reservations.Available(ctx, c.QueryParam("date"), c.QueryParam("time"), slots)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, free)
}

// Create: POST /seats/reservation/:emp_id
func (h *SeatHandler) Create(c echo.Context) error {
	empID, err := parseEmpID(c.Param("emp_id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	if ok, err := sessionMatches(c, empID); !ok {
		return err
	}
	var req createReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Reservations.Create(ctx, service.CreateRequest{
		EmployeeID: empID,
		SeatIDs:    ints(req.SeatIDs),
		Date:       req.Date,
		Time:       req.Time,
		NumSlots:   int(req.NumberOfSlots),
	})
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"status": true, "reservation_id": id})
}

// Cancel: PUT /seats/cancellation.  Only the owner may cancel.
func (h *SeatHandler) Cancel(c echo.Context) error {
	empID, ok := middleware.EmployeeID(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "no session")
	}
	var req cancelReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Reservations.Cancel(ctx, empID, req.ReservationID); err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true})
}

// List: GET /seats/reservation/?emp_id=  Newest first.
func (h *SeatHandler) List(c echo.Context) error {
	empID, err := parseEmpID(c.QueryParam("emp_id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	if ok, err := sessionMatches(c, empID); !ok {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rs, err := h.Reservations.ListForEmployee(ctx, empID)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, summaries(rs))
}

// Details: GET /reservation/details/:reservation_id
func (h *SeatHandler) Details(c echo.Context) error {
	empID, ok := middleware.EmployeeID(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "no session")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Reservations.Details(ctx, empID, c.Param("reservation_id"))
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, reservationDetails{
		ReservationID: d.ID,
		EmpID:         d.EmployeeID,
		Date:          d.Date,
		Time:          d.Time,
		NumSlots:      d.NumSlots,
		Seats:         d.Seats,
		QRCodeURL:     d.QRCodeURL,
	})
}

func summaries(rs []model.Reservation) []reservationSummary {
	out := make([]reservationSummary, len(rs))
	for i, r := range rs {
		out[i] = reservationSummary{
			ReservationID: r.ID,
			EmpID:         r.EmployeeID,
			Date:          r.Date,
			Time:          r.Time,
			NumberOfSlots: r.NumSlots,
		}
	}
	return out
}
