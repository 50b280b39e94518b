package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blureserve/seat-reservation/internal/model"
	"github.com/blureserve/seat-reservation/internal/qr"
	"github.com/blureserve/seat-reservation/internal/queue"
	"github.com/blureserve/seat-reservation/internal/repository"
	"github.com/blureserve/seat-reservation/internal/seating"
)

// EventPublisher delivers reservation events after commit.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// CacheInvalidator discards cached availability answers.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// QREncoder renders a reservation id as an image data URL.
type QREncoder interface {
	DataURL(content string) (string, error)
}

type nopInvalidator struct{}

func (nopInvalidator) Bump(context.Context) error { return nil }

// Options configures a Reservations service.  Zero values select the
// defaults: 100 seats, a rate of 100, no events, no cache and a 256px
// QR encoder.
type Options struct {
	Capacity int
	Rate     int64
	Events   EventPublisher
	Cache    CacheInvalidator
	QR       QREncoder
	Logger   *zap.Logger
}

// Reservations runs the reservation lifecycle.  Create and Cancel each
// execute inside one store transaction together with their ledger
// adjustment.
type Reservations struct {
	store    repository.Store
	capacity int
	rate     int64
	events   EventPublisher
	cache    CacheInvalidator
	qr       QREncoder
	log      *zap.Logger
}

// NewReservations returns a Reservations service over store.
func NewReservations(store repository.Store, opts Options) *Reservations {
	s := &Reservations{
		store:    store,
		capacity: opts.Capacity,
		rate:     opts.Rate,
		events:   opts.Events,
		cache:    opts.Cache,
		qr:       opts.QR,
		log:      opts.Logger,
	}
	if s.capacity <= 0 {
		s.capacity = seating.DefaultCapacity
	}
	if s.rate <= 0 {
		s.rate = DefaultSlotRate
	}
	if s.events == nil {
		s.events = queue.NopPublisher{}
	}
	if s.cache == nil {
		s.cache = nopInvalidator{}
	}
	if s.qr == nil {
		s.qr = qr.NewEncoder(256)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// CreateRequest is the input of Create.
type CreateRequest struct {
	EmployeeID int64
	SeatIDs    []int
	Date       string
	Time       string
	NumSlots   int
}

// Details is a reservation with its seats and QR code.
type Details struct {
	model.Reservation
	Seats     []int
	QRCodeURL string
}

type query struct {
	date   string
	window seating.Window
}

func parseQuery(date, start string, slots int) (query, error) {
	d, err := seating.ParseDate(date)
	if err != nil {
		return query{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	w, err := seating.NewWindow(start, slots)
	if err != nil {
		return query{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return query{date: d, window: w}, nil
}

// occupied returns the seats held during q by reservations of q.date.
// Inside a transaction the date's reservations are locked.
func occupied(ctx context.Context, st repository.Store, q query) (map[int]struct{}, error) {
	rs, err := st.ListReservationsByDate(ctx, q.date)
	if err != nil {
		return nil, persistence("list reservations", err)
	}
	ids, err := seating.Overlapping(rs, q.window)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if len(ids) == 0 {
		return map[int]struct{}{}, nil
	}
	seats, err := st.SeatAssignments(ctx, ids)
	if err != nil {
		return nil, persistence("load seat assignments", err)
	}
	return seating.Occupied(seats, ids), nil
}

// Available lists the free seats for a date and window, ascending.
func (s *Reservations) Available(ctx context.Context, date, start string, slots int) ([]int, error) {
	q, err := parseQuery(date, start, slots)
	if err != nil {
		return nil, err
	}
	taken, err := occupied(ctx, s.store, q)
	if err != nil {
		return nil, err
	}
	return seating.Free(s.capacity, taken), nil
}

// Create books the requested seats and charges the employee's manager.
// It returns the new reservation id.
func (s *Reservations) Create(ctx context.Context, req CreateRequest) (string, error) {
	if len(req.SeatIDs) == 0 {
		return "", validationf("seat_ids must not be empty")
	}
	seats, err := seating.NormalizeSeats(req.SeatIDs, s.capacity)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	q, err := parseQuery(req.Date, req.Time, req.NumSlots)
	if err != nil {
		return "", err
	}

	res := model.Reservation{
		ID:         uuid.NewString(),
		EmployeeID: req.EmployeeID,
		Date:       q.date,
		Time:       strings.TrimSpace(req.Time),
		NumSlots:   q.window.Slots,
	}
	charge := Charge(s.rate, res.NumSlots, len(seats))
	var managerID int64

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		emp, err := tx.GetEmployee(ctx, req.EmployeeID)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: employee %d", ErrNotFound, req.EmployeeID)
		}
		if err != nil {
			return persistence("load employee", err)
		}

		taken, err := occupied(ctx, tx, q)
		if err != nil {
			return err
		}
		if busy := seating.Unavailable(seats, taken); len(busy) > 0 {
			return fmt.Errorf("%w: seats %v are not available", ErrConflict, busy)
		}

		if err := tx.CreateReservation(ctx, &res); err != nil {
			return persistence("insert reservation", err)
		}
		rows := make([]model.SeatAssignment, len(seats))
		for i, seat := range seats {
			rows[i] = model.SeatAssignment{SeatID: seat, ReservationID: res.ID}
		}
		if err := tx.CreateSeatAssignments(ctx, rows); err != nil {
			return persistence("insert seat assignments", err)
		}

		if emp.HasManager() {
			err := tx.AdjustOutstanding(ctx, emp.ManagerID, charge)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				s.log.Debug("manager has no fund account", zap.Int64("manager_id", emp.ManagerID))
			case err != nil:
				return persistence("charge manager", err)
			default:
				managerID = emp.ManagerID
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.log.Info("reservation created",
		zap.String("reservation_id", res.ID),
		zap.Int64("emp_id", res.EmployeeID),
		zap.Ints("seats", seats),
		zap.Int64("charge", charge))
	s.afterCommit(ctx, queue.EventCreated, res, seats, managerID, charge)
	return res.ID, nil
}

// Cancel deletes the employee's reservation and refunds the manager.
func (s *Reservations) Cancel(ctx context.Context, empID int64, reservationID string) error {
	reservationID = strings.TrimSpace(reservationID)
	if reservationID == "" {
		return validationf("reservation_id is required")
	}

	var (
		res       model.Reservation
		seats     []int
		refund    int64
		managerID int64
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		res, err = tx.GetReservation(ctx, reservationID)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: reservation %s", ErrNotFound, reservationID)
		}
		if err != nil {
			return persistence("load reservation", err)
		}
		if res.EmployeeID != empID {
			return fmt.Errorf("%w: reservation %s belongs to another employee", ErrUnauthorized, reservationID)
		}

		assigned, err := tx.SeatAssignments(ctx, []string{res.ID})
		if err != nil {
			return persistence("load seat assignments", err)
		}
		seats = seatNumbers(assigned)
		refund = Charge(s.rate, res.NumSlots, len(assigned))

		emp, err := tx.GetEmployee(ctx, res.EmployeeID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return persistence("load employee", err)
		case emp.HasManager():
			err := tx.AdjustOutstanding(ctx, emp.ManagerID, -refund)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return persistence("refund manager", err)
			}
			if err == nil {
				managerID = emp.ManagerID
			}
		}

		if err := tx.DeleteReservation(ctx, res.ID); err != nil {
			return persistence("delete reservation", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("reservation cancelled",
		zap.String("reservation_id", res.ID),
		zap.Int64("emp_id", res.EmployeeID),
		zap.Int64("refund", refund))
	s.afterCommit(ctx, queue.EventCancelled, res, seats, managerID, refund)
	return nil
}

// ListForEmployee returns the employee's reservations, newest first.
func (s *Reservations) ListForEmployee(ctx context.Context, empID int64) ([]model.Reservation, error) {
	rs, err := s.store.ListReservationsByEmployee(ctx, empID)
	if err != nil {
		return nil, persistence("list reservations", err)
	}
	return rs, nil
}

// Details returns one of the employee's reservations with its seats and
// a QR code of its id.
func (s *Reservations) Details(ctx context.Context, empID int64, reservationID string) (Details, error) {
	res, err := s.store.GetReservation(ctx, reservationID)
	if errors.Is(err, repository.ErrNotFound) {
		return Details{}, fmt.Errorf("%w: reservation %s", ErrNotFound, reservationID)
	}
	if err != nil {
		return Details{}, persistence("load reservation", err)
	}
	if res.EmployeeID != empID {
		return Details{}, fmt.Errorf("%w: reservation %s belongs to another employee", ErrUnauthorized, reservationID)
	}
	assigned, err := s.store.SeatAssignments(ctx, []string{res.ID})
	if err != nil {
		return Details{}, persistence("load seat assignments", err)
	}
	url, err := s.qr.DataURL(res.ID)
	if err != nil {
		return Details{}, fmt.Errorf("%w: qr code: %v", ErrPersistence, err)
	}
	return Details{Reservation: res, Seats: seatNumbers(assigned), QRCodeURL: url}, nil
}

// afterCommit invalidates cached availability and publishes the event.
// Failures are logged only; the reservation change is already durable.
func (s *Reservations) afterCommit(ctx context.Context, typ string, res model.Reservation, seats []int, managerID, amount int64) {
	if err := s.cache.Bump(ctx); err != nil {
		s.log.Warn("availability cache invalidation failed", zap.Error(err))
	}
	ev := queue.ReservationEvent{
		Type:          typ,
		ReservationID: res.ID,
		EmployeeID:    res.EmployeeID,
		ManagerID:     managerID,
		Date:          res.Date,
		Time:          res.Time,
		NumSlots:      res.NumSlots,
		Seats:         seats,
		Amount:        amount,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish reservation event failed", zap.String("event", typ), zap.Error(err))
	}
}

func seatNumbers(assigned []model.SeatAssignment) []int {
	out := make([]int, len(assigned))
	for i, a := range assigned {
		out[i] = a.SeatID
	}
	return out
}
