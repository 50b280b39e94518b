package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/blureserve/seat-reservation/internal/model"
)

const reservationColumns = `reservation_id, emp_id, res_date, res_time, num_slots, created_at`

// ListReservationsByDate returns every reservation on a date.  Inside a
// transaction it first locks the date's row in reservation_days, creating
// it if needed, so bookings of one date serialise even while the date has
// no reservations yet.  FOR UPDATE alone would only take gap locks there.
func (s *MySQLStore) ListReservationsByDate(ctx context.Context, date string) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE res_date = ?`
	if s.tx {
		if err := s.lockDate(ctx, date); err != nil {
			return nil, err
		}
		q += ` FOR UPDATE`
	}
	out := []model.Reservation{}
	if err := sqlx.SelectContext(ctx, s.q, &out, q, date); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MySQLStore) lockDate(ctx context.Context, date string) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO reservation_days (res_date) VALUES (?) ON DUPLICATE KEY UPDATE res_date = res_date`, date)
	return err
}

// ListReservationsByEmployee returns an employee's reservations, newest
// first.
func (s *MySQLStore) ListReservationsByEmployee(ctx context.Context, empID int64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE emp_id = ? ORDER BY created_at DESC, reservation_id`
	out := []model.Reservation{}
	if err := sqlx.SelectContext(ctx, s.q, &out, q, empID); err != nil {
		return nil, err
	}
	return out, nil
}

// GetReservation loads a single reservation by id.
func (s *MySQLStore) GetReservation(ctx context.Context, id string) (model.Reservation, error) {
	var r model.Reservation
	err := s.get(ctx, &r, `SELECT `+reservationColumns+` FROM reservations WHERE reservation_id = ?`, id)
	return r, err
}

// CreateReservation inserts a reservation.  The caller supplies the id;
// CreatedAt is stamped here in UTC.
func (s *MySQLStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	r.CreatedAt = time.Now().UTC().Truncate(time.Second)
	const q = `INSERT INTO reservations (reservation_id, emp_id, res_date, res_time, num_slots, created_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.q.ExecContext(ctx, q, r.ID, r.EmployeeID, r.Date, r.Time, r.NumSlots, r.CreatedAt)
	return err
}

// CreateSeatAssignments inserts all rows in a single statement.  Passing
// an empty slice has no effect.
func (s *MySQLStore) CreateSeatAssignments(ctx context.Context, seats []model.SeatAssignment) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seat_assignments (seat_id, reservation_id) VALUES `
	args := make([]interface{}, 0, len(seats)*2)
	for i, a := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, a.SeatID, a.ReservationID)
	}
	_, err := s.q.ExecContext(ctx, query, args...)
	return err
}

// SeatAssignments returns the seat rows of the given reservations,
// ordered by reservation and seat.
func (s *MySQLStore) SeatAssignments(ctx context.Context, reservationIDs []string) ([]model.SeatAssignment, error) {
	out := []model.SeatAssignment{}
	if len(reservationIDs) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(
		`SELECT seat_id, reservation_id FROM seat_assignments WHERE reservation_id IN (?) ORDER BY reservation_id, seat_id`,
		reservationIDs)
	if err != nil {
		return nil, err
	}
	if err := sqlx.SelectContext(ctx, s.q, &out, s.q.Rebind(q), args...); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteReservation removes a reservation and its seat assignments.
func (s *MySQLStore) DeleteReservation(ctx context.Context, id string) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM seat_assignments WHERE reservation_id = ?`, id); err != nil {
		return err
	}
	return s.execOne(ctx, `DELETE FROM reservations WHERE reservation_id = ?`, id)
}
