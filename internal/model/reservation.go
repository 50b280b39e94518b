package model

import "time"

// Reservation records an employee's booking of one or more seats for a
// date and an hour-granular time window.  The seats themselves live in
// SeatAssignment rows that reference the reservation.
//
// Fields:
//  ID         – opaque unique identifier (UUID string).
//  EmployeeID – employee who made, and owns, the reservation.
//  Date       – calendar day, formatted YYYY-MM-DD.
//  Time       – start time, formatted HH:MM; only the hour is significant.
//  NumSlots   – duration in whole hours.
//  CreatedAt  – creation timestamp (UTC).
type Reservation struct {
	ID         string    `db:"reservation_id"` // reservations.reservation_id
	EmployeeID int64     `db:"emp_id"`         // reservations.emp_id
	Date       string    `db:"res_date"`       // reservations.res_date
	Time       string    `db:"res_time"`       // reservations.res_time
	NumSlots   int       `db:"num_slots"`      // reservations.num_slots
	CreatedAt  time.Time `db:"created_at"`     // reservations.created_at
}

// SeatAssignment links a seat to the reservation holding it.  A
// reservation of n seats owns n assignments.
//
// Fields:
//  SeatID        – seat number in 1..capacity.
//  ReservationID – reservation that holds the seat.
type SeatAssignment struct {
	SeatID        int    `db:"seat_id"`        // seat_assignments.seat_id
	ReservationID string `db:"reservation_id"` // seat_assignments.reservation_id
}
