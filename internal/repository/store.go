package repository

import (
	"context"
	"time"

	"github.com/blureserve/seat-reservation/internal/model"
)

// EmployeeStore reads employee reference data and credentials.
type EmployeeStore interface {
	GetEmployee(ctx context.Context, empID int64) (model.Employee, error)
	GetCredential(ctx context.Context, username string) (model.Credential, error)
}

// ReservationStore persists reservations and their seat assignments.
// Inside a transaction ListReservationsByDate locks the returned rows so
// that concurrent bookings of the same date serialise.
type ReservationStore interface {
	ListReservationsByDate(ctx context.Context, date string) ([]model.Reservation, error)
	ListReservationsByEmployee(ctx context.Context, empID int64) ([]model.Reservation, error)
	GetReservation(ctx context.Context, id string) (model.Reservation, error)
	CreateReservation(ctx context.Context, r *model.Reservation) error
	CreateSeatAssignments(ctx context.Context, seats []model.SeatAssignment) error
	SeatAssignments(ctx context.Context, reservationIDs []string) ([]model.SeatAssignment, error)
	DeleteReservation(ctx context.Context, id string) error
}

// FundStore mutates fund accounts with atomic increments.  Both adjust
// methods return ErrNotFound when the manager has no account.
type FundStore interface {
	GetFundAccount(ctx context.Context, empID int64) (model.FundAccount, error)
	AdjustOutstanding(ctx context.Context, empID, delta int64) error
	AddCurrentFunds(ctx context.Context, empID, amount int64) error
}

// TokenStore persists hashed refresh tokens.  RevokeByHash returns
// ErrNotFound when no active token matched, so of two concurrent
// revocations of one token exactly one succeeds.
type TokenStore interface {
	StoreRefresh(ctx context.Context, empID int64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (int64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForEmployee(ctx context.Context, empID int64) error
}

// Store is the full persistence surface used by the services.
// WithinTx runs fn against a transactional view of the store; the
// transaction commits when fn returns nil and rolls back otherwise.
// Calling WithinTx on a transactional view reuses the open transaction.
type Store interface {
	EmployeeStore
	ReservationStore
	FundStore
	TokenStore
	WithinTx(ctx context.Context, fn func(Store) error) error
}

var (
	_ Store = (*MySQLStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
