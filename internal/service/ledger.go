package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/blureserve/seat-reservation/internal/repository"
)

// DefaultSlotRate is the charge for one seat for one slot.
const DefaultSlotRate int64 = 100

// Charge is the amount billed for a reservation of seats seats over
// slots hours.
func Charge(rate int64, slots, seats int) int64 {
	return rate * int64(slots) * int64(seats)
}

// Balance is a manager's ledger position.
type Balance struct {
	CurrentFunds     int64 `json:"current_funds"`
	FundsOutstanding int64 `json:"funds_outstanding"`
}

// Ledger exposes manager fund accounts.
type Ledger struct {
	store repository.Store
	log   *zap.Logger
}

// NewLedger returns a Ledger over store.
func NewLedger(store repository.Store, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{store: store, log: log}
}

// Balance returns the manager's current and outstanding funds.
func (l *Ledger) Balance(ctx context.Context, empID int64) (Balance, error) {
	acc, err := l.store.GetFundAccount(ctx, empID)
	if errors.Is(err, repository.ErrNotFound) {
		return Balance{}, fmt.Errorf("%w: no fund account for employee %d", ErrNotFound, empID)
	}
	if err != nil {
		return Balance{}, persistence("load fund account", err)
	}
	return Balance{CurrentFunds: acc.CurrentFunds, FundsOutstanding: acc.FundsOutstanding}, nil
}

// TopUp adds amount to the manager's current funds.  Negative amounts
// reduce the balance.
func (l *Ledger) TopUp(ctx context.Context, empID, amount int64) error {
	err := l.store.AddCurrentFunds(ctx, empID, amount)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: no fund account for employee %d", ErrNotFound, empID)
	}
	if err != nil {
		return persistence("top up", err)
	}
	l.log.Info("funds topped up", zap.Int64("emp_id", empID), zap.Int64("amount", amount))
	return nil
}

// IsManager reports whether the employee holds a fund account.
func (l *Ledger) IsManager(ctx context.Context, empID int64) (bool, error) {
	_, err := l.store.GetFundAccount(ctx, empID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, persistence("load fund account", err)
	}
	return true, nil
}
