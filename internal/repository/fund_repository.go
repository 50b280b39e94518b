package repository

import (
	"context"

	"github.com/blureserve/seat-reservation/internal/model"
)

// GetFundAccount returns the fund account of a manager.
func (s *MySQLStore) GetFundAccount(ctx context.Context, empID int64) (model.FundAccount, error) {
	var f model.FundAccount
	err := s.get(ctx, &f,
		"SELECT emp_id, curr_funds, funds_outstanding FROM fund_accounts WHERE emp_id=? LIMIT 1",
		empID)
	return f, err
}

// AdjustOutstanding adds delta (which may be negative) to the manager's
// outstanding funds in a single statement.
func (s *MySQLStore) AdjustOutstanding(ctx context.Context, empID, delta int64) error {
	return s.execOne(ctx,
		"UPDATE fund_accounts SET funds_outstanding = funds_outstanding + ? WHERE emp_id = ?",
		delta, empID)
}

// AddCurrentFunds adds amount (which may be negative) to the manager's
// current funds in a single statement.
func (s *MySQLStore) AddCurrentFunds(ctx context.Context, empID, amount int64) error {
	return s.execOne(ctx,
		"UPDATE fund_accounts SET curr_funds = curr_funds + ? WHERE emp_id = ?",
		amount, empID)
}
