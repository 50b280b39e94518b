package model

// FundAccount is a manager's ledger.  CurrentFunds moves only through
// explicit top-ups; FundsOutstanding accumulates the charges of the
// active reservations made by the manager's reports.
//
// Fields:
//  EmployeeID       – the manager's employee number.
//  CurrentFunds     – available balance.
//  FundsOutstanding – charges of active reservations not yet reconciled.
type FundAccount struct {
	EmployeeID       int64 `db:"emp_id"`            // fund_accounts.emp_id
	CurrentFunds     int64 `db:"curr_funds"`        // fund_accounts.curr_funds
	FundsOutstanding int64 `db:"funds_outstanding"` // fund_accounts.funds_outstanding
}
