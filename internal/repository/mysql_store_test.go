package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blureserve/seat-reservation/internal/model"
)

func newMockStore(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewMySQLStore(sqlx.NewDb(db, "mysql")), mock
}

func sqlText(s string) string { return regexp.QuoteMeta(s) }

var reservationCols = []string{"reservation_id", "emp_id", "res_date", "res_time", "num_slots", "created_at"}

func TestMySQLListByDateLocksInsideTx(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(sqlText("INSERT INTO reservation_days (res_date) VALUES (?) ON DUPLICATE KEY UPDATE")).
		WithArgs("2024-01-01").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(sqlText("FROM reservations WHERE res_date = ? FOR UPDATE")).
		WithArgs("2024-01-01").
		WillReturnRows(sqlmock.NewRows(reservationCols).AddRow("r1", 2, "2024-01-01", "10:00", 2, at))
	mock.ExpectCommit()

	var got []model.Reservation
	err := s.WithinTx(ctx, func(tx Store) error {
		var err error
		got, err = tx.ListReservationsByDate(ctx, "2024-01-01")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []model.Reservation{{ID: "r1", EmployeeID: 2, Date: "2024-01-01", Time: "10:00", NumSlots: 2, CreatedAt: at}}, got)
}

func TestMySQLListByDateOutsideTxDoesNotLock(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM reservations WHERE res_date = \?$`).
		WithArgs("2024-01-02").
		WillReturnRows(sqlmock.NewRows(reservationCols))

	got, err := s.ListReservationsByDate(context.Background(), "2024-01-02")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMySQLWithinTxRetriesDeadlock(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(sqlText("INSERT INTO reservation_days")).
		WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec(sqlText("INSERT INTO reservation_days")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(sqlText("FOR UPDATE")).WillReturnRows(sqlmock.NewRows(reservationCols))
	mock.ExpectCommit()

	runs := 0
	err := s.WithinTx(ctx, func(tx Store) error {
		runs++
		_, err := tx.ListReservationsByDate(ctx, "2024-01-01")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, runs)
}

func TestMySQLWithinTxRollsBackOnError(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := s.WithinTx(context.Background(), func(Store) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestMySQLCreateReservationAndSeats(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(sqlText("INSERT INTO reservations (reservation_id, emp_id, res_date, res_time, num_slots, created_at)")).
		WithArgs("r1", int64(2), "2024-01-01", "10:00", 3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(sqlText("INSERT INTO seat_assignments (seat_id, reservation_id) VALUES (?, ?),(?, ?)")).
		WithArgs(5, "r1", 6, "r1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	r := &model.Reservation{ID: "r1", EmployeeID: 2, Date: "2024-01-01", Time: "10:00", NumSlots: 3}
	require.NoError(t, s.CreateReservation(ctx, r))
	assert.False(t, r.CreatedAt.IsZero())
	assert.Equal(t, time.UTC, r.CreatedAt.Location())

	require.NoError(t, s.CreateSeatAssignments(ctx, []model.SeatAssignment{
		{SeatID: 5, ReservationID: "r1"},
		{SeatID: 6, ReservationID: "r1"},
	}))
	require.NoError(t, s.CreateSeatAssignments(ctx, nil))
}

func TestMySQLSeatAssignmentsExpandsIDs(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(sqlText("WHERE reservation_id IN (?, ?) ORDER BY reservation_id, seat_id")).
		WithArgs("r1", "r2").
		WillReturnRows(sqlmock.NewRows([]string{"seat_id", "reservation_id"}).
			AddRow(5, "r1").
			AddRow(9, "r2"))

	got, err := s.SeatAssignments(ctx, []string{"r1", "r2"})
	require.NoError(t, err)
	assert.Equal(t, []model.SeatAssignment{{SeatID: 5, ReservationID: "r1"}, {SeatID: 9, ReservationID: "r2"}}, got)

	got, err = s.SeatAssignments(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMySQLGetReservationNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(sqlText("FROM reservations WHERE reservation_id = ?")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(reservationCols))

	_, err := s.GetReservation(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMySQLDeleteReservation(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(sqlText("DELETE FROM seat_assignments WHERE reservation_id = ?")).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(sqlText("DELETE FROM reservations WHERE reservation_id = ?")).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.DeleteReservation(ctx, "r1"))

	mock.ExpectExec(sqlText("DELETE FROM seat_assignments")).WithArgs("gone").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(sqlText("DELETE FROM reservations")).WithArgs("gone").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.DeleteReservation(ctx, "gone"), ErrNotFound)
}

func TestMySQLFundAdjustments(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(sqlText("UPDATE fund_accounts SET funds_outstanding = funds_outstanding + ? WHERE emp_id = ?")).
		WithArgs(int64(400), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.AdjustOutstanding(ctx, 1, 400))

	// No account: the statement matches nothing.
	mock.ExpectExec(sqlText("UPDATE fund_accounts SET funds_outstanding")).
		WithArgs(int64(-100), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.AdjustOutstanding(ctx, 9, -100), ErrNotFound)

	mock.ExpectExec(sqlText("UPDATE fund_accounts SET curr_funds = curr_funds + ? WHERE emp_id = ?")).
		WithArgs(int64(250), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.AddCurrentFunds(ctx, 1, 250))

	mock.ExpectQuery(sqlText("SELECT emp_id, curr_funds, funds_outstanding FROM fund_accounts")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"emp_id", "curr_funds", "funds_outstanding"}).AddRow(1, 5250, 400))
	f, err := s.GetFundAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.FundAccount{EmployeeID: 1, CurrentFunds: 5250, FundsOutstanding: 400}, f)
}

func TestMySQLEmployeeLookups(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(sqlText("COALESCE(manager_id, 0) AS manager_id FROM employees")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"emp_id", "manager_id"}).AddRow(2, 1))
	e, err := s.GetEmployee(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, model.Employee{ID: 2, ManagerID: 1}, e)

	mock.ExpectQuery(sqlText("FROM employee_credentials WHERE username=?")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"username", "password_hash", "emp_id"}))
	_, err = s.GetCredential(ctx, " Alice ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMySQLRefreshTokens(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	tokenCols := []string{"emp_id", "token_hash", "expires_at", "revoked_at"}
	later := time.Now().UTC().Add(time.Hour)

	mock.ExpectExec(sqlText("INSERT INTO refresh_tokens (emp_id, token_hash, expires_at) VALUES (?,?,?)")).
		WithArgs(int64(2), "h1", later).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, s.StoreRefresh(ctx, 2, "h1", later))

	mock.ExpectBegin()
	mock.ExpectQuery(sqlText("FROM refresh_tokens WHERE token_hash=? LIMIT 1 FOR UPDATE")).
		WithArgs("h1").
		WillReturnRows(sqlmock.NewRows(tokenCols).AddRow(2, "h1", later, nil))
	mock.ExpectExec(sqlText("UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL")).
		WithArgs("h1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	err := s.WithinTx(ctx, func(tx Store) error {
		id, err := tx.ValidateRefresh(ctx, "h1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), id)
		return tx.RevokeByHash(ctx, "h1")
	})
	require.NoError(t, err)

	revoked := time.Now().UTC()
	mock.ExpectQuery(sqlText("FROM refresh_tokens WHERE token_hash=?")).
		WithArgs("h1").
		WillReturnRows(sqlmock.NewRows(tokenCols).AddRow(2, "h1", later, revoked))
	id, err := s.ValidateRefresh(ctx, "h1")
	assert.ErrorIs(t, err, ErrTokenRevoked)
	assert.Equal(t, int64(2), id)

	mock.ExpectQuery(sqlText("FROM refresh_tokens WHERE token_hash=?")).
		WithArgs("old").
		WillReturnRows(sqlmock.NewRows(tokenCols).AddRow(2, "old", time.Now().UTC().Add(-time.Hour), nil))
	_, err = s.ValidateRefresh(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectExec(sqlText("UPDATE refresh_tokens SET revoked_at")).
		WithArgs("h1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.RevokeByHash(ctx, "h1"), ErrNotFound)

	mock.ExpectExec(sqlText("WHERE emp_id=? AND revoked_at IS NULL")).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	require.NoError(t, s.RevokeAllForEmployee(ctx, 2))
}
