package repository

import (
	"context"
	"time"

	"github.com/blureserve/seat-reservation/internal/model"
)

// StoreRefresh inserts a refresh token hash row.
func (s *MySQLStore) StoreRefresh(ctx context.Context, empID int64, tokenHash string, exp time.Time) error {
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO refresh_tokens (emp_id, token_hash, expires_at) VALUES (?,?,?)",
		empID, tokenHash, exp)
	return err
}

// ValidateRefresh returns the employee id if a non-revoked, non-expired
// token exists.  Inside a transaction the row is locked.
func (s *MySQLStore) ValidateRefresh(ctx context.Context, tokenHash string) (int64, error) {
	q := "SELECT emp_id, token_hash, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1"
	if s.tx {
		q += " FOR UPDATE"
	}
	var tok model.RefreshToken
	if err := s.get(ctx, &tok, q, tokenHash); err != nil {
		return 0, err
	}
	return checkRefresh(tok)
}

// RevokeByHash marks an active token as revoked.
func (s *MySQLStore) RevokeByHash(ctx context.Context, tokenHash string) error {
	return s.execOne(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
}

// RevokeAllForEmployee revokes all of an employee's active tokens.
func (s *MySQLStore) RevokeAllForEmployee(ctx context.Context, empID int64) error {
	_, err := s.q.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE emp_id=? AND revoked_at IS NULL",
		empID)
	return err
}
