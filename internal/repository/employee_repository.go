package repository

import (
	"context"
	"strings"

	"github.com/blureserve/seat-reservation/internal/model"
)

// GetEmployee fetches an employee by id.
func (s *MySQLStore) GetEmployee(ctx context.Context, empID int64) (model.Employee, error) {
	var e model.Employee
	err := s.get(ctx, &e,
		"SELECT emp_id, COALESCE(manager_id, 0) AS manager_id FROM employees WHERE emp_id=? LIMIT 1",
		empID)
	return e, err
}

// GetCredential fetches the credential of a username.  Usernames are
// matched case-insensitively after trimming.
func (s *MySQLStore) GetCredential(ctx context.Context, username string) (model.Credential, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	var c model.Credential
	err := s.get(ctx, &c,
		"SELECT username, password_hash, emp_id FROM employee_credentials WHERE username=? LIMIT 1",
		username)
	return c, err
}
