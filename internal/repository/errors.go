// Package repository defines the persistence layer of the reservation
// service.  Store is implemented by MySQLStore for production and by
// MemoryStore for tests and local demo runs.  Both return ErrNotFound
// for missing rows so that higher layers never depend on sql.ErrNoRows.
package repository

import (
	"errors"
	"time"

	"github.com/blureserve/seat-reservation/internal/model"
)

// ErrNotFound is returned when the requested row does not exist.
// Services translate this into their own not-found error and handlers
// into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrTokenRevoked is returned by ValidateRefresh for a refresh token that
// was revoked earlier.  The returned employee id is still set so the
// caller can react to a replayed token.
var ErrTokenRevoked = errors.New("refresh token revoked")

// checkRefresh applies the revocation and expiry rules shared by both
// stores.
func checkRefresh(t model.RefreshToken) (int64, error) {
	if t.RevokedAt != nil {
		return t.EmployeeID, ErrTokenRevoked
	}
	if time.Now().UTC().After(t.ExpiresAt) {
		return 0, ErrNotFound
	}
	return t.EmployeeID, nil
}
