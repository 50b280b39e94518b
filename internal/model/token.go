package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to an employee and carries expiry and
// revocation metadata.  The plain token is never stored; only its
// SHA-256 hash.
//
// Fields:
//  EmployeeID – owner of the token.
//  TokenHash  – SHA-256 hex digest of the token value.
//  ExpiresAt  – expiration timestamp of the token.
//  RevokedAt  – when the token was revoked (nil while still active).
type RefreshToken struct {
	EmployeeID int64      `db:"emp_id"`     // refresh_tokens.emp_id
	TokenHash  string     `db:"token_hash"` // refresh_tokens.token_hash
	ExpiresAt  time.Time  `db:"expires_at"` // refresh_tokens.expires_at
	RevokedAt  *time.Time `db:"revoked_at"` // refresh_tokens.revoked_at (nullable)
}
