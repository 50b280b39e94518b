package utils

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost applies when BCRYPT_COST is unset.
const DefaultBcryptCost = 10

var (
	// ErrBcryptCost is returned for a cost bcrypt does not support.
	ErrBcryptCost = errors.New("bcrypt cost out of range")
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("empty password")
)

// CheckBcryptCost validates a configured BCRYPT_COST.
func CheckBcryptCost(cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return fmt.Errorf("%w: %d not in %d..%d", ErrBcryptCost, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// HashPassword hashes an employee credential at the configured cost.
func HashPassword(plain string, cost int) (string, error) {
	if err := CheckBcryptCost(cost); err != nil {
		return "", err
	}
	if plain == "" {
		return "", ErrEmptyPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches a stored credential hash.
// Empty inputs never match.
func VerifyPassword(hash, plain string) bool {
	if hash == "" || plain == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
