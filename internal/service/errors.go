// Package service implements the reservation lifecycle, the manager fund
// ledger and session issuance on top of a repository.Store.
package service

import (
	"errors"
	"fmt"
)

// Error kinds returned by the services.  Callers classify with errors.Is;
// the wrapped message carries the detail.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("not authorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrPersistence  = errors.New("persistence failure")

	// ErrInvalidCredentials is returned by login and refresh.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// persistence wraps a storage error.  Errors that already carry a
// service kind pass through unchanged so a failing transaction reports
// its original cause.
func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrValidation, ErrUnauthorized, ErrNotFound, ErrConflict, ErrPersistence} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
