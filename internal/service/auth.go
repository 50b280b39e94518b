package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/blureserve/seat-reservation/internal/repository"
	"github.com/blureserve/seat-reservation/internal/utils"
)

// Session roles.
const (
	RoleManager  = "MANAGER"
	RoleEmployee = "EMPLOYEE"
)

// AuthConfig holds token signing settings.
type AuthConfig struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
}

// Session is the result of a successful login or refresh.
type Session struct {
	EmployeeID int64
	Role       string
	Access     utils.AccessToken
	Refresh    utils.RefreshToken
}

// Auth verifies credentials and issues access/refresh token pairs.
type Auth struct {
	store  repository.Store
	ledger *Ledger
	cfg    AuthConfig
	log    *zap.Logger
}

// NewAuth returns an Auth service.
func NewAuth(store repository.Store, cfg AuthConfig, log *zap.Logger) *Auth {
	if log == nil {
		log = zap.NewNop()
	}
	return &Auth{store: store, ledger: NewLedger(store, log), cfg: cfg, log: log}
}

// Login checks username and password and opens a session.
func (a *Auth) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return Session{}, validationf("username and password are required")
	}
	cred, err := a.store.GetCredential(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, persistence("load credential", err)
	}
	if !utils.VerifyPassword(cred.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return a.issue(ctx, cred.EmployeeID)
}

// Refresh exchanges a valid refresh token for a new pair.  The old
// refresh token is revoked in the same transaction that validates it, so
// a token can be redeemed once.  Presenting an already revoked token
// revokes every refresh token of its employee.
func (a *Auth) Refresh(ctx context.Context, raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Session{}, validationf("refresh_token is required")
	}
	hash := utils.HashRefreshRaw(raw)

	var empID int64
	replayed := false
	err := a.store.WithinTx(ctx, func(tx repository.Store) error {
		id, err := tx.ValidateRefresh(ctx, hash)
		if errors.Is(err, repository.ErrTokenRevoked) {
			replayed = true
			empID = id
			return tx.RevokeAllForEmployee(ctx, id)
		}
		if err != nil {
			return err
		}
		if err := tx.RevokeByHash(ctx, hash); err != nil {
			return err
		}
		empID = id
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, persistence("rotate refresh", err)
	}
	if replayed {
		a.log.Warn("revoked refresh token presented, all sessions revoked", zap.Int64("emp_id", empID))
		return Session{}, ErrInvalidCredentials
	}
	return a.issue(ctx, empID)
}

// Logout revokes a refresh token.  Unknown or already revoked tokens are
// accepted silently.
func (a *Auth) Logout(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return validationf("refresh_token is required")
	}
	err := a.store.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return persistence("revoke refresh", err)
	}
	return nil
}

// LogoutAll revokes every refresh token of an employee.
func (a *Auth) LogoutAll(ctx context.Context, empID int64) error {
	if err := a.store.RevokeAllForEmployee(ctx, empID); err != nil {
		return persistence("revoke sessions", err)
	}
	a.log.Info("all sessions revoked", zap.Int64("emp_id", empID))
	return nil
}

// RoleFor returns MANAGER for employees holding a fund account and
// EMPLOYEE otherwise.
func (a *Auth) RoleFor(ctx context.Context, empID int64) (string, error) {
	ok, err := a.ledger.IsManager(ctx, empID)
	if err != nil {
		return "", err
	}
	if ok {
		return RoleManager, nil
	}
	return RoleEmployee, nil
}

func (a *Auth) issue(ctx context.Context, empID int64) (Session, error) {
	role, err := a.RoleFor(ctx, empID)
	if err != nil {
		return Session{}, err
	}
	access, err := utils.NewAccessToken(a.cfg.JWTSecret, empID, role, a.cfg.AccessTTLMin)
	if err != nil {
		return Session{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := utils.NewRefreshToken(a.cfg.RefreshTTLDays)
	if err != nil {
		return Session{}, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := a.store.StoreRefresh(ctx, empID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, persistence("store refresh", err)
	}
	a.log.Info("session issued", zap.Int64("emp_id", empID), zap.String("role", role))
	return Session{EmployeeID: empID, Role: role, Access: access, Refresh: refresh}, nil
}
