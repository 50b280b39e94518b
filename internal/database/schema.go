package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS employees (
		emp_id     BIGINT PRIMARY KEY,
		manager_id BIGINT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS employee_credentials (
		username      VARCHAR(128) PRIMARY KEY,
		password_hash VARCHAR(255) NOT NULL,
		emp_id        BIGINT NOT NULL,
		FOREIGN KEY (emp_id) REFERENCES employees(emp_id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS fund_accounts (
		emp_id            BIGINT PRIMARY KEY,
		curr_funds        BIGINT NOT NULL DEFAULT 0,
		funds_outstanding BIGINT NOT NULL DEFAULT 0,
		FOREIGN KEY (emp_id) REFERENCES employees(emp_id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		reservation_id CHAR(36) PRIMARY KEY,
		emp_id         BIGINT NOT NULL,
		res_date       CHAR(10) NOT NULL,
		res_time       VARCHAR(16) NOT NULL,
		num_slots      INT NOT NULL,
		created_at     DATETIME NOT NULL,
		INDEX idx_reservations_date (res_date),
		INDEX idx_reservations_emp (emp_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS reservation_days (
		res_date CHAR(10) PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS seat_assignments (
		seat_id        INT NOT NULL,
		reservation_id CHAR(36) NOT NULL,
		PRIMARY KEY (reservation_id, seat_id),
		FOREIGN KEY (reservation_id) REFERENCES reservations(reservation_id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT AUTO_INCREMENT PRIMARY KEY,
		emp_id     BIGINT NOT NULL,
		token_hash CHAR(64) NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_refresh_emp (emp_id)
	)`,
}

// Migrate creates the tables the service needs when they are missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
