package database

import (
	"context"
	"database/sql"
)

// schemaStatements creates the four tables this service needs.  All
// statements are idempotent so bootstrap can run on every start.
//
// The unique key on reservations.seat_id is load-bearing: it is the
// storage-level guarantee that at most one reservation ever holds a
// seat, independent of any application-level pre-check.  Reserve
// paths rely on the resulting duplicate-key failure to detect races
// lost at commit time.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		username      VARCHAR(50)     NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		is_premium    TINYINT(1)      NOT NULL DEFAULT 0,
		created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		expires_at    DATETIME        NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS seats (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		row_letter  CHAR(1)         NOT NULL,
		seat_number INT UNSIGNED    NOT NULL,
		status      VARCHAR(20)     NOT NULL DEFAULT 'available',
		is_premium  TINYINT(1)      NOT NULL DEFAULT 0,
		PRIMARY KEY (id),
		UNIQUE KEY uq_seats_position (row_letter, seat_number),
		KEY idx_seats_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id    BIGINT UNSIGNED NOT NULL,
		seat_id    BIGINT UNSIGNED NOT NULL,
		combo      VARCHAR(100)    NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_reservations_seat (seat_id),
		KEY idx_reservations_user (user_id),
		CONSTRAINT fk_reservations_user FOREIGN KEY (user_id)
			REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT fk_reservations_seat FOREIGN KEY (seat_id)
			REFERENCES seats (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_user (user_id),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id)
			REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// CreateTables bootstraps the schema on startup.
func CreateTables(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
