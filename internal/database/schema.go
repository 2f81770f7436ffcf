package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the tables required by the service. Statements are
// idempotent so Migrate can run on every startup. login_history
// rows keep user_id = 0 for attempts against unknown matricules, so
// that column carries no foreign key; cascade cleanup of a removed
// user's history is handled by the delete path, not the schema.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		matricule VARCHAR(10) NOT NULL,
		first_name VARCHAR(50) NOT NULL,
		last_name VARCHAR(50) NOT NULL,
		password_hash TEXT NOT NULL,
		refresh_token TEXT NULL,
		refresh_token_expires_at DATETIME NULL,
		PRIMARY KEY (id),
		UNIQUE KEY ux_users_matricule (matricule)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS roles (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(50) NOT NULL,
		description VARCHAR(255) NULL,
		PRIMARY KEY (id),
		UNIQUE KEY ux_roles_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id BIGINT UNSIGNED NOT NULL,
		role_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY ux_user_roles_pair (user_id, role_id),
		CONSTRAINT fk_user_roles_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT fk_user_roles_role FOREIGN KEY (role_id) REFERENCES roles (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS login_history (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id BIGINT UNSIGNED NOT NULL,
		login_time DATETIME NOT NULL,
		ip_address TEXT NULL,
		user_agent TEXT NULL,
		is_successful BOOLEAN NOT NULL,
		PRIMARY KEY (id),
		KEY ix_login_history_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// seedRoles is the reference role set inserted once when the roles
// table is empty.
var seedRoles = []struct{ name, description string }{
	{"admin", "Full administrative access"},
	{"manager", "Team and planning management"},
	{"trainer", "Training delivery"},
	{"scheduler", "Schedule management"},
}

// Migrate creates missing tables and seeds the role reference data.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM roles").Scan(&count); err != nil {
		return fmt.Errorf("count roles: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, r := range seedRoles {
		if _, err := db.ExecContext(ctx,
			"INSERT INTO roles (name, description) VALUES (?,?)", r.name, r.description); err != nil {
			return fmt.Errorf("seed role %s: %w", r.name, err)
		}
	}
	return nil
}
