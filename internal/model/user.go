package model

import "time"

// User represents a staff account as stored in the `users` table.
// Each field corresponds to a column. The json tags are omitted
// because these structs are used internally by the repository
// layer; handlers define separate response types with appropriate
// JSON tags.
//
// RefreshToken and RefreshTokenExpiresAt are both set while a
// session is active and both nil otherwise; the pair is rotated on
// every login/refresh and cleared on logout.
//
// Fields:
//  ID                    – primary key identifier of the user.
//  Matricule             – unique staff identifier used as login name.
//  FirstName             – given name.
//  LastName              – family name.
//  PasswordHash          – PBKDF2 encoded hash ("HEXSALT:HEXKEY").
//  RefreshToken          – opaque refresh token (nil when logged out).
//  RefreshTokenExpiresAt – expiry of the refresh token (nil when logged out).
type User struct {
	ID                    uint64     // users.id
	Matricule             string     // users.matricule
	FirstName             string     // users.first_name
	LastName              string     // users.last_name
	PasswordHash          string     // users.password_hash
	RefreshToken          *string    // users.refresh_token (nullable)
	RefreshTokenExpiresAt *time.Time // users.refresh_token_expires_at (nullable)
}

// Role represents a row in the `roles` table. Roles are immutable
// reference data seeded at startup; users reference them through
// the user_roles join table.
//
// Fields:
//  ID          – numeric identifier of the role.
//  Name        – unique role name (e.g. admin, manager).
//  Description – optional human readable description.
type Role struct {
	ID          uint64  // roles.id
	Name        string  // roles.name
	Description *string // roles.description (nullable)
}

// UserRole links one user to one role. The (UserID, RoleID) pair is
// unique; rows are cascade-deleted with either parent.
type UserRole struct {
	ID     uint64 // user_roles.id
	UserID uint64 // user_roles.user_id
	RoleID uint64 // user_roles.role_id
}

// LoginHistory models an entry in the `login_history` table. One
// row is appended per login attempt, successful or not. UserID is 0
// when the submitted matricule did not resolve to a user. Rows are
// never updated or deleted except by cascade when a user is removed.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – owner of the attempt (0 if the matricule was unknown).
//  LoginTime    – UTC timestamp of the attempt.
//  IPAddress    – client IP as reported by the HTTP layer.
//  UserAgent    – client User-Agent string.
//  IsSuccessful – whether the credentials verified.
type LoginHistory struct {
	ID           uint64    // login_history.id
	UserID       uint64    // login_history.user_id
	LoginTime    time.Time // login_history.login_time
	IPAddress    string    // login_history.ip_address
	UserAgent    string    // login_history.user_agent
	IsSuccessful bool      // login_history.is_successful
}
