package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/staff-auth/internal/model"
)

const userColumns = "id,matricule,first_name,last_name,password_hash,refresh_token,refresh_token_expires_at"

// UserRepo reads and mutates rows in the 'users' table, including
// the refresh-token state driven by the auth workflow.
type UserRepo struct{ db Querier }

func NewUserRepo(db Querier) *UserRepo { return &UserRepo{db: db} }

// WithTx returns a UserRepo bound to the given transaction.
func (r *UserRepo) WithTx(tx *sql.Tx) *UserRepo { return &UserRepo{db: tx} }

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Matricule, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.RefreshToken, &u.RefreshTokenExpiresAt)
	return u, err
}

// Create inserts a user with an already-hashed password and returns its ID.
func (r *UserRepo) Create(ctx context.Context, matricule, firstName, lastName, passwordHash string) (uint64, error) {
	matricule = strings.TrimSpace(matricule)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (matricule, first_name, last_name, password_hash) VALUES (?,?,?,?)",
		matricule, firstName, lastName, passwordHash)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrMatriculeExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByMatricule fetches a user by its unique matricule.
func (r *UserRepo) GetByMatricule(ctx context.Context, matricule string) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE matricule=? LIMIT 1",
		strings.TrimSpace(matricule)))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByRefreshToken fetches the user currently holding the given
// refresh token. At most one user holds any token value.
func (r *UserRepo) GetByRefreshToken(ctx context.Context, token string) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE refresh_token=? LIMIT 1", token))
}

// StoreRefreshToken sets the user's refresh token and expiry,
// replacing any previous value.
func (r *UserRepo) StoreRefreshToken(ctx context.Context, userID uint64, token string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET refresh_token=?, refresh_token_expires_at=? WHERE id=?",
		token, exp, userID)
	return err
}

// RotateRefreshToken swaps oldToken for newToken on the user's row.
// The old token is part of the WHERE clause, so a concurrent
// rotation that already consumed it makes this a no-op; the caller
// must treat zero affected rows as an invalid token. That is the
// single-use semantics, enforced by row consistency rather than
// locks.
func (r *UserRepo) RotateRefreshToken(ctx context.Context, userID uint64, oldToken, newToken string, exp time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET refresh_token=?, refresh_token_expires_at=? WHERE id=? AND refresh_token=?",
		newToken, exp, userID, oldToken)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ClearRefreshToken removes the user's refresh token and expiry.
// Clearing an already-cleared token is not an error (logout is
// idempotent).
func (r *UserRepo) ClearRefreshToken(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET refresh_token=NULL, refresh_token_expires_at=NULL WHERE id=?", userID)
	return err
}

// Count returns the number of user rows; the CSV seeder uses it to
// decide whether the store was already bootstrapped.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}
