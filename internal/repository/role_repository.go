package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/staff-auth/internal/model"
)

// RoleRepo reads the 'roles' reference table and manages
// (user, role) assignments in 'user_roles'.
type RoleRepo struct{ db Querier }

func NewRoleRepo(db Querier) *RoleRepo { return &RoleRepo{db: db} }

// WithTx returns a RoleRepo bound to the given transaction.
func (r *RoleRepo) WithTx(tx *sql.Tx) *RoleRepo { return &RoleRepo{db: tx} }

func collectRoles(rows *sql.Rows) ([]model.Role, error) {
	defer rows.Close()
	roles := make([]model.Role, 0)
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// ListRoles returns every role.
func (r *RoleRepo) ListRoles(ctx context.Context) ([]model.Role, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id,name,description FROM roles")
	if err != nil {
		return nil, err
	}
	return collectRoles(rows)
}

// ListRolesForUser returns the roles assigned to one user.
func (r *RoleRepo) ListRolesForUser(ctx context.Context, userID uint64) ([]model.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT r.id,r.name,r.description FROM user_roles ur JOIN roles r ON r.id=ur.role_id WHERE ur.user_id=?",
		userID)
	if err != nil {
		return nil, err
	}
	return collectRoles(rows)
}

// RoleNamesForUser returns just the role names for a user, in no
// guaranteed order. Used when building token claims and auth
// responses.
func (r *RoleRepo) RoleNamesForUser(ctx context.Context, userID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT r.name FROM user_roles ur JOIN roles r ON r.id=ur.role_id WHERE ur.user_id=?",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := make([]string, 0)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// GetByID fetches a role by id.
func (r *RoleRepo) GetByID(ctx context.Context, id uint64) (model.Role, error) {
	var role model.Role
	err := r.db.QueryRowContext(ctx,
		"SELECT id,name,description FROM roles WHERE id=? LIMIT 1",
		id).Scan(&role.ID, &role.Name, &role.Description)
	return role, err
}

// Assign inserts a (user, role) pair. The unique key on the pair
// turns a duplicate assignment into ErrRoleAlreadyAssigned.
func (r *RoleRepo) Assign(ctx context.Context, userID, roleID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO user_roles (user_id, role_id) VALUES (?,?)", userID, roleID)
	if isDuplicate(err) {
		return ErrRoleAlreadyAssigned
	}
	return err
}

// Remove deletes a (user, role) pair; ErrNotFound when the pairing
// does not exist.
func (r *RoleRepo) Remove(ctx context.Context, userID, roleID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM user_roles WHERE user_id=? AND role_id=?", userID, roleID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
