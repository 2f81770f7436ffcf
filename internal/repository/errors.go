// Package repository defines error types that are reused across
// multiple repositories. These sentinel values allow higher layers
// such as handlers to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// ErrNotFound is returned when a lookup resolves no row. Handlers
// should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrMatriculeExists is returned when a user insert collides with
// an existing matricule.
var ErrMatriculeExists = errors.New("matricule already exists")

// ErrRoleAlreadyAssigned is returned when a (user, role) pair is
// assigned a second time. Handlers should translate this into an
// HTTP 400 response with an explicit message.
var ErrRoleAlreadyAssigned = errors.New("role already assigned")

// Querier is the subset of *sql.DB and *sql.Tx that repositories
// use, so the same methods can run inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// isDuplicate reports whether err is a MySQL duplicate-key error (1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
