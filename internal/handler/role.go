package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/staff-auth/internal/repository"
)

// RoleHandler exposes role reference data and (user, role)
// assignment management. Every route it serves sits behind the
// admin role gate; the authorization check is a precondition
// enforced by middleware, not re-checked here.
type RoleHandler struct {
	Users *repository.UserRepo
	Roles *repository.RoleRepo
}

func NewRoleHandler(u *repository.UserRepo, r *repository.RoleRepo) *RoleHandler {
	return &RoleHandler{Users: u, Roles: r}
}

type assignRoleReq struct {
	UserID uint64 `json:"user_id"`
	RoleID uint64 `json:"role_id"`
}

type roleResp struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// GetAllRoles lists every role.
func (h *RoleHandler) GetAllRoles(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	roles, err := h.Roles.ListRoles(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred while listing roles"})
	}
	out := make([]roleResp, 0, len(roles))
	for _, r := range roles {
		out = append(out, roleResp{ID: r.ID, Name: r.Name, Description: r.Description})
	}
	return c.JSON(http.StatusOK, out)
}

// GetUserRoles lists the roles held by one user; 404 when the user
// id does not resolve.
func (h *RoleHandler) GetUserRoles(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"Message": "Invalid user ID"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"Message": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred while listing roles"})
	}

	roles, err := h.Roles.ListRolesForUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred while listing roles"})
	}
	out := make([]roleResp, 0, len(roles))
	for _, r := range roles {
		out = append(out, roleResp{ID: r.ID, Name: r.Name, Description: r.Description})
	}
	return c.JSON(http.StatusOK, out)
}

// AssignRole grants a role to a user. Both ids must resolve, and a
// pair that already exists answers 400 with an explicit message.
func (h *RoleHandler) AssignRole(c echo.Context) error {
	var req assignRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"Message": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"Message": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred while assigning the role"})
	}
	if _, err := h.Roles.GetByID(ctx, req.RoleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"Message": "Role not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred while assigning the role"})
	}

	if err := h.Roles.Assign(ctx, req.UserID, req.RoleID); err != nil {
		if errors.Is(err, repository.ErrRoleAlreadyAssigned) {
			return c.JSON(http.StatusBadRequest, echo.Map{"Message": "User already has this role"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred while assigning the role"})
	}
	return c.JSON(http.StatusOK, echo.Map{"Message": "Role assigned successfully"})
}

// RemoveRole revokes a role from a user; 404 when the pairing does
// not exist.
func (h *RoleHandler) RemoveRole(c echo.Context) error {
	var req assignRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"Message": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Roles.Remove(ctx, req.UserID, req.RoleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"Message": "User does not have this role"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred while removing the role"})
	}
	return c.JSON(http.StatusOK, echo.Map{"Message": "Role removed successfully"})
}
