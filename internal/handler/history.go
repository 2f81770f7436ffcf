package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/staff-auth/internal/middleware"
	"github.com/iliyamo/staff-auth/internal/model"
	"github.com/iliyamo/staff-auth/internal/repository"
)

// Read-side caps for the audit trail. The write side is append-only
// and lives in the auth workflow.
const (
	historyCapAll  = 100
	historyCapUser = 50
	historyCapOwn  = 20
)

// HistoryHandler serves the login-history audit trail.
type HistoryHandler struct {
	History *repository.HistoryRepo
}

func NewHistoryHandler(h *repository.HistoryRepo) *HistoryHandler {
	return &HistoryHandler{History: h}
}

type historyEntryResp struct {
	ID           uint64                  `json:"id"`
	LoginTime    time.Time               `json:"login_time"`
	IPAddress    string                  `json:"ip_address"`
	UserAgent    string                  `json:"user_agent"`
	IsSuccessful bool                    `json:"is_successful"`
	User         *repository.UserSummary `json:"user,omitempty"`
}

func toEntryResp(e model.LoginHistory, u *repository.UserSummary) historyEntryResp {
	return historyEntryResp{
		ID:           e.ID,
		LoginTime:    e.LoginTime,
		IPAddress:    e.IPAddress,
		UserAgent:    e.UserAgent,
		IsSuccessful: e.IsSuccessful,
		User:         u,
	}
}

// GetLoginHistory returns the newest entries across all users,
// capped at 100, with the owning user joined in where the attempt
// resolved to one.
func (h *HistoryHandler) GetLoginHistory(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.History.ListAll(ctx, historyCapAll)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred while listing login history"})
	}
	out := make([]historyEntryResp, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResp(e.Entry, e.User))
	}
	return c.JSON(http.StatusOK, out)
}

// GetUserLoginHistory returns the newest entries for one user,
// capped at 50.
func (h *HistoryHandler) GetUserLoginHistory(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"Message": "Invalid user ID"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.History.ListForUser(ctx, userID, historyCapUser)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred while listing login history"})
	}
	out := make([]historyEntryResp, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResp(e, nil))
	}
	return c.JSON(http.StatusOK, out)
}

// GetMyLoginHistory returns the caller's own newest entries, capped
// at 20.
func (h *HistoryHandler) GetMyLoginHistory(c echo.Context) error {
	uid, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"Message": "Invalid user ID"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.History.ListForUser(ctx, uid, historyCapOwn)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred while listing login history"})
	}
	out := make([]historyEntryResp, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResp(e, nil))
	}
	return c.JSON(http.StatusOK, out)
}
