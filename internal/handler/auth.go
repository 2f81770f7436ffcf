package handler

import (
	"context"      // context with cancellation for DB calls
	"database/sql" // SQL database interactions
	"errors"       // sentinel error comparison
	"log"          // server-side logging of auth failures
	"net/http"     // HTTP status codes and primitives
	"strings"      // string manipulation utilities
	"time"         // timeouts and expiries

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/staff-auth/internal/config"     // app configuration
	"github.com/iliyamo/staff-auth/internal/middleware" // authenticated identity extraction
	"github.com/iliyamo/staff-auth/internal/model"      // row structs
	"github.com/iliyamo/staff-auth/internal/queue"      // audit event payloads
	"github.com/iliyamo/staff-auth/internal/repository" // DB repositories
	"github.com/iliyamo/staff-auth/internal/service"    // queue publisher
	"github.com/iliyamo/staff-auth/internal/utils"      // hashing and token issuing
)

// refreshCookieName is the cookie carrying the refresh token
// alongside the response body (dual delivery for cookie-based and
// body-based clients).
const refreshCookieName = "X-Refresh-Token"

// AuthHandler bundles dependencies for auth endpoints. DB is kept
// next to the repositories so the login success path can run its
// token persist and audit write in one transaction.
type AuthHandler struct {
	Cfg     config.Config
	DB      *sql.DB
	Users   *repository.UserRepo
	Roles   *repository.RoleRepo
	History *repository.HistoryRepo
}

func NewAuthHandler(cfg config.Config, db *sql.DB, u *repository.UserRepo, r *repository.RoleRepo, h *repository.HistoryRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, DB: db, Users: u, Roles: r, History: h}
}

// ----- DTOs -----

type loginReq struct {
	Matricule string `json:"matricule"`
	Password  string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type authResp struct {
	ID           uint64   `json:"id"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Matricule    string   `json:"matricule"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	Roles        []string `json:"roles"`
}

// setRefreshCookie delivers the refresh token as an HTTP-only,
// secure, strict-same-site cookie expiring with the token.
func setRefreshCookie(c echo.Context, token string, exp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearRefreshCookie expires the refresh cookie immediately.
func clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// record appends an audit row. A failed audit write is logged but
// never masks the auth outcome being reported to the client.
func (h *AuthHandler) record(ctx context.Context, e model.LoginHistory) {
	if err := h.History.Record(ctx, e); err != nil {
		log.Printf("auth: login history write failed: %v", err)
	}
}

// publishLoginEvent emits a best-effort audit event off the request
// path; broker failures are logged by the publisher and ignored.
func (h *AuthHandler) publishLoginEvent(e model.LoginHistory, matricule string) {
	go func() {
		_ = service.PublishLoginRecorded(context.Background(), queue.LoginRecordedEvent{
			UserID:     e.UserID,
			Matricule:  matricule,
			IPAddress:  e.IPAddress,
			UserAgent:  e.UserAgent,
			Successful: e.IsSuccessful,
			OccurredAt: e.LoginTime.Format(time.RFC3339),
		})
	}()
}

// Login verifies matricule + password, rotates the user's refresh
// token and returns a fresh token pair. Every attempt is recorded
// in login_history regardless of outcome; unknown matricule and
// wrong password answer with an identical generic 401 so the
// response never reveals which factor failed.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"Message": "invalid body"})
	}
	req.Matricule = strings.TrimSpace(req.Matricule)
	if req.Matricule == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"Message": "matricule and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entry := model.LoginHistory{
		LoginTime: time.Now().UTC(),
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}

	u, err := h.Users.GetByMatricule(ctx, req.Matricule)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Specific cause stays in the server log only.
			log.Printf("auth: login failed: matricule %s not found", req.Matricule)
			h.record(ctx, entry) // user_id 0: matricule did not resolve
			h.publishLoginEvent(entry, req.Matricule)
			return c.JSON(http.StatusUnauthorized, echo.Map{"Message": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred during login"})
	}

	entry.UserID = u.ID
	if !utils.VerifyPassword(req.Password, u.PasswordHash) {
		log.Printf("auth: login failed: invalid password for matricule %s", req.Matricule)
		h.record(ctx, entry)
		h.publishLoginEvent(entry, req.Matricule)
		return c.JSON(http.StatusUnauthorized, echo.Map{"Message": "Invalid credentials"})
	}

	roles, err := h.Roles.RoleNamesForUser(ctx, u.ID)
	if err != nil {
		h.record(ctx, entry)
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred during login"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, h.Cfg.JWTIssuer, h.Cfg.JWTAudience,
		u.ID, u.Matricule, roles, h.Cfg.AccessTTLMin)
	if err != nil {
		h.record(ctx, entry) // attempt is kept even when issuance fails
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred during login"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		h.record(ctx, entry)
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred during login"})
	}

	// Persist the rotated refresh token and the success audit row
	// atomically: the attempt is never lost between the two writes.
	entry.IsSuccessful = true
	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred during login"})
	}
	if err := h.Users.WithTx(tx).StoreRefreshToken(ctx, u.ID, refresh.Raw, refresh.Exp); err != nil {
		_ = tx.Rollback()
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred during login"})
	}
	if err := h.History.WithTx(tx).Record(ctx, entry); err != nil {
		_ = tx.Rollback()
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred during login"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred during login"})
	}

	setRefreshCookie(c, refresh.Raw, refresh.Exp)
	h.publishLoginEvent(entry, u.Matricule)

	return c.JSON(http.StatusOK, authResp{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Matricule:    u.Matricule,
		AccessToken:  access.Token,
		RefreshToken: refresh.Raw,
		Roles:        roles,
	})
}

// Refresh exchanges a refresh token for a new token pair. The
// cookie value takes precedence over the body value. Rotation is
// single-use: the presented token is consumed and becomes
// permanently invalid, and a concurrent refresh racing on the same
// token loses by finding no matching row.
func (h *AuthHandler) Refresh(c echo.Context) error {
	token := ""
	if ck, err := c.Cookie(refreshCookieName); err == nil && ck.Value != "" {
		token = ck.Value
	}
	if token == "" {
		var req refreshReq
		_ = c.Bind(&req)
		token = strings.TrimSpace(req.RefreshToken)
	}
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"Message": "Refresh token is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByRefreshToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"Message": "Invalid or expired refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred during token refresh"})
	}
	// Expiry at exactly now is already invalid.
	if u.RefreshTokenExpiresAt == nil || !time.Now().UTC().Before(*u.RefreshTokenExpiresAt) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"Message": "Invalid or expired refresh token"})
	}

	roles, err := h.Roles.RoleNamesForUser(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred during token refresh"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, h.Cfg.JWTIssuer, h.Cfg.JWTAudience,
		u.ID, u.Matricule, roles, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred during token refresh"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred during token refresh"})
	}

	rotated, err := h.Users.RotateRefreshToken(ctx, u.ID, token, refresh.Raw, refresh.Exp)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred during token refresh"})
	}
	if !rotated {
		// Another request consumed this token first.
		return c.JSON(http.StatusUnauthorized, echo.Map{"Message": "Invalid or expired refresh token"})
	}

	setRefreshCookie(c, refresh.Raw, refresh.Exp)

	return c.JSON(http.StatusOK, authResp{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Matricule:    u.Matricule,
		AccessToken:  access.Token,
		RefreshToken: refresh.Raw,
		Roles:        roles,
	})
}

// Logout clears the caller's refresh token and deletes the cookie.
// Logging out with no active refresh token is not an error.
func (h *AuthHandler) Logout(c echo.Context) error {
	uid, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"Message": "Invalid user ID"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.ClearRefreshToken(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred during logout"})
	}
	clearRefreshCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"Message": "Logged out successfully"})
}

// Me returns the caller's identity and role names. The access token
// can outlive the user record inside its validity window, hence the
// 404 path.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"Message": "Invalid user ID"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"Message": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred while getting user information"})
	}
	roles, err := h.Roles.RoleNamesForUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"Message": "An error occurred while getting user information"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":         u.ID,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"matricule":  u.Matricule,
		"roles":      roles,
	})
}
