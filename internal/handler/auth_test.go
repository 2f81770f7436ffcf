package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/staff-auth/internal/config"
	"github.com/iliyamo/staff-auth/internal/repository"
	"github.com/iliyamo/staff-auth/internal/utils"
)

var userCols = []string{"id", "matricule", "first_name", "last_name", "password_hash", "refresh_token", "refresh_token_expires_at"}

// hash of "Secret123!", computed once; PBKDF2 at production cost is
// deliberately slow.
var testHash string

func init() {
	h, err := utils.HashPassword("Secret123!")
	if err != nil {
		panic(err)
	}
	testHash = h
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      "test-secret",
		JWTIssuer:      "staff-auth",
		JWTAudience:    "staff-app",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
	}
}

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAuthHandler(testConfig(), db,
		repository.NewUserRepo(db), repository.NewRoleRepo(db), repository.NewHistoryRepo(db)), mock
}

func doLogin(t *testing.T, h *AuthHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("User-Agent", "go-test")
	rec := httptest.NewRecorder()
	require.NoError(t, h.Login(e.NewContext(req, rec)))
	return rec
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "X-Refresh-Token" {
			return ck
		}
	}
	return nil
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	// Unknown matricule: audit row with user_id 0.
	h, mock := newAuthHandler(t)
	mock.ExpectQuery("SELECT .* FROM users WHERE matricule=").
		WithArgs("E99999").
		WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectExec("INSERT INTO login_history").
		WithArgs(uint64(0), sqlmock.AnyArg(), sqlmock.AnyArg(), "go-test", false).
		WillReturnResult(sqlmock.NewResult(1, 1))

	unknownRec := doLogin(t, h, `{"matricule":"E99999","password":"Secret123!"}`)
	assert.Equal(t, http.StatusUnauthorized, unknownRec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())

	// Known matricule, wrong password: audit row with the user's id.
	h, mock = newAuthHandler(t)
	mock.ExpectQuery("SELECT .* FROM users WHERE matricule=").
		WithArgs("E12345").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "E12345", "Ada", "Lovelace", testHash, nil, nil))
	mock.ExpectExec("INSERT INTO login_history").
		WithArgs(uint64(1), sqlmock.AnyArg(), sqlmock.AnyArg(), "go-test", false).
		WillReturnResult(sqlmock.NewResult(1, 1))

	wrongRec := doLogin(t, h, `{"matricule":"E12345","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, wrongRec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())

	// The two failure responses must be byte-identical so the
	// response never reveals which factor failed.
	assert.Equal(t, unknownRec.Body.String(), wrongRec.Body.String())
	assert.JSONEq(t, `{"Message":"Invalid credentials"}`, wrongRec.Body.String())
}

func TestLoginSuccess(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectQuery("SELECT .* FROM users WHERE matricule=").
		WithArgs("E12345").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "E12345", "Ada", "Lovelace", testHash, nil, nil))
	mock.ExpectQuery("SELECT r.name FROM user_roles").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("trainer"))
	// Token persist and success audit row share one transaction.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token=?, refresh_token_expires_at=? WHERE id=?")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO login_history").
		WithArgs(uint64(1), sqlmock.AnyArg(), sqlmock.AnyArg(), "go-test", true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rec := doLogin(t, h, `{"matricule":"E12345","password":"Secret123!"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())

	var resp struct {
		ID           uint64   `json:"id"`
		FirstName    string   `json:"first_name"`
		Matricule    string   `json:"matricule"`
		AccessToken  string   `json:"access_token"`
		RefreshToken string   `json:"refresh_token"`
		Roles        []string `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(1), resp.ID)
	assert.Equal(t, "Ada", resp.FirstName)
	assert.Equal(t, "E12345", resp.Matricule)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Len(t, resp.RefreshToken, 96)
	assert.Equal(t, []string{"trainer"}, resp.Roles)

	// Dual delivery: the same refresh token rides an HTTP-only,
	// secure, strict-same-site cookie with a 7-day expiry.
	ck := refreshCookie(t, rec)
	require.NotNil(t, ck)
	assert.Equal(t, resp.RefreshToken, ck.Value)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	assert.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), ck.Expires, time.Minute)
}

func doRefresh(t *testing.T, h *AuthHandler, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("{}")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h.Refresh(e.NewContext(req, rec)))
	return rec
}

func TestRefreshMissingToken(t *testing.T) {
	h, _ := newAuthHandler(t)
	rec := doRefresh(t, h, "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"Message":"Refresh token is required"}`, rec.Body.String())
}

func TestRefreshCookieTakesPrecedenceOverBody(t *testing.T) {
	h, mock := newAuthHandler(t)
	exp := time.Now().UTC().Add(time.Hour)
	cookieToken := "cookie-token"

	mock.ExpectQuery("SELECT .* FROM users WHERE refresh_token=").
		WithArgs(cookieToken).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "E12345", "Ada", "Lovelace", testHash, cookieToken, exp))
	mock.ExpectQuery("SELECT r.name FROM user_roles").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectExec("UPDATE users SET refresh_token=.* WHERE id=.* AND refresh_token=").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), uint64(1), cookieToken).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doRefresh(t, h, `{"refresh_token":"body-token"}`,
		&http.Cookie{Name: "X-Refresh-Token", Value: cookieToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())

	// Rotation: a fresh cookie replaces the consumed token.
	ck := refreshCookie(t, rec)
	require.NotNil(t, ck)
	assert.NotEqual(t, cookieToken, ck.Value)
}

func TestRefreshExpiredToken(t *testing.T) {
	for name, exp := range map[string]time.Time{
		"past":     time.Now().UTC().Add(-time.Hour),
		"boundary": time.Now().UTC(), // expiry equal to now is already invalid
	} {
		t.Run(name, func(t *testing.T) {
			h, mock := newAuthHandler(t)
			mock.ExpectQuery("SELECT .* FROM users WHERE refresh_token=").
				WithArgs("stale-token").
				WillReturnRows(sqlmock.NewRows(userCols).
					AddRow(1, "E12345", "Ada", "Lovelace", testHash, "stale-token", exp))

			rec := doRefresh(t, h, `{"refresh_token":"stale-token"}`, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"Message":"Invalid or expired refresh token"}`, rec.Body.String())
		})
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	h, mock := newAuthHandler(t)
	mock.ExpectQuery("SELECT .* FROM users WHERE refresh_token=").
		WithArgs("never-issued").
		WillReturnRows(sqlmock.NewRows(userCols))

	rec := doRefresh(t, h, `{"refresh_token":"never-issued"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshIsSingleUse(t *testing.T) {
	h, mock := newAuthHandler(t)
	exp := time.Now().UTC().Add(time.Hour)

	mock.ExpectQuery("SELECT .* FROM users WHERE refresh_token=").
		WithArgs("consumed-token").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "E12345", "Ada", "Lovelace", testHash, "consumed-token", exp))
	mock.ExpectQuery("SELECT r.name FROM user_roles").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))
	// A concurrent refresh already rotated the row; the guarded
	// update matches nothing.
	mock.ExpectExec("UPDATE users SET refresh_token=.* WHERE id=.* AND refresh_token=").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), uint64(1), "consumed-token").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := doRefresh(t, h, `{"refresh_token":"consumed-token"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"Message":"Invalid or expired refresh token"}`, rec.Body.String())
}

func TestLogout(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token=NULL, refresh_token_expires_at=NULL WHERE id=?")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(7))

	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Message":"Logged out successfully"}`, rec.Body.String())

	ck := refreshCookie(t, rec)
	require.NotNil(t, ck)
	assert.Empty(t, ck.Value)
	assert.Negative(t, ck.MaxAge)
}

func TestLogoutWithoutIdentity(t *testing.T) {
	h, _ := newAuthHandler(t)
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), rec)

	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectQuery("SELECT .* FROM users WHERE id=").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "E12345", "Ada", "Lovelace", testHash, nil, nil))
	mock.ExpectQuery("SELECT r.name FROM user_roles").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("admin"))

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), rec)
	c.Set("user_id", uint64(1))

	require.NoError(t, h.Me(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"matricule":"E12345"`)
	assert.Contains(t, rec.Body.String(), `"roles":["admin"]`)
	assert.NotContains(t, rec.Body.String(), "access_token")
}

func TestMeUserGone(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectQuery("SELECT .* FROM users WHERE id=").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(userCols))

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), rec)
	c.Set("user_id", uint64(1))

	require.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"Message":"User not found"}`, rec.Body.String())
}
