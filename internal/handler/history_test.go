package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/staff-auth/internal/repository"
)

func newHistoryHandler(t *testing.T) (*HistoryHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHistoryHandler(repository.NewHistoryRepo(db)), mock
}

var historyCols = []string{"id", "user_id", "login_time", "ip_address", "user_agent", "is_successful"}

func TestGetLoginHistoryCapsAt100(t *testing.T) {
	h, mock := newHistoryHandler(t)
	now := time.Now().UTC()
	joined := append(historyCols, "uid", "matricule", "first_name", "last_name")

	mock.ExpectQuery("SELECT h.id,h.user_id,h.login_time").
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows(joined).
			AddRow(2, 1, now, "10.0.0.1", "go-test", true, 1, "E12345", "Ada", "Lovelace").
			AddRow(1, 0, now.Add(-time.Minute), "10.0.0.2", "go-test", false, nil, nil, nil, nil))

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/loginhistory", nil), rec)

	require.NoError(t, h.GetLoginHistory(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"matricule":"E12345"`)
	// Entries with user_id 0 carry no user object at all.
	assert.Contains(t, rec.Body.String(), `"is_successful":false`)
	assert.NotContains(t, rec.Body.String(), `"user":null`)
}

func TestGetUserLoginHistoryCapsAt50(t *testing.T) {
	h, mock := newHistoryHandler(t)
	mock.ExpectQuery("SELECT id,user_id,login_time").
		WithArgs(uint64(7), 50).
		WillReturnRows(sqlmock.NewRows(historyCols))

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("7")

	require.NoError(t, h.GetUserLoginHistory(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMyLoginHistoryCapsAt20(t *testing.T) {
	h, mock := newHistoryHandler(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id,user_id,login_time").
		WithArgs(uint64(7), 20).
		WillReturnRows(sqlmock.NewRows(historyCols).
			AddRow(1, 7, now, "10.0.0.1", "go-test", true))

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/loginhistory/my-history", nil), rec)
	c.Set("user_id", uint64(7))

	require.NoError(t, h.GetMyLoginHistory(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_successful":true`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMyLoginHistoryWithoutIdentity(t *testing.T) {
	h, _ := newHistoryHandler(t)
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/loginhistory/my-history", nil), rec)

	require.NoError(t, h.GetMyLoginHistory(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
