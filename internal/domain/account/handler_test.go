package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbot/clinic/internal/platform/auth"
)

func newContext(method, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withUser(c echo.Context, uid uuid.UUID) {
	req := c.Request()
	c.SetRequest(req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, uid.String())))
}

func assertStatus(t *testing.T, err error, code int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %v", err)
	assert.Equal(t, code, httpErr.Code)
}

func TestHandler_RegisterAndLogin(t *testing.T) {
	env := newTestService(t)
	h := NewHandler(env.svc)

	c, rec := newContext(http.MethodPost, `{"username":"dana","password":"correct-horse","email":"dana@example.com"}`)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	c, _ = newContext(http.MethodPost, `{"username":"dana","password":"correct-horse","email":"dana@example.com"}`)
	assertStatus(t, h.Register(c), http.StatusConflict)

	c, rec = newContext(http.MethodPost, `{"username":"dana","password":"correct-horse"}`)
	require.NoError(t, h.Login(c))
	var session Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.NotEmpty(t, session.Token)
	assert.False(t, session.ExpiresAt.IsZero())

	c, _ = newContext(http.MethodPost, `{"username":"dana","password":"nope-nope"}`)
	assertStatus(t, h.Login(c), http.StatusUnauthorized)
}

func TestHandler_ChangePassword(t *testing.T) {
	env := newTestService(t)
	h := NewHandler(env.svc)
	u := env.register(t, "erin")

	c, _ := newContext(http.MethodPost, `{"currentPassword":"wrong","newPassword":"another-pass"}`)
	withUser(c, u.ID)
	assertStatus(t, h.ChangePassword(c), http.StatusBadRequest)

	c, rec := newContext(http.MethodPost, `{"currentPassword":"correct-horse","newPassword":"another-pass"}`)
	withUser(c, u.ID)
	require.NoError(t, h.ChangePassword(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_UpdateProfile(t *testing.T) {
	env := newTestService(t)
	h := NewHandler(env.svc)
	u := env.register(t, "frank")

	c, rec := newContext(http.MethodPatch, `{"field":"phone","value":"5550100"}`)
	withUser(c, u.ID)
	require.NoError(t, h.UpdateProfile(c))
	assert.Contains(t, rec.Body.String(), "5550100")

	c, _ = newContext(http.MethodPatch, `{"field":"blood_type","value":"Z"}`)
	withUser(c, u.ID)
	assertStatus(t, h.UpdateProfile(c), http.StatusBadRequest)
}

func TestHandler_RequiresUser(t *testing.T) {
	h := NewHandler(newTestService(t).svc)
	c, _ := newContext(http.MethodGet, "")
	assertStatus(t, h.GetProfile(c), http.StatusUnauthorized)
}

func TestHandler_PasswordResetAlwaysAccepted(t *testing.T) {
	h := NewHandler(newTestService(t).svc)
	c, rec := newContext(http.MethodPost, `{"email":"nobody@example.com"}`)
	require.NoError(t, h.RequestPasswordReset(c))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}
