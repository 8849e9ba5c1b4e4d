package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lostfound/internal/pkg/auth/jwt"
	"lostfound/internal/pkg/errs"
)

func cookiesByName(w *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, c := range w.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "ana")

	cases := []struct {
		name     string
		username string
		password string
		code     int
	}{
		{"missing password", "bob", "", errs.ErrMissingFields},
		{"bad username", "b b", "secret1", errs.ErrInvalidUsername},
		{"short password", "bob", "12345", errs.ErrInvalidPassword},
		{"taken", "ana", "secret1", errs.ErrUserAlreadyExists},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, env := s.do(t, http.MethodPost, "/api/register", map[string]string{"username": tc.username, "password": tc.password}, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.code, env.Code)
		})
	}
}

func TestRegisterSetsCookies(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodPost, "/api/register", map[string]string{"username": "ana", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	sess := decode[session](t, env)
	assert.Equal(t, "ana", sess.User.Username)
	assert.NotEmpty(t, sess.User.ID)

	cookies := cookiesByName(w)
	require.Contains(t, cookies, jwt.AccessCookieName)
	require.Contains(t, cookies, jwt.RefreshCookieName)
	assert.Equal(t, sess.Token, cookies[jwt.AccessCookieName].Value)
	assert.True(t, cookies[jwt.RefreshCookieName].HttpOnly)
}

func TestLoginAndVerify(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "ana")

	w, env := s.do(t, http.MethodPost, "/api/login", map[string]string{"username": "ana", "password": "wrong-pass"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errs.ErrInvalidCredentials, env.Code)

	w, env = s.do(t, http.MethodPost, "/api/login", map[string]string{"username": "nobody", "password": "secret1"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errs.ErrInvalidCredentials, env.Code)

	w, env = s.do(t, http.MethodPost, "/api/login", map[string]string{"username": "ana", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	sess := decode[session](t, env)

	_, env = s.do(t, http.MethodGet, "/api/verify_token", nil, sess.Token)
	assert.Equal(t, map[string]any{"valid": true, "user": "ana"}, decode[map[string]any](t, env))

	// the access cookie authenticates as well as the header
	r := httptest.NewRequest(http.MethodGet, "/api/verify_token", nil)
	r.AddCookie(&http.Cookie{Name: jwt.AccessCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)

	w, env = s.do(t, http.MethodGet, "/api/verify_token", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errs.ErrUnauthorized, env.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/register", map[string]string{"username": "ana", "password": "secret1"}, "")
	refresh := cookiesByName(w)[jwt.RefreshCookieName]
	require.NotNil(t, refresh)

	r := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	r.AddCookie(&http.Cookie{Name: jwt.RefreshCookieName, Value: refresh.Value})
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, r)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, cookiesByName(rec), jwt.AccessCookieName)

	// the body is accepted when there is no cookie
	w, env := s.do(t, http.MethodPost, "/api/refresh", map[string]string{"refreshToken": refresh.Value}, "")
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[map[string]any](t, env)["token"].(string)

	// an access token is no refresh token
	w, env = s.do(t, http.MethodPost, "/api/refresh", map[string]string{"refreshToken": token}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errs.ErrInvalidRefreshToken, env.Code)

	w, env = s.do(t, http.MethodPost, "/api/refresh", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errs.ErrInvalidRefreshToken, env.Code)

	w, _ = s.do(t, http.MethodPost, "/api/logout", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	for _, c := range cookiesByName(w) {
		assert.Empty(t, c.Value)
		assert.Equal(t, -1, c.MaxAge)
	}
}

func TestProfileAndPassword(t *testing.T) {
	s := newTestServer(t)
	sess := s.register(t, "ana")

	w, env := s.do(t, http.MethodGet, "/api/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errs.ErrUnauthorized, env.Code)

	_, env = s.do(t, http.MethodGet, "/api/profile", nil, sess.Token)
	profile := decode[map[string]any](t, env)
	assert.Equal(t, sess.User.ID, profile["id"])
	assert.Equal(t, "ana", profile["username"])
	assert.NotEmpty(t, profile["createdAt"])
	assert.NotContains(t, profile, "passwordHash")

	w, env = s.do(t, http.MethodPut, "/api/profile/password", map[string]string{"newPassword": "123"}, sess.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errs.ErrInvalidPassword, env.Code)

	w, _ = s.do(t, http.MethodPut, "/api/profile/password", map[string]string{"newPassword": "brand-new"}, sess.Token)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/login", map[string]string{"username": "ana", "password": "secret1"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = s.do(t, http.MethodPost, "/api/login", map[string]string{"username": "ana", "password": "brand-new"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
