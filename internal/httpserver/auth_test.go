package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func pairFrom(rec *httptest.ResponseRecorder) *tokens.Pair {
	access, refresh := cookie(rec, jwthelp.AccessCookie), cookie(rec, jwthelp.RefreshCookie)
	if access == nil || refresh == nil {
		return nil
	}
	return &tokens.Pair{AccessToken: access.Value, RefreshToken: refresh.Value}
}

func TestAuthFlow(t *testing.T) {
	s := newServer(t)
	creds := map[string]any{"username": "alice", "password": "secret"}

	rec := s.call(http.MethodPost, "/auth/register", creds, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.call(http.MethodPost, "/auth/register", creds, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.call(http.MethodPost, "/auth/register", map[string]any{"username": "bob"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.call(http.MethodPost, "/auth/login", map[string]any{"username": "alice", "password": "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.call(http.MethodPost, "/auth/login", creds, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"is_admin":false}`, rec.Body.String())
	pair := pairFrom(rec)
	require.NotNil(t, pair)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/me", nil), pair)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.call(http.MethodPatch, "/me", map[string]any{"phone": "+79000000000", "address": "Moscow"}, pair)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"address":"Moscow"`)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: jwthelp.RefreshCookie, Value: pair.RefreshToken})
	rec = s.do(req, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	next := pairFrom(rec)
	require.NotNil(t, next)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: jwthelp.RefreshCookie, Value: pair.RefreshToken})
	rec = s.do(req, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), next)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := cookie(rec, jwthelp.RefreshCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: jwthelp.RefreshCookie, Value: next.RefreshToken})
	rec = s.do(req, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe_RequiresLogin(t *testing.T) {
	s := newServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/me", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/me", nil), &tokens.Pair{AccessToken: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
