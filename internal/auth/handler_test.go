// AngelaMos | 2026
// handler_test.go

package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/ea-marketplace/internal/middleware"
)

func passthrough(next http.Handler) http.Handler { return next }

func newAuthRouter(t *testing.T) http.Handler {
	t.Helper()
	jwtm := newTestJWT(t)
	h := NewHandler(NewService(jwtm, newMemUsers(), nil))

	r := chi.NewRouter()
	h.RegisterRoutes(r, middleware.Authenticator(jwtm), passthrough)
	return r
}

func call(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRegisterLoginMeFlow(t *testing.T) {
	r := newAuthRouter(t)

	rec := call(r, http.MethodPost, "/auth/register", "",
		`{"email":"buyer@example.com","password":"secret123","role":"admin"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var reg AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))
	assert.Equal(t, "user", reg.User.Role)

	rec = call(r, http.MethodPost, "/auth/login", "",
		`{"email":"buyer@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var login AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	rec = call(r, http.MethodGet, "/auth/me", login.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var me MeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "buyer@example.com", me.User.Email)
}

func TestAuthHandlerErrors(t *testing.T) {
	r := newAuthRouter(t)
	call(r, http.MethodPost, "/auth/register", "",
		`{"email":"buyer@example.com","password":"secret123"}`)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"malformed body", http.MethodPost, "/auth/login", `{`, http.StatusBadRequest},
		{"invalid email", http.MethodPost, "/auth/register", `{"email":"nope","password":"secret123"}`, http.StatusBadRequest},
		{"short password", http.MethodPost, "/auth/register", `{"email":"x@example.com","password":"123"}`, http.StatusBadRequest},
		{"duplicate email", http.MethodPost, "/auth/register", `{"email":"buyer@example.com","password":"secret123"}`, http.StatusConflict},
		{"wrong password", http.MethodPost, "/auth/login", `{"email":"buyer@example.com","password":"wrong-pass"}`, http.StatusUnauthorized},
		{"unknown account", http.MethodPost, "/auth/login", `{"email":"ghost@example.com","password":"secret123"}`, http.StatusUnauthorized},
		{"me without token", http.MethodGet, "/auth/me", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(r, tt.method, tt.path, "", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}
