package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeta-app/gebeta/pkg/auth"
	"github.com/gebeta-app/gebeta/pkg/middleware"
	"github.com/gebeta-app/gebeta/pkg/rbac"
)

func whoami(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.UserIDFromCtx(r)
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		role, _ := middleware.RoleFromCtx(r)
		assert.Equal(t, uint(5), id)
		assert.Equal(t, "admin", role)
		w.WriteHeader(http.StatusOK)
	}
}

func TestAuthMiddleware(t *testing.T) {
	h := middleware.AuthMiddleware(whoami(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"error"`)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := auth.GenerateToken(5, "admin")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	rec := httptest.NewRecorder()
	middleware.OptionalAuth(whoami(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHasRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := middleware.AuthMiddleware(rbac.HasRole(rbac.RoleRestaurantOwner, rbac.RoleAdmin)(ok))

	for role, want := range map[string]int{
		"user":             http.StatusForbidden,
		"restaurant_owner": http.StatusOK,
		"admin":            http.StatusOK,
	} {
		tok, err := auth.GenerateToken(1, role)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}
}

func TestLimiterWindow(t *testing.T) {
	l := middleware.NewLimiter(2, time.Minute)

	a, _ := l.Allow("1.1.1.1")
	b, _ := l.Allow("1.1.1.1")
	c, retry := l.Allow("1.1.1.1")
	assert.True(t, a)
	assert.True(t, b)
	assert.False(t, c)
	assert.Greater(t, retry, time.Duration(0))

	other, _ := l.Allow("2.2.2.2")
	assert.True(t, other)
}

func TestRateLimitMiddleware(t *testing.T) {
	h := middleware.RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRecovery(t *testing.T) {
	h := middleware.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.9:1234"
	assert.Equal(t, "192.0.2.9", middleware.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", middleware.ClientIP(req))
}
