package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aliuyar1234/formforge/internal/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestCSRFMiddleware_SessionRequiresToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orgs", nil)
	req = req.WithContext(auth.WithUser(req.Context(), uuid.New(), auth.MethodSession))
	rec := httptest.NewRecorder()

	CSRFMiddleware(okHandler()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFMiddleware_SessionWithMatchingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orgs", nil)
	req.AddCookie(&http.Cookie{Name: auth.CSRFCookieName, Value: "abc"})
	req.Header.Set(auth.CSRFHeaderName, "abc")
	req = req.WithContext(auth.WithUser(req.Context(), uuid.New(), auth.MethodSession))
	rec := httptest.NewRecorder()

	CSRFMiddleware(okHandler()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCSRFMiddleware_BearerAndSafeMethodsExempt(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/generate", nil)
	req = req.WithContext(auth.WithUser(req.Context(), uuid.New(), auth.MethodToken))
	rec := httptest.NewRecorder()
	CSRFMiddleware(okHandler()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/forms", nil)
	req = req.WithContext(auth.WithUser(req.Context(), uuid.New(), auth.MethodSession))
	rec = httptest.NewRecorder()
	CSRFMiddleware(okHandler()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPublicRateLimitMiddleware(t *testing.T) {
	h := PublicRateLimitMiddleware(2)(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/public/forms/x/views", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestPublicRateLimitMiddleware_Disabled(t *testing.T) {
	h := PublicRateLimitMiddleware(0)(okHandler())
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	handleHealthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}
