package apikey

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aliuyar1234/formforge/internal/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestExtractAPIKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := ExtractAPIKey(req)
	require.ErrorIs(t, err, ErrMissingAPIKey)

	req.Header.Set("Authorization", "Basic abc")
	_, err = ExtractAPIKey(req)
	require.ErrorIs(t, err, ErrMalformedHeader)

	req.Header.Set("Authorization", "Bearer ")
	_, err = ExtractAPIKey(req)
	require.Error(t, err)

	req.Header.Set("Authorization", "bearer ffk_abc")
	token, err := ExtractAPIKey(req)
	require.NoError(t, err)
	require.Equal(t, "ffk_abc", token)
}

func TestValidateAPIKey_RejectsMalformedWithoutLookup(t *testing.T) {
	_, err := ValidateAPIKey(context.Background(), nil, "ffk_short")
	require.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestBearerMiddleware_PassesThroughWithoutHeader(t *testing.T) {
	called := false
	handler := BearerMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		require.Equal(t, uuid.Nil, auth.GetUserID(r.Context()))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, called)
}

func TestBearerMiddleware_RejectsMalformedToken(t *testing.T) {
	handler := BearerMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimitByUser(t *testing.T) {
	handler := RateLimitByUser(1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	userID := uuid.New()
	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/generate", nil)
		return req.WithContext(auth.WithUser(req.Context(), userID, auth.MethodSession))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq())
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq())
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "60", rec.Header().Get("Retry-After"))
}
