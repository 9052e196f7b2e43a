package auth

import (
	"context"
	"net/http"

	"github.com/aliuyar1234/formforge/internal/apperrors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	userIDContextKey contextKey = "user_id"
	methodContextKey contextKey = "auth_method"
)

// Method is how a request was authenticated.
type Method string

const (
	MethodNone    Method = ""
	MethodSession Method = "session"
	MethodToken   Method = "token"
)

// WithUser stores the authenticated user and how they were authenticated.
func WithUser(ctx context.Context, userID uuid.UUID, method Method) context.Context {
	ctx = context.WithValue(ctx, userIDContextKey, userID)
	return context.WithValue(ctx, methodContextKey, method)
}

// GetUserID returns the authenticated user, or uuid.Nil.
func GetUserID(ctx context.Context) uuid.UUID {
	userID, ok := ctx.Value(userIDContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}

// GetMethod returns how the request was authenticated.
func GetMethod(ctx context.Context) Method {
	method, _ := ctx.Value(methodContextKey).(Method)
	return method
}

// AuthMiddleware reads the session cookie and, when valid, puts the user into
// the request context. Invalid cookies are cleared and the request continues
// unauthenticated. Requests already authenticated upstream are left alone.
func AuthMiddleware(secret string, isProduction bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUserID(r.Context()) != uuid.Nil {
				next.ServeHTTP(w, r)
				return
			}

			token := GetSessionCookie(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := ValidateToken(token, secret)
			if err != nil {
				log.Debug().Err(err).Msg("Invalid session token")
				ClearSessionCookie(w, isProduction)
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithUser(r.Context(), claims.UserID, MethodSession)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects unauthenticated requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserID(r.Context()) == uuid.Nil {
			apperrors.WriteUnauthorized(w, r, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
