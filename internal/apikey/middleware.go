package apikey

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aliuyar1234/formforge/internal/apikeys"
	"github.com/aliuyar1234/formforge/internal/apperrors"
	"github.com/aliuyar1234/formforge/internal/auth"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// BearerMiddleware authenticates requests that carry an "ffk_" bearer token
// as the token's owner. Requests without an Authorization header pass through
// to cookie authentication; a bad or revoked token is rejected with 401.
func BearerMiddleware(pool *pgxpool.Pool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ExtractAPIKey(r)
			if errors.Is(err, ErrMissingAPIKey) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				apperrors.WriteUnauthorized(w, r, "Invalid Authorization header")
				return
			}

			key, err := ValidateAPIKey(r.Context(), pool, token)
			if err != nil {
				if errors.Is(err, ErrInvalidAPIKey) || errors.Is(err, ErrRevokedAPIKey) {
					apperrors.WriteError(w, r, http.StatusUnauthorized, "invalid_api_key", "Invalid API key")
					return
				}
				log.Error().Err(err).Msg("Failed to validate API key")
				apperrors.WriteInternalError(w, r, "Authentication failed")
				return
			}

			go touchLastUsed(pool, key.ID)

			ctx := auth.WithUser(r.Context(), key.UserID, auth.MethodToken)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func touchLastUsed(pool *pgxpool.Pool, tokenID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := apikeys.NewService(pool).UpdateLastUsed(ctx, tokenID); err != nil {
		log.Error().Err(err).Str("token_id", tokenID.String()).Msg("Failed to update last_used_at")
	}
}

// RateLimitByUser limits requests per authenticated user, falling back to
// the client IP.
func RateLimitByUser(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if userID := auth.GetUserID(r.Context()); userID != uuid.Nil {
				return "user:" + userID.String(), nil
			}
			return httprate.KeyByIP(r)
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			log.Warn().
				Str("user_id", auth.GetUserID(r.Context()).String()).
				Str("path", r.URL.Path).
				Msg("Rate limit exceeded")

			w.Header().Set("Retry-After", "60")
			apperrors.WriteTooManyRequests(w, r, "Rate limit exceeded. Please retry after 60 seconds.")
		}),
	)
}
