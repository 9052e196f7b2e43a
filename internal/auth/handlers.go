package auth

import (
	"errors"
	"net/http"

	"github.com/aliuyar1234/formforge/internal/apperrors"
	"github.com/aliuyar1234/formforge/internal/audit"
	"github.com/aliuyar1234/formforge/internal/validation"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const maxAuthBodyBytes = 16 * 1024

// CredentialsRequest is the signup and login payload.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// HandleSignup handles POST /api/v1/auth/signup
func HandleSignup(pool *pgxpool.Pool, auditor *audit.Writer, jwtSecret string, sessionDays int, isProduction bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req CredentialsRequest
		if err := validation.DecodeJSON(w, r, maxAuthBodyBytes, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		service := NewService(pool)
		user, err := service.CreateUser(ctx, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, ErrEmailTaken) {
				apperrors.WriteConflict(w, r, "Email address already registered")
				return
			}
			log.Error().Err(err).Msg("Failed to create user")
			apperrors.WriteInternalError(w, r, "Failed to create account")
			return
		}

		if err := auditor.LogUserSignup(ctx, user.ID, user.Email); err != nil {
			log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to log audit event")
		}

		token, err := CreateToken(user.ID, jwtSecret, sessionDays)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create token")
			apperrors.WriteInternalError(w, r, "Failed to create session")
			return
		}
		SetSessionCookie(w, token, sessionDays, isProduction)

		log.Info().
			Str("user_id", user.ID.String()).
			Str("email", user.Email).
			Msg("User signed up")

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"user": user.ToResponse(),
		})
	}
}

// HandleLogin handles POST /api/v1/auth/login
func HandleLogin(pool *pgxpool.Pool, auditor *audit.Writer, jwtSecret string, sessionDays int, isProduction bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req CredentialsRequest
		if err := validation.DecodeJSON(w, r, maxAuthBodyBytes, &req); err != nil {
			apperrors.WriteUnauthorized(w, r, "Invalid credentials")
			return
		}

		service := NewService(pool)
		user, err := service.Authenticate(ctx, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				log.Debug().Str("email", NormalizeEmail(req.Email)).Msg("Login failed")
				if err := auditor.LogLoginFailed(ctx, NormalizeEmail(req.Email), r.RemoteAddr); err != nil {
					log.Error().Err(err).Msg("Failed to log audit event")
				}
				apperrors.WriteUnauthorized(w, r, "Invalid credentials")
				return
			}
			log.Error().Err(err).Msg("Failed to authenticate user")
			apperrors.WriteInternalError(w, r, "Login failed")
			return
		}

		token, err := CreateToken(user.ID, jwtSecret, sessionDays)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create token")
			apperrors.WriteInternalError(w, r, "Failed to create session")
			return
		}
		SetSessionCookie(w, token, sessionDays, isProduction)

		log.Info().Str("user_id", user.ID.String()).Msg("User logged in")

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"user": user.ToResponse(),
		})
	}
}

// HandleLogout handles POST /api/v1/auth/logout
func HandleLogout(isProduction bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ClearSessionCookie(w, isProduction)

		if userID := GetUserID(r.Context()); userID != uuid.Nil {
			log.Info().Str("user_id", userID.String()).Msg("User logged out")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"logged_out": true,
		})
	}
}

// HandleCSRF handles GET /api/v1/auth/csrf
func HandleCSRF(isProduction bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := GenerateCSRFToken()
		if err != nil {
			log.Error().Err(err).Msg("Failed to generate CSRF token")
			apperrors.WriteInternalError(w, r, "Failed to generate CSRF token")
			return
		}
		SetCSRFCookie(w, token, isProduction)

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"csrf_token": token,
		})
	}
}

// HandleMe handles GET /api/v1/me
func HandleMe(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := GetUserID(ctx)

		service := NewService(pool)
		user, err := service.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				apperrors.WriteUnauthorized(w, r, "Authentication required")
				return
			}
			log.Error().Err(err).Msg("Failed to load current user")
			apperrors.WriteInternalError(w, r, "Failed to load user")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"user": user.ToResponse(),
		})
	}
}
