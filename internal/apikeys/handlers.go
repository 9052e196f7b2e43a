package apikeys

import (
	"errors"
	"net/http"

	"github.com/aliuyar1234/formforge/internal/apperrors"
	"github.com/aliuyar1234/formforge/internal/audit"
	"github.com/aliuyar1234/formforge/internal/auth"
	"github.com/aliuyar1234/formforge/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// CreateRequest represents the request to create an API token
type CreateRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// HandleCreate handles POST /api/v1/tokens
func HandleCreate(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		var req CreateRequest
		if err := validation.DecodeJSON(w, r, 16*1024, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		service := NewService(pool)
		token, plaintext, err := service.Create(ctx, userID, req.Name)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create API token")
			apperrors.WriteInternalError(w, r, "Failed to create API token")
			return
		}

		if err := auditor.LogAPITokenCreated(ctx, userID, token.ID, token.Name); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"token": token.ToCreatedResponse(plaintext),
		})
	}
}

// HandleList handles GET /api/v1/tokens
func HandleList(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		service := NewService(pool)
		tokens, err := service.ListByUser(ctx, userID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list API tokens")
			apperrors.WriteInternalError(w, r, "Failed to list API tokens")
			return
		}

		items := make([]TokenListItemResponse, 0, len(tokens))
		for i := range tokens {
			items = append(items, tokens[i].ToListItemResponse())
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"tokens": items,
		})
	}
}

// HandleRevoke handles DELETE /api/v1/tokens/{token_id}
func HandleRevoke(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		tokenID, err := uuid.Parse(chi.URLParam(r, "token_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid token ID")
			return
		}

		service := NewService(pool)
		if err := service.Revoke(ctx, userID, tokenID); err != nil {
			if errors.Is(err, ErrTokenNotFound) {
				apperrors.WriteNotFound(w, r, "API token not found")
				return
			}
			log.Error().Err(err).Msg("Failed to revoke API token")
			apperrors.WriteInternalError(w, r, "Failed to revoke API token")
			return
		}

		if err := auditor.LogAPITokenRevoked(ctx, userID, tokenID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"revoked": true,
		})
	}
}
