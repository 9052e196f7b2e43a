package forms

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aliuyar1234/formforge/internal/apperrors"
	"github.com/aliuyar1234/formforge/internal/auth"
	"github.com/aliuyar1234/formforge/internal/cache"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// NotPublishedMessage is returned for public lookups that find nothing visible.
const NotPublishedMessage = "Form not found or not published"

// writePublic serves a form through the public endpoints and caches it
// when it is published.
func writePublic(w http.ResponseWriter, r *http.Request, service *Service, formCache *cache.FormCache, form *Form, lookupErr error) {
	ctx := r.Context()

	if lookupErr != nil {
		if errors.Is(lookupErr, ErrFormNotFound) {
			apperrors.WriteNotFound(w, r, NotPublishedMessage)
			return
		}
		log.Error().Err(lookupErr).Msg("Failed to load public form")
		apperrors.WriteInternalError(w, r, "Failed to load form")
		return
	}

	visible, err := service.VisibleTo(ctx, form, auth.GetUserID(ctx))
	if err != nil {
		log.Error().Err(err).Msg("Failed to check form visibility")
		apperrors.WriteInternalError(w, r, "Failed to load form")
		return
	}
	if !visible {
		apperrors.WriteNotFound(w, r, NotPublishedMessage)
		return
	}

	payload, err := json.Marshal(form.ToPublic())
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode public form")
		apperrors.WriteInternalError(w, r, "Failed to load form")
		return
	}
	if form.IsPublished() {
		formCache.Set(ctx, form.ID.String(), form.Slug, payload)
	}

	apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
		"form": json.RawMessage(payload),
	})
}

// HandleGetPublic handles GET /api/v1/public/forms/{form_id}
func HandleGetPublic(pool *pgxpool.Pool, formCache *cache.FormCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		formID, err := uuid.Parse(chi.URLParam(r, "form_id"))
		if err != nil {
			apperrors.WriteNotFound(w, r, NotPublishedMessage)
			return
		}

		if payload, ok := formCache.GetByID(ctx, formID.String()); ok {
			apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
				"form": json.RawMessage(payload),
			})
			return
		}

		service := NewService(pool)
		form, err := service.GetByID(ctx, formID)
		writePublic(w, r, service, formCache, form, err)
	}
}

// HandleGetPublicBySlug handles GET /api/v1/public/forms/by-slug/{slug}
func HandleGetPublicBySlug(pool *pgxpool.Pool, formCache *cache.FormCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		slug := chi.URLParam(r, "slug")
		if slug == "" {
			apperrors.WriteNotFound(w, r, NotPublishedMessage)
			return
		}

		if payload, ok := formCache.GetBySlug(ctx, slug); ok {
			apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
				"form": json.RawMessage(payload),
			})
			return
		}

		service := NewService(pool)
		form, err := service.GetBySlug(ctx, slug)
		writePublic(w, r, service, formCache, form, err)
	}
}
