package storage

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aliuyar1234/formforge/internal/apperrors"
	"github.com/aliuyar1234/formforge/internal/forms"
	"github.com/aliuyar1234/formforge/internal/validation"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const maxUploadRequestBytes = 8 * 1024

type UploadRequest struct {
	FieldID     string `json:"field_id" validate:"required,max=100"`
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required,max=100"`
}

// HandleCreateUpload handles POST /api/v1/public/forms/{form_id}/uploads
func HandleCreateUpload(pool *pgxpool.Pool, store *S3) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if store == nil {
			apperrors.WriteServiceUnavailable(w, r, "File uploads are not configured")
			return
		}

		formID, ok := forms.ParseFormID(w, r)
		if !ok {
			return
		}

		var req UploadRequest
		if err := validation.DecodeJSON(w, r, maxUploadRequestBytes, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		form, err := forms.NewService(pool).GetByID(ctx, formID)
		if err != nil {
			if errors.Is(err, forms.ErrFormNotFound) {
				apperrors.WriteNotFound(w, r, "Form not found")
				return
			}
			log.Error().Err(err).Msg("Failed to load form for upload")
			apperrors.WriteInternalError(w, r, "Failed to create upload")
			return
		}
		if !form.IsPublished() {
			apperrors.WriteBadRequest(w, r, "Form is not published")
			return
		}

		field, ok := form.Schema.Field(req.FieldID)
		if !ok || field.Type != forms.FieldFile {
			apperrors.WriteBadRequest(w, r, "Field does not accept file uploads")
			return
		}

		upload, err := store.PresignUpload(ctx, ObjectKey(form.ID, field.ID, req.Filename), strings.TrimSpace(req.ContentType))
		if err != nil {
			log.Error().Err(err).Str("form_id", form.ID.String()).Msg("Failed to presign upload")
			apperrors.WriteInternalError(w, r, "Failed to create upload")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"upload": upload,
		})
	}
}
