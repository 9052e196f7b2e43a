package responses

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aliuyar1234/formforge/internal/apperrors"
	"github.com/aliuyar1234/formforge/internal/auth"
	"github.com/aliuyar1234/formforge/internal/forms"
	"github.com/aliuyar1234/formforge/internal/orgs"
	"github.com/aliuyar1234/formforge/internal/realtime"
	"github.com/aliuyar1234/formforge/internal/validation"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type SubmitRequest struct {
	ResponseJSON map[string]any `json:"response_json" validate:"required"`
	Metadata     map[string]any `json:"metadata"`
}

type SubmitResponse struct {
	ID        string `json:"id"`
	FormID    string `json:"form_id"`
	CreatedAt string `json:"created_at"`
}

// HandleSubmit handles POST /api/v1/public/forms/{form_id}/responses
func HandleSubmit(pool *pgxpool.Pool, hub *realtime.Hub, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		formID, ok := forms.ParseFormID(w, r)
		if !ok {
			return
		}

		var req SubmitRequest
		if err := validation.DecodeJSON(w, r, maxBytes, &req); err != nil {
			if errors.Is(err, validation.ErrBodyTooLarge) {
				apperrors.WritePayloadTooLarge(w, r, "Submission exceeds the maximum size")
				return
			}
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		form, err := forms.NewService(pool).GetByID(ctx, formID)
		if err != nil {
			if errors.Is(err, forms.ErrFormNotFound) {
				apperrors.WriteNotFound(w, r, "Form not found")
				return
			}
			log.Error().Err(err).Msg("Failed to load form for submission")
			apperrors.WriteInternalError(w, r, "Failed to submit response")
			return
		}
		if !form.IsPublished() {
			apperrors.WriteBadRequest(w, r, "Form is not published")
			return
		}

		if err := forms.ValidateAnswers(form.Schema, req.ResponseJSON); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		resp, stats, err := NewService(pool).Submit(ctx, form.ID, req.ResponseJSON, req.Metadata)
		if err != nil {
			log.Error().Err(err).Str("form_id", form.ID.String()).Msg("Failed to store response")
			apperrors.WriteInternalError(w, r, "Failed to submit response")
			return
		}

		log.Info().
			Str("form_id", form.ID.String()).
			Str("response_id", resp.ID.String()).
			Int("submissions", stats.Submissions).
			Msg("Form response received")

		hub.Publish(form.ID, realtime.EventResponseCreated, resp)

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"response": SubmitResponse{
				ID:        resp.ID.String(),
				FormID:    resp.FormID.String(),
				CreatedAt: resp.CreatedAt.UTC().Format(time.RFC3339),
			},
		})
	}
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return v, nil
}

// HandleList handles GET /api/v1/forms/{form_id}/responses
func HandleList(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		formID, ok := forms.ParseFormID(w, r)
		if !ok {
			return
		}

		limit, err := queryInt(r, "limit", DefaultListLimit)
		if err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}
		offset, err := queryInt(r, "offset", 0)
		if err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		if _, err := forms.NewService(pool).CheckAccess(ctx, userID, formID, orgs.RoleViewer); err != nil {
			forms.WriteLookupError(w, r, err, orgs.RoleViewer)
			return
		}

		list, err := NewService(pool).List(ctx, formID, limit, offset)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list responses")
			apperrors.WriteInternalError(w, r, "Failed to list responses")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"responses": list,
			"limit":     ClampLimit(limit),
			"offset":    offset,
		})
	}
}

// HandleTrackView handles POST /api/v1/public/forms/{form_id}/views
func HandleTrackView(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, ok := forms.ParseFormID(w, r)
		if !ok {
			return
		}

		if _, err := NewService(pool).TrackView(r.Context(), formID); err != nil {
			log.Error().Err(err).Str("form_id", formID.String()).Msg("Failed to track view")
			apperrors.WriteInternalError(w, r, "Failed to track view")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"ok": true,
		})
	}
}

// HandleAnalytics handles GET /api/v1/forms/{form_id}/analytics
func HandleAnalytics(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		formID, ok := forms.ParseFormID(w, r)
		if !ok {
			return
		}

		if _, err := forms.NewService(pool).CheckAccess(ctx, userID, formID, orgs.RoleViewer); err != nil {
			forms.WriteLookupError(w, r, err, orgs.RoleViewer)
			return
		}

		stats, err := NewService(pool).GetAnalytics(ctx, formID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load analytics")
			apperrors.WriteInternalError(w, r, "Failed to load analytics")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"analytics": stats,
		})
	}
}
