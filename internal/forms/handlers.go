package forms

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aliuyar1234/formforge/internal/apperrors"
	"github.com/aliuyar1234/formforge/internal/audit"
	"github.com/aliuyar1234/formforge/internal/auth"
	"github.com/aliuyar1234/formforge/internal/cache"
	"github.com/aliuyar1234/formforge/internal/orgs"
	"github.com/aliuyar1234/formforge/internal/validation"
	"github.com/aliuyar1234/formforge/internal/workspaces"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const maxFormBodyBytes = 512 * 1024

type CreateRequest struct {
	Name       string          `json:"name" validate:"required,min=1,max=100"`
	SchemaJSON json.RawMessage `json:"schema_json"`
	Template   string          `json:"template" validate:"omitempty,max=64"`
}

type UpdateRequest struct {
	Name       *string         `json:"name" validate:"omitempty,min=1,max=100"`
	SchemaJSON json.RawMessage `json:"schema_json"`
}

type StatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=DRAFT PUBLISHED"`
}

type TemplateResponse struct {
	Name   string `json:"name"`
	Schema Schema `json:"schema_json"`
}

// hasJSON reports whether raw carries a value other than null.
func hasJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// ParseFormID reads the {form_id} path parameter.
func ParseFormID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	formID, err := uuid.Parse(chi.URLParam(r, "form_id"))
	if err != nil {
		apperrors.WriteBadRequest(w, r, "Invalid form ID")
		return uuid.Nil, false
	}
	return formID, true
}

// WriteLookupError writes the response for a failed CheckAccess call.
func WriteLookupError(w http.ResponseWriter, r *http.Request, err error, required orgs.OrgRole) {
	LookupErrors(required).Write(w, r, err, "Failed to check permissions")
}

// LookupErrors maps CheckAccess failures to responses.
func LookupErrors(required orgs.OrgRole) apperrors.Table {
	return append(apperrors.Table{
		{Err: ErrFormNotFound, Status: http.StatusNotFound, Message: "Form not found"},
	}, orgs.AccessErrors(required)...)
}

const slugConflictMessage = "A form with this name already exists, please retry"

var slugErrors = apperrors.Table{
	{Err: ErrSlugConflict, Status: http.StatusConflict, Message: slugConflictMessage},
	{Err: validation.ErrSlugExhausted, Status: http.StatusConflict, Message: slugConflictMessage},
}

func writeSlugError(w http.ResponseWriter, r *http.Request, err error, action string) {
	slugErrors.Write(w, r, err, "Failed to "+action)
}

// HandleCreate handles POST /api/v1/workspaces/{workspace_id}/forms
func HandleCreate(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		workspaceID, err := uuid.Parse(chi.URLParam(r, "workspace_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid workspace ID")
			return
		}

		var req CreateRequest
		if err := validation.DecodeJSON(w, r, maxFormBodyBytes, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		ws, _, err := workspaces.NewService(pool).CheckAccess(ctx, userID, workspaceID, orgs.RoleEditor)
		if err != nil {
			workspaces.WriteLookupError(w, r, err, orgs.RoleEditor)
			return
		}

		var schema Schema
		switch {
		case hasJSON(req.SchemaJSON):
			parsed, err := ParseSchema(req.SchemaJSON)
			if err != nil {
				apperrors.WriteBadRequest(w, r, InvalidSchemaMessage)
				return
			}
			schema = *parsed
		case req.Template != "":
			tmpl, ok := Template(req.Template)
			if !ok {
				apperrors.WriteBadRequest(w, r, "Unknown template")
				return
			}
			schema = tmpl
		default:
			schema = DefaultSchema()
		}

		form, err := NewService(pool).Create(ctx, ws.ID, strings.TrimSpace(req.Name), schema)
		if err != nil {
			writeSlugError(w, r, err, "create form")
			return
		}

		if err := auditor.LogForm(ctx, audit.EventFormCreated, form.OrgID, userID, form.ID, form.Slug); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"form": form,
		})
	}
}

// HandleListByWorkspace handles GET /api/v1/workspaces/{workspace_id}/forms
func HandleListByWorkspace(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		workspaceID, err := uuid.Parse(chi.URLParam(r, "workspace_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid workspace ID")
			return
		}

		if _, _, err := workspaces.NewService(pool).CheckAccess(ctx, userID, workspaceID, orgs.RoleViewer); err != nil {
			workspaces.WriteLookupError(w, r, err, orgs.RoleViewer)
			return
		}

		list, err := NewService(pool).ListByWorkspace(ctx, workspaceID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list forms")
			apperrors.WriteInternalError(w, r, "Failed to list forms")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"forms": list,
		})
	}
}

// HandleListAll handles GET /api/v1/forms?search=
func HandleListAll(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		search := strings.TrimSpace(r.URL.Query().Get("search"))
		if len(search) > 200 {
			apperrors.WriteBadRequest(w, r, "search must be at most 200 characters")
			return
		}

		list, err := NewService(pool).ListForUser(ctx, userID, search)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list forms")
			apperrors.WriteInternalError(w, r, "Failed to list forms")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"forms": list,
		})
	}
}

// HandleGet handles GET /api/v1/forms/{form_id}
func HandleGet(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		formID, ok := ParseFormID(w, r)
		if !ok {
			return
		}

		form, err := NewService(pool).CheckAccess(ctx, userID, formID, orgs.RoleViewer)
		if err != nil {
			WriteLookupError(w, r, err, orgs.RoleViewer)
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"form": form,
		})
	}
}

// HandleUpdate handles PUT /api/v1/forms/{form_id}
func HandleUpdate(pool *pgxpool.Pool, auditor *audit.Writer, formCache *cache.FormCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		formID, ok := ParseFormID(w, r)
		if !ok {
			return
		}

		var req UpdateRequest
		if err := validation.DecodeJSON(w, r, maxFormBodyBytes, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		service := NewService(pool)
		form, err := service.CheckAccess(ctx, userID, formID, orgs.RoleEditor)
		if err != nil {
			WriteLookupError(w, r, err, orgs.RoleEditor)
			return
		}

		var schema *Schema
		if hasJSON(req.SchemaJSON) {
			schema, err = ParseSchema(req.SchemaJSON)
			if err != nil {
				apperrors.WriteBadRequest(w, r, InvalidSchemaMessage)
				return
			}
		}

		var name *string
		if req.Name != nil {
			trimmed := strings.TrimSpace(*req.Name)
			name = &trimmed
		}

		updated, err := service.Update(ctx, form, name, schema)
		if err != nil {
			if errors.Is(err, ErrFormNotFound) {
				apperrors.WriteNotFound(w, r, "Form not found")
				return
			}
			writeSlugError(w, r, err, "update form")
			return
		}

		formCache.Invalidate(ctx, form.ID.String(), form.Slug, updated.Slug)

		if err := auditor.LogForm(ctx, audit.EventFormUpdated, updated.OrgID, userID, updated.ID, updated.Slug); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"form": updated,
		})
	}
}

// HandleDelete handles DELETE /api/v1/forms/{form_id}
func HandleDelete(pool *pgxpool.Pool, auditor *audit.Writer, formCache *cache.FormCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		formID, ok := ParseFormID(w, r)
		if !ok {
			return
		}

		service := NewService(pool)
		form, err := service.CheckAccess(ctx, userID, formID, orgs.RoleEditor)
		if err != nil {
			WriteLookupError(w, r, err, orgs.RoleEditor)
			return
		}

		if err := service.Delete(ctx, form.ID); err != nil {
			if errors.Is(err, ErrFormNotFound) {
				apperrors.WriteNotFound(w, r, "Form not found")
				return
			}
			log.Error().Err(err).Msg("Failed to delete form")
			apperrors.WriteInternalError(w, r, "Failed to delete form")
			return
		}

		formCache.Invalidate(ctx, form.ID.String(), form.Slug)

		if err := auditor.LogForm(ctx, audit.EventFormDeleted, form.OrgID, userID, form.ID, form.Slug); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"deleted": true,
		})
	}
}

// HandleSetStatus handles PUT /api/v1/forms/{form_id}/status
func HandleSetStatus(pool *pgxpool.Pool, auditor *audit.Writer, formCache *cache.FormCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		formID, ok := ParseFormID(w, r)
		if !ok {
			return
		}

		var req StatusRequest
		if err := validation.DecodeJSON(w, r, maxFormBodyBytes, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		service := NewService(pool)
		form, err := service.CheckAccess(ctx, userID, formID, orgs.RoleEditor)
		if err != nil {
			WriteLookupError(w, r, err, orgs.RoleEditor)
			return
		}

		updated, err := service.SetStatus(ctx, form.ID, req.Status)
		if err != nil {
			if errors.Is(err, ErrFormNotFound) {
				apperrors.WriteNotFound(w, r, "Form not found")
				return
			}
			log.Error().Err(err).Msg("Failed to update form status")
			apperrors.WriteInternalError(w, r, "Failed to update form status")
			return
		}

		formCache.Invalidate(ctx, form.ID.String(), form.Slug)

		action := audit.EventFormUnpublished
		if updated.IsPublished() {
			action = audit.EventFormPublished
		}
		if err := auditor.LogForm(ctx, action, updated.OrgID, userID, updated.ID, updated.Slug); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"form": updated,
		})
	}
}

// HandleListTemplates handles GET /api/v1/templates
func HandleListTemplates() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := TemplateNames()
		resp := make([]TemplateResponse, 0, len(names))
		for _, name := range names {
			schema, _ := Template(name)
			resp = append(resp, TemplateResponse{Name: name, Schema: schema})
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"templates": resp,
		})
	}
}
