package workspaces

import (
	"net/http"
	"strings"

	"github.com/aliuyar1234/formforge/internal/apperrors"
	"github.com/aliuyar1234/formforge/internal/audit"
	"github.com/aliuyar1234/formforge/internal/auth"
	"github.com/aliuyar1234/formforge/internal/orgs"
	"github.com/aliuyar1234/formforge/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const maxWorkspaceBodyBytes = 16 * 1024

type CreateRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type UpdateRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
}

const nameRequiredMessage = "name is required"

var workspaceErrors = apperrors.Table{
	{Err: ErrSlugConflict, Status: http.StatusBadRequest, Message: "Workspace with this name already exists"},
	{Err: ErrWorkspaceNotFound, Status: http.StatusNotFound, Message: "Workspace not found"},
}

// LookupErrors maps CheckAccess failures to responses.
func LookupErrors(required orgs.OrgRole) apperrors.Table {
	return append(apperrors.Table{
		{Err: ErrWorkspaceNotFound, Status: http.StatusNotFound, Message: "Workspace not found"},
	}, orgs.AccessErrors(required)...)
}

// WriteLookupError writes the response for a failed CheckAccess call.
func WriteLookupError(w http.ResponseWriter, r *http.Request, err error, required orgs.OrgRole) {
	LookupErrors(required).Write(w, r, err, "Failed to check permissions")
}

func parseWorkspaceID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	workspaceID, err := uuid.Parse(chi.URLParam(r, "workspace_id"))
	if err != nil {
		apperrors.WriteBadRequest(w, r, "Invalid workspace ID")
		return uuid.Nil, false
	}
	return workspaceID, true
}

// HandleCreate handles POST /api/v1/orgs/{org_id}/workspaces
func HandleCreate(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := uuid.Parse(chi.URLParam(r, "org_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		var req CreateRequest
		if err := validation.DecodeJSON(w, r, maxWorkspaceBodyBytes, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			apperrors.WriteBadRequest(w, r, nameRequiredMessage)
			return
		}

		if _, err := orgs.NewService(pool).CheckOrgRole(ctx, userID, orgID, orgs.RoleEditor); err != nil {
			orgs.WriteAccessError(w, r, err, orgs.RoleEditor)
			return
		}

		ws, err := NewService(pool).Create(ctx, orgID, name)
		if err != nil {
			workspaceErrors.Write(w, r, err, "Failed to create workspace")
			return
		}

		if err := auditor.LogWorkspace(ctx, audit.EventWorkspaceCreated, orgID, userID, ws.ID, ws.Name); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"workspace": ws,
		})
	}
}

// HandleList handles GET /api/v1/orgs/{org_id}/workspaces
func HandleList(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := uuid.Parse(chi.URLParam(r, "org_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		if _, err := orgs.NewService(pool).CheckOrgRole(ctx, userID, orgID, orgs.RoleViewer); err != nil {
			orgs.WriteAccessError(w, r, err, orgs.RoleViewer)
			return
		}

		list, err := NewService(pool).ListWithDefault(ctx, orgID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list workspaces")
			apperrors.WriteInternalError(w, r, "Failed to list workspaces")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"workspaces": list,
		})
	}
}

// HandleGet handles GET /api/v1/workspaces/{workspace_id}
func HandleGet(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		workspaceID, ok := parseWorkspaceID(w, r)
		if !ok {
			return
		}

		ws, _, err := NewService(pool).CheckAccess(ctx, userID, workspaceID, orgs.RoleViewer)
		if err != nil {
			WriteLookupError(w, r, err, orgs.RoleViewer)
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"workspace": ws,
		})
	}
}

// HandleUpdate handles PUT /api/v1/workspaces/{workspace_id}
func HandleUpdate(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		workspaceID, ok := parseWorkspaceID(w, r)
		if !ok {
			return
		}

		var req UpdateRequest
		if err := validation.DecodeJSON(w, r, maxWorkspaceBodyBytes, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		name := ""
		if req.Name != nil {
			if name = strings.TrimSpace(*req.Name); name == "" {
				apperrors.WriteBadRequest(w, r, nameRequiredMessage)
				return
			}
		}

		service := NewService(pool)
		ws, _, err := service.CheckAccess(ctx, userID, workspaceID, orgs.RoleEditor)
		if err != nil {
			WriteLookupError(w, r, err, orgs.RoleEditor)
			return
		}

		updated, err := service.Rename(ctx, ws, name)
		if err != nil {
			workspaceErrors.Write(w, r, err, "Failed to update workspace")
			return
		}

		if updated != ws {
			if err := auditor.LogWorkspace(ctx, audit.EventWorkspaceUpdated, ws.OrgID, userID, ws.ID, updated.Name); err != nil {
				log.Error().Err(err).Msg("Failed to log audit event")
			}
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"workspace": updated,
		})
	}
}

// HandleDelete handles DELETE /api/v1/workspaces/{workspace_id}
func HandleDelete(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		workspaceID, ok := parseWorkspaceID(w, r)
		if !ok {
			return
		}

		service := NewService(pool)
		ws, _, err := service.CheckAccess(ctx, userID, workspaceID, orgs.RoleAdmin)
		if err != nil {
			WriteLookupError(w, r, err, orgs.RoleAdmin)
			return
		}

		if err := service.Delete(ctx, ws.ID); err != nil {
			workspaceErrors.Write(w, r, err, "Failed to delete workspace")
			return
		}

		if err := auditor.LogWorkspace(ctx, audit.EventWorkspaceDeleted, ws.OrgID, userID, ws.ID, ws.Name); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"deleted": true,
		})
	}
}
