package orgs

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aliuyar1234/formforge/internal/apperrors"
	"github.com/aliuyar1234/formforge/internal/audit"
	"github.com/aliuyar1234/formforge/internal/auth"
	"github.com/aliuyar1234/formforge/internal/usage"
	"github.com/aliuyar1234/formforge/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const maxOrgBodyBytes = 16 * 1024

// NameRequest is the body for creating or renaming an organization
type NameRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type OrgListItemResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
	Role OrgRole   `json:"role"`
}

func parseOrgID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orgID, err := uuid.Parse(chi.URLParam(r, "org_id"))
	if err != nil {
		apperrors.WriteBadRequest(w, r, "Invalid organization ID")
		return uuid.Nil, false
	}
	return orgID, true
}

// requireProPlan writes a 403 with message unless the caller is on an active
// PRO subscription.
func requireProPlan(w http.ResponseWriter, r *http.Request, pool *pgxpool.Pool, userID uuid.UUID, message string) bool {
	user, err := auth.NewService(pool).GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			apperrors.WriteNotFound(w, r, "User not found")
			return false
		}
		log.Error().Err(err).Msg("Failed to load user plan")
		apperrors.WriteInternalError(w, r, "Failed to check plan")
		return false
	}
	if user.Plan() != usage.PlanPro {
		apperrors.WriteForbidden(w, r, message)
		return false
	}
	return true
}

var orgErrors = apperrors.Table{
	{Err: ErrSlugConflict, Status: http.StatusBadRequest, Message: "Organization with this name already exists"},
	{Err: ErrOrgNotFound, Status: http.StatusNotFound, Message: "Organization not found"},
}

// requireName trims a submitted name; whitespace-only names pass the
// validator's min length but are rejected here.
func requireName(w http.ResponseWriter, r *http.Request, raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	if name == "" {
		apperrors.WriteBadRequest(w, r, "name is required")
		return "", false
	}
	return name, true
}

// HandleCreate handles POST /api/v1/orgs
func HandleCreate(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		var req NameRequest
		if err := validation.DecodeJSON(w, r, maxOrgBodyBytes, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}
		name, ok := requireName(w, r, req.Name)
		if !ok {
			return
		}

		service := NewService(pool)
		org, err := service.CreateWithOwner(ctx, name, userID)
		if err != nil {
			orgErrors.Write(w, r, err, "Failed to create organization")
			return
		}

		if err := auditor.LogOrgCreated(ctx, org.ID, userID, org.Slug); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"org": OrgListItemResponse{ID: org.ID, Name: org.Name, Slug: org.Slug, Role: RoleOwner},
		})
	}
}

// HandleList handles GET /api/v1/orgs
func HandleList(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		user, err := auth.NewService(pool).GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				apperrors.WriteUnauthorized(w, r, "Authentication required")
				return
			}
			log.Error().Err(err).Msg("Failed to load user")
			apperrors.WriteInternalError(w, r, "Failed to list organizations")
			return
		}

		service := NewService(pool)
		orgs, created, err := service.EnsureUserOrg(ctx, userID, user.Email)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list organizations")
			apperrors.WriteInternalError(w, r, "Failed to list organizations")
			return
		}
		if created {
			if err := auditor.LogOrgCreated(ctx, orgs[0].ID, userID, orgs[0].Slug); err != nil {
				log.Error().Err(err).Msg("Failed to log audit event")
			}
		}

		resp := make([]OrgListItemResponse, len(orgs))
		for i, org := range orgs {
			resp[i] = OrgListItemResponse{
				ID:   org.ID,
				Name: org.Name,
				Slug: org.Slug,
				Role: org.Role,
			}
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"orgs": resp,
		})
	}
}

// HandleUpdate handles PUT /api/v1/orgs/{org_id}
func HandleUpdate(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, ok := parseOrgID(w, r)
		if !ok {
			return
		}

		var req NameRequest
		if err := validation.DecodeJSON(w, r, maxOrgBodyBytes, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}
		name, ok := requireName(w, r, req.Name)
		if !ok {
			return
		}

		if !requireProPlan(w, r, pool, userID, "Organization name editing requires PRO plan") {
			return
		}

		service := NewService(pool)
		if _, err := service.CheckOrgRole(ctx, userID, orgID, RoleAdmin); err != nil {
			WriteAccessError(w, r, err, RoleAdmin)
			return
		}

		org, err := service.Rename(ctx, orgID, name)
		if err != nil {
			orgErrors.Write(w, r, err, "Failed to update organization")
			return
		}

		if err := auditor.LogOrgUpdated(ctx, org.ID, userID, org.Name, org.Slug); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"org": org,
		})
	}
}

// HandleListMembers handles GET /api/v1/orgs/{org_id}/members
func HandleListMembers(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, ok := parseOrgID(w, r)
		if !ok {
			return
		}

		service := NewService(pool)
		if _, err := service.CheckOrgRole(ctx, userID, orgID, RoleViewer); err != nil {
			WriteAccessError(w, r, err, RoleViewer)
			return
		}

		members, err := service.ListMembers(ctx, orgID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list members")
			apperrors.WriteInternalError(w, r, "Failed to list members")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"members": members,
		})
	}
}
