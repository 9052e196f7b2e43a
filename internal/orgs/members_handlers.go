package orgs

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

type InviteRequest struct {
	Email string  `json:"email" validate:"required,email,max=254"`
	Role  OrgRole `json:"role" validate:"required,oneof=VIEWER EDITOR ADMIN OWNER"`
}

type MemberRoleUpdateRequest struct {
	Role OrgRole `json:"role" validate:"required,oneof=VIEWER EDITOR ADMIN OWNER"`
}

var memberErrors = append(AccessErrors(RoleAdmin), apperrors.Table{
	{Err: ErrMemberNotFound, Status: http.StatusNotFound, Message: "Member not found"},
	{Err: ErrCannotDemoteLastOwner, Status: http.StatusConflict, Message: "Cannot demote the last owner"},
	{Err: ErrCannotRemoveLastOwner, Status: http.StatusConflict, Message: "Cannot remove the last owner"},
	{Err: ErrInvalidOrgRole, Status: http.StatusBadRequest, Message: "Invalid role"},
	{Err: ErrAlreadyMember, Status: http.StatusBadRequest, Message: "User is already a member of this organization"},
}...)

func writeMemberError(w http.ResponseWriter, r *http.Request, err error, action string) {
	memberErrors.Write(w, r, err, "Failed to "+action)
}

// HandleInviteMember handles POST /api/v1/orgs/{org_id}/members
func HandleInviteMember(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actorUserID := auth.GetUserID(ctx)

		orgID, ok := parseOrgID(w, r)
		if !ok {
			return
		}

		var req InviteRequest
		if err := validation.DecodeJSON(w, r, maxOrgBodyBytes, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		if !requireProPlan(w, r, pool, actorUserID, "Team member invites require PRO plan") {
			return
		}

		service := NewService(pool)
		if _, err := service.CheckOrgRole(ctx, actorUserID, orgID, RoleAdmin); err != nil {
			WriteAccessError(w, r, err, RoleAdmin)
			return
		}

		invitee, err := auth.NewService(pool).GetByEmail(ctx, req.Email)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				apperrors.WriteNotFound(w, r, "User with this email not found. They need to sign up first.")
				return
			}
			log.Error().Err(err).Msg("Failed to look up invitee")
			apperrors.WriteInternalError(w, r, "Failed to add member")
			return
		}

		if err := service.AddMember(ctx, orgID, actorUserID, invitee.ID, req.Role); err != nil {
			writeMemberError(w, r, err, "add member")
			return
		}

		if err := auditor.LogOrgMemberAdded(ctx, orgID, actorUserID, invitee.ID, string(req.Role)); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"member": MemberInfo{UserID: invitee.ID, Email: invitee.Email, Role: req.Role},
		})
	}
}

func parseMemberPath(w http.ResponseWriter, r *http.Request) (orgID, targetUserID uuid.UUID, ok bool) {
	orgID, ok = parseOrgID(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	targetUserID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		apperrors.WriteBadRequest(w, r, "Invalid user ID")
		return uuid.Nil, uuid.Nil, false
	}
	return orgID, targetUserID, true
}

// HandleUpdateMemberRole handles PUT /api/v1/orgs/{org_id}/members/{user_id}
func HandleUpdateMemberRole(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actorUserID := auth.GetUserID(ctx)

		orgID, targetUserID, ok := parseMemberPath(w, r)
		if !ok {
			return
		}

		var req MemberRoleUpdateRequest
		if err := validation.DecodeJSON(w, r, maxOrgBodyBytes, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		service := NewService(pool)
		prevRole, err := service.UpdateMemberRole(ctx, orgID, actorUserID, targetUserID, req.Role)
		if err != nil {
			writeMemberError(w, r, err, "update member role")
			return
		}

		if err := auditor.LogOrgMemberRoleUpdated(ctx, orgID, actorUserID, targetUserID, string(prevRole), string(req.Role)); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"updated": true,
		})
	}
}

// HandleRemoveMember handles DELETE /api/v1/orgs/{org_id}/members/{user_id}
func HandleRemoveMember(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actorUserID := auth.GetUserID(ctx)

		orgID, targetUserID, ok := parseMemberPath(w, r)
		if !ok {
			return
		}

		service := NewService(pool)
		removedRole, err := service.RemoveMember(ctx, orgID, actorUserID, targetUserID)
		if err != nil {
			writeMemberError(w, r, err, "remove member")
			return
		}

		if err := auditor.LogOrgMemberRemoved(ctx, orgID, actorUserID, targetUserID, string(removedRole)); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"removed": true,
		})
	}
}
