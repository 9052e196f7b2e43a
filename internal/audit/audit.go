package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const (
	EventUserSignup           = "user.signup"
	EventLoginFailed          = "auth.login_failed"
	EventAPITokenCreated      = "api_token.created"
	EventAPITokenRevoked      = "api_token.revoked"
	EventOrgCreated           = "org.created"
	EventOrgUpdated           = "org.updated"
	EventOrgMemberAdded       = "org.member_added"
	EventOrgMemberRoleUpdated = "org.member_role_updated"
	EventOrgMemberRemoved     = "org.member_removed"
	EventWorkspaceCreated     = "workspace.created"
	EventWorkspaceUpdated     = "workspace.updated"
	EventWorkspaceDeleted     = "workspace.deleted"
	EventFormCreated          = "form.created"
	EventFormUpdated          = "form.updated"
	EventFormDeleted          = "form.deleted"
	EventFormPublished        = "form.published"
	EventFormUnpublished      = "form.unpublished"
	EventAIGenerated          = "ai.generated"
	EventAIModified           = "ai.modified"
)

// Writer appends entries to the audit log.
type Writer struct {
	pool *pgxpool.Pool
}

func NewWriter(pool *pgxpool.Pool) *Writer {
	return &Writer{pool: pool}
}

// LogParams contains parameters for logging an audit event.
type LogParams struct {
	OrgID       *uuid.UUID
	ActorUserID *uuid.UUID
	Action      string
	Meta        map[string]any
}

// Log writes one audit entry. Callers log the returned error and carry on;
// an audit failure never fails the request that caused it.
func (w *Writer) Log(ctx context.Context, params LogParams) error {
	metaJSON := []byte("{}")
	if params.Meta != nil {
		b, err := json.Marshal(params.Meta)
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal audit meta")
			return err
		}
		metaJSON = b
	}

	_, err := w.pool.Exec(ctx, `
		INSERT INTO audit_log (org_id, actor_user_id, action, meta)
		VALUES ($1, $2, $3, $4)
	`, toNullUUID(params.OrgID), toNullUUID(params.ActorUserID), params.Action, metaJSON)
	if err != nil {
		log.Error().Err(err).Str("action", params.Action).Msg("Failed to write audit log")
		return err
	}

	log.Info().
		Str("action", params.Action).
		Interface("org_id", params.OrgID).
		Interface("actor_user_id", params.ActorUserID).
		Msg("Audit event logged")

	return nil
}

func toNullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func (w *Writer) LogUserSignup(ctx context.Context, userID uuid.UUID, email string) error {
	return w.Log(ctx, LogParams{
		ActorUserID: &userID,
		Action:      EventUserSignup,
		Meta:        map[string]any{"email": email},
	})
}

func (w *Writer) LogLoginFailed(ctx context.Context, email, ip string) error {
	return w.Log(ctx, LogParams{
		Action: EventLoginFailed,
		Meta: map[string]any{
			"email": email,
			"ip":    ip,
		},
	})
}

func (w *Writer) LogAPITokenCreated(ctx context.Context, userID, tokenID uuid.UUID, name string) error {
	return w.Log(ctx, LogParams{
		ActorUserID: &userID,
		Action:      EventAPITokenCreated,
		Meta: map[string]any{
			"token_id": tokenID.String(),
			"name":     name,
		},
	})
}

func (w *Writer) LogAPITokenRevoked(ctx context.Context, userID, tokenID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		ActorUserID: &userID,
		Action:      EventAPITokenRevoked,
		Meta:        map[string]any{"token_id": tokenID.String()},
	})
}

func (w *Writer) LogOrgCreated(ctx context.Context, orgID, userID uuid.UUID, slug string) error {
	return w.Log(ctx, LogParams{
		OrgID:       &orgID,
		ActorUserID: &userID,
		Action:      EventOrgCreated,
		Meta:        map[string]any{"slug": slug},
	})
}

func (w *Writer) LogOrgUpdated(ctx context.Context, orgID, userID uuid.UUID, name, slug string) error {
	return w.Log(ctx, LogParams{
		OrgID:       &orgID,
		ActorUserID: &userID,
		Action:      EventOrgUpdated,
		Meta: map[string]any{
			"name": name,
			"slug": slug,
		},
	})
}

func (w *Writer) LogOrgMemberAdded(ctx context.Context, orgID, actorUserID, targetUserID uuid.UUID, role string) error {
	return w.Log(ctx, LogParams{
		OrgID:       &orgID,
		ActorUserID: &actorUserID,
		Action:      EventOrgMemberAdded,
		Meta: map[string]any{
			"target_user_id": targetUserID.String(),
			"role":           role,
		},
	})
}

func (w *Writer) LogOrgMemberRoleUpdated(ctx context.Context, orgID, actorUserID, targetUserID uuid.UUID, previousRole, newRole string) error {
	return w.Log(ctx, LogParams{
		OrgID:       &orgID,
		ActorUserID: &actorUserID,
		Action:      EventOrgMemberRoleUpdated,
		Meta: map[string]any{
			"target_user_id": targetUserID.String(),
			"previous_role":  previousRole,
			"new_role":       newRole,
		},
	})
}

func (w *Writer) LogOrgMemberRemoved(ctx context.Context, orgID, actorUserID, targetUserID uuid.UUID, removedRole string) error {
	return w.Log(ctx, LogParams{
		OrgID:       &orgID,
		ActorUserID: &actorUserID,
		Action:      EventOrgMemberRemoved,
		Meta: map[string]any{
			"target_user_id": targetUserID.String(),
			"role":           removedRole,
		},
	})
}

// LogWorkspace records a workspace.* event.
func (w *Writer) LogWorkspace(ctx context.Context, action string, orgID, actorUserID, workspaceID uuid.UUID, name string) error {
	return w.Log(ctx, LogParams{
		OrgID:       &orgID,
		ActorUserID: &actorUserID,
		Action:      action,
		Meta: map[string]any{
			"workspace_id": workspaceID.String(),
			"name":         name,
		},
	})
}

// LogForm records a form.* event.
func (w *Writer) LogForm(ctx context.Context, action string, orgID, actorUserID, formID uuid.UUID, slug string) error {
	return w.Log(ctx, LogParams{
		OrgID:       &orgID,
		ActorUserID: &actorUserID,
		Action:      action,
		Meta: map[string]any{
			"form_id": formID.String(),
			"slug":    slug,
		},
	})
}

// LogAI records an ai.* event. orgID is nil when the request was not tied
// to a workspace or form.
func (w *Writer) LogAI(ctx context.Context, action string, orgID *uuid.UUID, actorUserID uuid.UUID, plan string, fields int) error {
	return w.Log(ctx, LogParams{
		OrgID:       orgID,
		ActorUserID: &actorUserID,
		Action:      action,
		Meta: map[string]any{
			"plan":   plan,
			"fields": fields,
		},
	})
}
