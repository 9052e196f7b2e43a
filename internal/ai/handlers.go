package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/aliuyar1234/formforge/internal/apperrors"
	"github.com/aliuyar1234/formforge/internal/audit"
	"github.com/aliuyar1234/formforge/internal/auth"
	"github.com/aliuyar1234/formforge/internal/forms"
	"github.com/aliuyar1234/formforge/internal/orgs"
	"github.com/aliuyar1234/formforge/internal/usage"
	"github.com/aliuyar1234/formforge/internal/validation"
	"github.com/aliuyar1234/formforge/internal/workspaces"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const (
	maxAIBodyBytes = 256 * 1024

	notFormRelatedMessage = "Prompt is not related to forms"

	minPromptRunes = 10
)

type GenerateRequest struct {
	Prompt      string    `json:"prompt" validate:"required,min=10,max=500"`
	WorkspaceID uuid.UUID `json:"workspace_id" validate:"required"`
}

type ModifyRequest struct {
	CurrentSchema json.RawMessage `json:"current_schema"`
	FormID        *uuid.UUID      `json:"form_id"`
	Prompt        string          `json:"prompt" validate:"required,min=10,max=1000"`
}

type usageResponse struct {
	Plan      usage.Plan `json:"plan"`
	Used      int        `json:"used"`
	Limit     int        `json:"limit"`
	Remaining int        `json:"remaining"`
}

func toUsageResponse(st *usage.Status) usageResponse {
	return usageResponse{Plan: st.Plan, Used: st.Used, Limit: st.Limit, Remaining: st.Remaining()}
}

// admit runs the quota check, the prompt classifier and the charge, in that
// order. It writes the error response and returns nil on failure.
func admit(w http.ResponseWriter, r *http.Request, gate *usage.Gate, assistant *Assistant, userID uuid.UUID, prompt string, kind usage.Kind) *usage.Status {
	ctx := r.Context()

	st, err := gate.Check(ctx, userID)
	if err != nil {
		writeGateError(w, r, st, err)
		return nil
	}

	related, err := assistant.IsFormRelated(ctx, prompt)
	if err != nil {
		writeProviderError(w, r, err, "Failed to evaluate prompt")
		return nil
	}
	if !related {
		apperrors.WriteBadRequest(w, r, notFormRelatedMessage)
		return nil
	}

	st, err = gate.Charge(ctx, userID, kind)
	if err != nil {
		writeGateError(w, r, st, err)
		return nil
	}

	return st
}

func gateErrors(st *usage.Status) apperrors.Table {
	limit := usage.ErrLimitReached.Error()
	if st != nil {
		limit = st.LimitMessage()
	}
	return apperrors.Table{
		{Err: usage.ErrLimitReached, Status: http.StatusForbidden, Code: apperrors.CodeQuotaExceeded, Message: limit},
		{Err: usage.ErrUserNotFound, Status: http.StatusUnauthorized, Message: "Unauthorized"},
	}
}

func writeGateError(w http.ResponseWriter, r *http.Request, st *usage.Status, err error) {
	gateErrors(st).Write(w, r, err, "Failed to check AI usage")
}

// trimPrompt re-checks the minimum length after trimming, since padding
// with whitespace satisfies the validator.
func trimPrompt(w http.ResponseWriter, r *http.Request, raw string) (string, bool) {
	prompt := strings.TrimSpace(raw)
	if utf8.RuneCountInString(prompt) < minPromptRunes {
		apperrors.WriteBadRequest(w, r, fmt.Sprintf("prompt must be at least %d characters", minPromptRunes))
		return "", false
	}
	return prompt, true
}

// writeProviderError maps assistant failures to 500 responses, keeping the
// provider's message where there is one.
func writeProviderError(w http.ResponseWriter, r *http.Request, err error, prefix string) {
	var upstream *UpstreamError
	switch {
	case errors.As(err, &upstream):
		log.Warn().Int("status", upstream.StatusCode).Str("message", upstream.Message).Msg("AI provider returned an error")
		apperrors.WriteUpstreamError(w, r, prefix+": "+upstream.Message)
	case errors.Is(err, ErrNotConfigured), errors.Is(err, ErrParse), errors.Is(err, ErrEmptyContent):
		apperrors.WriteInternalError(w, r, prefix+": "+err.Error())
	default:
		log.Error().Err(err).Msg(prefix)
		apperrors.WriteUpstreamError(w, r, prefix+": OpenAI API error")
	}
}

// HandleGenerate handles POST /api/v1/ai/generate
func HandleGenerate(pool *pgxpool.Pool, auditor *audit.Writer, llm Completer) http.HandlerFunc {
	assistant := NewAssistant(llm)
	gate := usage.NewGate(pool)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		var req GenerateRequest
		if err := validation.DecodeJSON(w, r, maxAIBodyBytes, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}
		prompt, ok := trimPrompt(w, r, req.Prompt)
		if !ok {
			return
		}

		ws, _, err := workspaces.NewService(pool).CheckAccess(ctx, userID, req.WorkspaceID, orgs.RoleEditor)
		if err != nil {
			workspaces.WriteLookupError(w, r, err, orgs.RoleEditor)
			return
		}

		st := admit(w, r, gate, assistant, userID, prompt, usage.KindGenerate)
		if st == nil {
			return
		}

		schema, err := assistant.Generate(ctx, st.Plan, prompt)
		if err != nil {
			writeProviderError(w, r, err, "AI generation failed")
			return
		}

		if err := auditor.LogAI(ctx, audit.EventAIGenerated, &ws.OrgID, userID, string(st.Plan), len(schema.Fields)); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"schema": schema,
			"usage":  toUsageResponse(st),
		})
	}
}

// HandleModify handles POST /api/v1/ai/modify
func HandleModify(pool *pgxpool.Pool, auditor *audit.Writer, llm Completer) http.HandlerFunc {
	assistant := NewAssistant(llm)
	gate := usage.NewGate(pool)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		var req ModifyRequest
		if err := validation.DecodeJSON(w, r, maxAIBodyBytes, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}
		prompt, ok := trimPrompt(w, r, req.Prompt)
		if !ok {
			return
		}

		var current *forms.Schema
		var orgID *uuid.UUID

		if req.FormID != nil {
			form, err := forms.NewService(pool).CheckAccess(ctx, userID, *req.FormID, orgs.RoleEditor)
			if err != nil {
				forms.WriteLookupError(w, r, err, orgs.RoleEditor)
				return
			}
			current = &form.Schema
			orgID = &form.OrgID
		}

		// A schema in the body wins over the stored one.
		if len(req.CurrentSchema) > 0 && string(req.CurrentSchema) != "null" {
			parsed, err := forms.ParseSchema(req.CurrentSchema)
			if err != nil {
				apperrors.WriteBadRequest(w, r, forms.InvalidSchemaMessage)
				return
			}
			current = parsed
		}

		if current == nil {
			apperrors.WriteBadRequest(w, r, "Either current_schema or form_id is required")
			return
		}

		st := admit(w, r, gate, assistant, userID, prompt, usage.KindModify)
		if st == nil {
			return
		}

		schema, err := assistant.Modify(ctx, current, prompt)
		if err != nil {
			writeProviderError(w, r, err, "AI modification failed")
			return
		}

		if err := auditor.LogAI(ctx, audit.EventAIModified, orgID, userID, string(st.Plan), len(schema.Fields)); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"schema": schema,
			"usage":  toUsageResponse(st),
		})
	}
}
