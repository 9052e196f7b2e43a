package integration

import (
	"net/http"
	"testing"

	"github.com/aliuyar1234/formforge/internal/orgs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestE2E_FormLifecycle_DraftToPublishedToAnalytics(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)

	srv := newTestServer(t, pool, "http://127.0.0.1:1")
	owner := newAPIClient(t, srv.URL)
	owner.signup("owner@example.com")

	orgID := owner.createOrg("Acme")
	wsID := owner.createWorkspace(orgID, "Marketing")
	form := owner.createForm(wsID, map[string]any{"name": "Contact Us", "template": "contact"})
	require.Equal(t, "contact-us", form.Slug)
	require.Equal(t, "DRAFT", form.Status)

	anon := newAPIClient(t, srv.URL)
	formPath := "/api/v1/public/forms/" + form.ID.String()

	anon.expectError(http.MethodGet, formPath, http.StatusNotFound, nil)
	errEnv := anon.expectError(http.MethodPost, formPath+"/responses", http.StatusBadRequest, map[string]any{
		"response_json": map[string]any{"name": "Ada", "email": "ada@example.com", "message": "hi"},
	})
	require.Equal(t, "Form is not published", errEnv.Error.Message)

	owner.expect(http.MethodPut, "/api/v1/forms/"+form.ID.String()+"/status", http.StatusOK, map[string]any{"status": "PUBLISHED"}, nil)

	anon.expect(http.MethodGet, formPath, http.StatusOK, nil, nil)
	anon.expect(http.MethodGet, "/api/v1/public/forms/by-slug/contact-us", http.StatusOK, nil, nil)
	anon.expect(http.MethodPost, formPath+"/views", http.StatusOK, nil, nil)
	anon.expect(http.MethodPost, formPath+"/views", http.StatusOK, nil, nil)

	anon.expectError(http.MethodPost, formPath+"/responses", http.StatusBadRequest, map[string]any{
		"response_json": map[string]any{"name": "Ada"},
	})
	anon.expect(http.MethodPost, formPath+"/responses", http.StatusCreated, map[string]any{
		"response_json": map[string]any{"name": "Ada", "email": "ada@example.com", "message": "hi"},
	}, nil)

	var list struct {
		Responses []struct {
			ResponseJSON map[string]any `json:"response_json"`
		} `json:"responses"`
	}
	owner.expect(http.MethodGet, "/api/v1/forms/"+form.ID.String()+"/responses", http.StatusOK, nil, &list)
	require.Len(t, list.Responses, 1)
	require.Equal(t, "Ada", list.Responses[0].ResponseJSON["name"])

	var stats struct {
		Analytics struct {
			Views          int     `json:"views"`
			Submissions    int     `json:"submissions"`
			CompletionRate float64 `json:"completion_rate"`
		} `json:"analytics"`
	}
	owner.expect(http.MethodGet, "/api/v1/forms/"+form.ID.String()+"/analytics", http.StatusOK, nil, &stats)
	require.Equal(t, 2, stats.Analytics.Views)
	require.Equal(t, 1, stats.Analytics.Submissions)
	require.InDelta(t, 50.0, stats.Analytics.CompletionRate, 0.001)

	// A second form with the same name gets a distinct slug.
	second := owner.createForm(wsID, map[string]any{"name": "Contact Us"})
	require.NotEqual(t, form.Slug, second.Slug)

	owner.expect(http.MethodPut, "/api/v1/forms/"+form.ID.String()+"/status", http.StatusOK, map[string]any{"status": "DRAFT"}, nil)
	anon.expectError(http.MethodGet, formPath, http.StatusNotFound, nil)
}

func TestE2E_RoleEnforcement_ViewerEditorAdmin(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)

	srv := newTestServer(t, pool, "http://127.0.0.1:1")

	owner := newAPIClient(t, srv.URL)
	ownerID := owner.signup("owner@example.com")
	setPlan(t, pool, ownerID, "pro")

	member := newAPIClient(t, srv.URL)
	memberID := member.signup("member@example.com")

	outsider := newAPIClient(t, srv.URL)
	outsider.signup("outsider@example.com")

	orgID := owner.createOrg("Acme")
	wsID := owner.createWorkspace(orgID, "Product")
	orgPath := "/api/v1/orgs/" + orgID.String()
	wsPath := "/api/v1/workspaces/" + wsID.String()

	owner.expect(http.MethodPost, orgPath+"/members", http.StatusCreated, map[string]any{
		"email": "member@example.com",
		"role":  string(orgs.RoleViewer),
	}, nil)
	owner.expectError(http.MethodPost, orgPath+"/members", http.StatusBadRequest, map[string]any{
		"email": "member@example.com",
		"role":  string(orgs.RoleViewer),
	})

	member.expect(http.MethodGet, wsPath, http.StatusOK, nil, nil)
	errEnv := member.expectError(http.MethodPost, wsPath+"/forms", http.StatusForbidden, map[string]any{"name": "Survey"})
	require.Equal(t, orgs.InsufficientRoleMessage(orgs.RoleEditor), errEnv.Error.Message)

	outsider.expectError(http.MethodGet, wsPath, http.StatusForbidden, nil)
	outsider.expectError(http.MethodGet, "/api/v1/workspaces/"+uuid.NewString(), http.StatusNotFound, nil)

	owner.expect(http.MethodPut, orgPath+"/members/"+memberID.String(), http.StatusOK, map[string]any{
		"role": string(orgs.RoleEditor),
	}, nil)

	form := member.createForm(wsID, map[string]any{"name": "Survey"})
	member.expect(http.MethodPut, "/api/v1/forms/"+form.ID.String(), http.StatusOK, map[string]any{"name": "Survey 2"}, nil)

	member.expectError(http.MethodDelete, wsPath, http.StatusForbidden, nil)
	owner.expectError(http.MethodPut, orgPath+"/members/"+ownerID.String(), http.StatusConflict, map[string]any{
		"role": string(orgs.RoleAdmin),
	})

	owner.expect(http.MethodDelete, wsPath, http.StatusOK, nil, nil)
	owner.expectError(http.MethodGet, "/api/v1/forms/"+form.ID.String(), http.StatusNotFound, nil)

	var audit struct {
		Events []struct {
			Action string `json:"action"`
		} `json:"events"`
	}
	owner.expect(http.MethodGet, orgPath+"/audit", http.StatusOK, nil, &audit)
	actions := make([]string, 0, len(audit.Events))
	for _, e := range audit.Events {
		actions = append(actions, e.Action)
	}
	require.Contains(t, actions, "org.member_added")
	require.Contains(t, actions, "workspace.deleted")
}

func TestE2E_AIQuota_FreePlanStopsAtLimitWithoutCharging(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)

	llm := newFakeOpenAI(t)
	srv := newTestServer(t, pool, llm.URL)

	user := newAPIClient(t, srv.URL)
	userID := user.signup("free@example.com")
	orgID := user.createOrg("Solo")
	wsID := user.createWorkspace(orgID, "Drafts")

	payload := map[string]any{"prompt": "A newsletter signup form", "workspace_id": wsID.String()}

	var out struct {
		Schema struct {
			Title  string `json:"title"`
			Fields []struct {
				ID   string `json:"id"`
				Type string `json:"type"`
			} `json:"fields"`
		} `json:"schema"`
		Usage struct {
			Used      int `json:"used"`
			Limit     int `json:"limit"`
			Remaining int `json:"remaining"`
		} `json:"usage"`
	}
	user.expect(http.MethodPost, "/api/v1/ai/generate", http.StatusOK, payload, &out)
	require.Equal(t, "Signup", out.Schema.Title)
	require.Len(t, out.Schema.Fields, 1)
	require.Equal(t, 1, out.Usage.Used)
	require.Equal(t, 2, out.Usage.Limit)

	user.expect(http.MethodPost, "/api/v1/ai/generate", http.StatusOK, payload, &out)
	require.Equal(t, 0, out.Usage.Remaining)

	callsBefore := llm.calls.Load()
	errEnv := user.expectError(http.MethodPost, "/api/v1/ai/generate", http.StatusForbidden, payload)
	require.Contains(t, errEnv.Error.Message, "free tier")
	require.Equal(t, callsBefore, llm.calls.Load())

	used, ledger := usageCounts(t, pool, userID)
	require.Equal(t, 2, used)
	require.Equal(t, 2, ledger)

	// An upgraded plan gets a fresh budget and the modify flow.
	setPlan(t, pool, userID, "pro")
	user.expect(http.MethodPost, "/api/v1/ai/modify", http.StatusOK, map[string]any{
		"prompt":         "Add a phone number field",
		"current_schema": map[string]any{"title": "Old", "description": "", "fields": []any{}},
	}, &out)
	require.Equal(t, "Signup", out.Schema.Title)

	user.expectError(http.MethodPost, "/api/v1/ai/modify", http.StatusBadRequest, map[string]any{
		"prompt": "Add a phone number field",
	})
}

func TestE2E_AIQuota_RejectedPromptIsFreeFailedGenerationIsCharged(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)

	llm := newFakeOpenAI(t)
	srv := newTestServer(t, pool, llm.URL)

	user := newAPIClient(t, srv.URL)
	userID := user.signup("charged@example.com")
	orgID := user.createOrg("Billing")
	wsID := user.createWorkspace(orgID, "Drafts")

	// Whitespace padding does not count toward the minimum length, and the
	// provider is never called.
	errEnv := user.expectError(http.MethodPost, "/api/v1/ai/generate", http.StatusBadRequest, map[string]any{
		"prompt": "   form me   ", "workspace_id": wsID.String(),
	})
	require.Equal(t, "prompt must be at least 10 characters", errEnv.Error.Message)
	require.Zero(t, llm.calls.Load())

	payload := map[string]any{"prompt": "Write me a poem about autumn", "workspace_id": wsID.String()}

	llm.classifierAnswer.Store("NO")
	errEnv = user.expectError(http.MethodPost, "/api/v1/ai/generate", http.StatusBadRequest, payload)
	require.Equal(t, "Prompt is not related to forms", errEnv.Error.Message)
	require.EqualValues(t, 1, llm.calls.Load())

	used, ledger := usageCounts(t, pool, userID)
	require.Zero(t, used)
	require.Zero(t, ledger)

	// The charge lands before generation and stands when generation fails.
	llm.classifierAnswer.Store("YES")
	llm.generateStatus.Store(http.StatusInternalServerError)
	errEnv = user.expectError(http.MethodPost, "/api/v1/ai/generate", http.StatusInternalServerError, payload)
	require.Equal(t, "upstream_error", errEnv.Error.Code)
	require.Equal(t, "AI generation failed: model overloaded", errEnv.Error.Message)

	used, ledger = usageCounts(t, pool, userID)
	require.Equal(t, 1, used)
	require.Equal(t, 1, ledger)
}
