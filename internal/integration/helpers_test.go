package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/aliuyar1234/formforge/internal/ai"
	"github.com/aliuyar1234/formforge/internal/app"
	"github.com/aliuyar1234/formforge/internal/auth"
	"github.com/aliuyar1234/formforge/internal/config"
	"github.com/aliuyar1234/formforge/internal/realtime"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

type envelopeResponse struct {
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                "dev",
		HTTPAddr:           ":0",
		BaseURL:            "http://localhost",
		DBDSN:              "unused",
		JWTSecret:          "test-secret",
		LogLevel:           "error",
		SessionDays:        7,
		RateLimitRPM:       1000,
		AIRateLimitRPM:     1000,
		MaxSubmissionBytes: 64 * 1024,
		AuditRetentionDays: 180,
	}
}

// fakeOpenAI answers classifier calls with classifierAnswer (YES by default)
// and everything else with a one-field schema, or with generateStatus when it
// is set. calls counts every request it receives.
type fakeOpenAI struct {
	*httptest.Server
	calls            atomic.Int32
	classifierAnswer atomic.Value
	generateStatus   atomic.Int32
}

func newFakeOpenAI(t *testing.T) *fakeOpenAI {
	t.Helper()
	f := &fakeOpenAI{}
	f.classifierAnswer.Store("YES")
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)

		var req struct {
			MaxTokens int `json:"max_tokens"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		w.Header().Set("Content-Type", "application/json")
		content := "```json\n" + `{"title":"Signup","description":"Join us","fields":[{"id":"email","type":"email","label":"Email","required":true}]}` + "\n```"
		if req.MaxTokens == 10 {
			content = f.classifierAnswer.Load().(string)
		} else if status := int(f.generateStatus.Load()); status != 0 {
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "model overloaded"},
			})
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
		})
	}))
	t.Cleanup(f.Server.Close)
	return f
}

// usageCounts returns the user's counter and ledger row count.
func usageCounts(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) (used, ledger int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, pool.QueryRow(ctx, `SELECT ai_usage_count FROM users WHERE id = $1`, userID).Scan(&used))
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM ai_usage_ledger WHERE user_id = $1`, userID).Scan(&ledger))
	return used, ledger
}

func newTestServer(t *testing.T, pool *pgxpool.Pool, llmURL string) *httptest.Server {
	t.Helper()

	deps := app.Deps{
		Pool: pool,
		Hub:  realtime.NewHub(nil),
		LLM:  ai.NewClient(llmURL, "sk-test", "gpt-4o-mini"),
	}
	srv := httptest.NewServer(app.NewRouter(testConfig(), deps))
	t.Cleanup(srv.Close)
	return srv
}

// apiClient is a browser-like client: cookie jar plus the CSRF token.
type apiClient struct {
	t       *testing.T
	http    *http.Client
	baseURL string
	csrf    string
}

func newAPIClient(t *testing.T, baseURL string) *apiClient {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	u, err := url.Parse(baseURL)
	require.NoError(t, err)

	token, err := auth.GenerateCSRFToken()
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: auth.CSRFCookieName, Value: token, Path: "/"}})

	return &apiClient{t: t, http: &http.Client{Jar: jar}, baseURL: baseURL, csrf: token}
}

func (c *apiClient) do(method, path string, payload any) (int, []byte) {
	c.t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(c.t, err)
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.CSRFHeaderName, c.csrf)

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, respBody
}

// expect performs a request, asserts the status and decodes data into dst.
func (c *apiClient) expect(method, path string, wantStatus int, payload, dst any) {
	c.t.Helper()

	status, body := c.do(method, path, payload)
	require.Equal(c.t, wantStatus, status, "body: %s", string(body))

	var env envelopeResponse
	require.NoError(c.t, json.Unmarshal(body, &env))
	require.NotEmpty(c.t, env.RequestID)

	if dst != nil {
		require.NoError(c.t, json.Unmarshal(env.Data, dst))
	}
}

// expectError performs a request and returns the decoded error envelope.
func (c *apiClient) expectError(method, path string, wantStatus int, payload any) errorEnvelope {
	c.t.Helper()

	status, body := c.do(method, path, payload)
	require.Equal(c.t, wantStatus, status, "body: %s", string(body))

	var env errorEnvelope
	require.NoError(c.t, json.Unmarshal(body, &env))
	require.NotEmpty(c.t, env.Error.RequestID)
	return env
}

func (c *apiClient) signup(email string) uuid.UUID {
	c.t.Helper()

	creds := map[string]any{"email": email, "password": "password123"}
	c.expect(http.MethodPost, "/api/v1/auth/signup", http.StatusCreated, creds, nil)

	var out struct {
		User struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
	}
	c.expect(http.MethodPost, "/api/v1/auth/login", http.StatusOK, creds, &out)
	require.NotEqual(c.t, uuid.Nil, out.User.ID)
	return out.User.ID
}

func (c *apiClient) createOrg(name string) uuid.UUID {
	c.t.Helper()

	var out struct {
		Org struct {
			ID uuid.UUID `json:"id"`
		} `json:"org"`
	}
	c.expect(http.MethodPost, "/api/v1/orgs", http.StatusCreated, map[string]any{"name": name}, &out)
	return out.Org.ID
}

func (c *apiClient) createWorkspace(orgID uuid.UUID, name string) uuid.UUID {
	c.t.Helper()

	var out struct {
		Workspace struct {
			ID uuid.UUID `json:"id"`
		} `json:"workspace"`
	}
	c.expect(http.MethodPost, "/api/v1/orgs/"+orgID.String()+"/workspaces", http.StatusCreated, map[string]any{"name": name}, &out)
	return out.Workspace.ID
}

type formOut struct {
	ID     uuid.UUID `json:"id"`
	Slug   string    `json:"slug"`
	Status string    `json:"status"`
}

func (c *apiClient) createForm(workspaceID uuid.UUID, payload map[string]any) formOut {
	c.t.Helper()

	var out struct {
		Form formOut `json:"form"`
	}
	c.expect(http.MethodPost, "/api/v1/workspaces/"+workspaceID.String()+"/forms", http.StatusCreated, payload, &out)
	return out.Form
}

func setPlan(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, plan string) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		UPDATE users SET subscription_plan = $2, subscription_status = 'active' WHERE id = $1
	`, userID, plan)
	require.NoError(t, err)
}
