package app

import (
	"net/http"

	"github.com/aliuyar1234/formforge/internal/ai"
	"github.com/aliuyar1234/formforge/internal/apikey"
	"github.com/aliuyar1234/formforge/internal/apikeys"
	"github.com/aliuyar1234/formforge/internal/apperrors"
	"github.com/aliuyar1234/formforge/internal/audit"
	"github.com/aliuyar1234/formforge/internal/auth"
	"github.com/aliuyar1234/formforge/internal/config"
	"github.com/aliuyar1234/formforge/internal/forms"
	"github.com/aliuyar1234/formforge/internal/orgs"
	"github.com/aliuyar1234/formforge/internal/realtime"
	"github.com/aliuyar1234/formforge/internal/responses"
	"github.com/aliuyar1234/formforge/internal/storage"
	"github.com/aliuyar1234/formforge/internal/workspaces"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRouter creates and configures the Chi router with all middleware and routes
func NewRouter(cfg *config.Config, deps Deps) *chi.Mux {
	r := chi.NewRouter()

	isProduction := !cfg.IsDev()
	pool := deps.Pool

	r.Use(middleware.RealIP)
	r.Use(apperrors.RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.BaseURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	// Bearer tokens are resolved first; the session cookie only fills in
	// a user when no token did.
	r.Use(apikey.BearerMiddleware(pool))
	r.Use(auth.AuthMiddleware(cfg.JWTSecret, isProduction))

	auditor := audit.NewWriter(pool)

	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", handleReadyz(pool))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(NoCacheMiddleware)

		r.Route("/auth", func(r chi.Router) {
			r.Use(CSRFMiddleware)

			r.Get("/csrf", auth.HandleCSRF(isProduction))
			r.Post("/signup", auth.HandleSignup(pool, auditor, cfg.JWTSecret, cfg.SessionDays, isProduction))
			r.With(LoginRateLimitMiddleware()).Post("/login", auth.HandleLogin(pool, auditor, cfg.JWTSecret, cfg.SessionDays, isProduction))
			r.With(auth.RequireAuth).Post("/logout", auth.HandleLogout(isProduction))
		})

		// Anonymous form traffic
		r.Route("/public/forms", func(r chi.Router) {
			r.Use(PublicRateLimitMiddleware(cfg.RateLimitRPM))

			r.Get("/by-slug/{slug}", forms.HandleGetPublicBySlug(pool, deps.FormCache))
			r.Get("/{form_id}", forms.HandleGetPublic(pool, deps.FormCache))
			r.Post("/{form_id}/responses", responses.HandleSubmit(pool, deps.Hub, cfg.MaxSubmissionBytes))
			r.Post("/{form_id}/views", responses.HandleTrackView(pool))
			r.Post("/{form_id}/uploads", storage.HandleCreateUpload(pool, deps.Uploads))
		})

		r.Get("/templates", forms.HandleListTemplates())

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Use(CSRFMiddleware)

			r.Get("/me", auth.HandleMe(pool))

			r.Post("/tokens", apikeys.HandleCreate(pool, auditor))
			r.Get("/tokens", apikeys.HandleList(pool))
			r.Delete("/tokens/{token_id}", apikeys.HandleRevoke(pool, auditor))

			r.Route("/orgs", func(r chi.Router) {
				r.Post("/", orgs.HandleCreate(pool, auditor))
				r.Get("/", orgs.HandleList(pool, auditor))
				r.Put("/{org_id}", orgs.HandleUpdate(pool, auditor))

				r.Get("/{org_id}/members", orgs.HandleListMembers(pool))
				r.Post("/{org_id}/members", orgs.HandleInviteMember(pool, auditor))
				r.Put("/{org_id}/members/{user_id}", orgs.HandleUpdateMemberRole(pool, auditor))
				r.Delete("/{org_id}/members/{user_id}", orgs.HandleRemoveMember(pool, auditor))

				r.Get("/{org_id}/audit", orgs.HandleListAudit(pool))

				r.Post("/{org_id}/workspaces", workspaces.HandleCreate(pool, auditor))
				r.Get("/{org_id}/workspaces", workspaces.HandleList(pool))
			})

			r.Route("/workspaces/{workspace_id}", func(r chi.Router) {
				r.Get("/", workspaces.HandleGet(pool))
				r.Put("/", workspaces.HandleUpdate(pool, auditor))
				r.Delete("/", workspaces.HandleDelete(pool, auditor))

				r.Post("/forms", forms.HandleCreate(pool, auditor))
				r.Get("/forms", forms.HandleListByWorkspace(pool))
			})

			r.Route("/forms", func(r chi.Router) {
				r.Get("/", forms.HandleListAll(pool))
				r.Get("/{form_id}", forms.HandleGet(pool))
				r.Put("/{form_id}", forms.HandleUpdate(pool, auditor, deps.FormCache))
				r.Delete("/{form_id}", forms.HandleDelete(pool, auditor, deps.FormCache))
				r.Put("/{form_id}/status", forms.HandleSetStatus(pool, auditor, deps.FormCache))

				r.Get("/{form_id}/responses", responses.HandleList(pool))
				r.Get("/{form_id}/analytics", responses.HandleAnalytics(pool))
				r.Get("/{form_id}/responses/live", realtime.HandleLiveResponses(pool, deps.Hub, realtime.OriginChecker(cfg.BaseURL, cfg.IsDev())))
			})

			r.Route("/ai", func(r chi.Router) {
				r.Use(apikey.RateLimitByUser(cfg.AIRateLimitRPM))

				r.Post("/generate", ai.HandleGenerate(pool, auditor, deps.LLM))
				r.Post("/modify", ai.HandleModify(pool, auditor, deps.LLM))
			})
		})
	})

	return r
}

// handleHealthz returns a simple liveness check
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, r, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleReadyz reports readiness including database connectivity
func handleReadyz(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			apperrors.WriteServiceUnavailable(w, r, "Database connection failed")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]string{
			"status": "ready",
			"db":     "ok",
		})
	}
}
