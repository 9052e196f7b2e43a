package realtime

import (
	"net/http"

	"github.com/aliuyar1234/formforge/internal/auth"
	"github.com/aliuyar1234/formforge/internal/forms"
	"github.com/aliuyar1234/formforge/internal/orgs"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HandleLiveResponses handles GET /api/v1/forms/{form_id}/responses/live
func HandleLiveResponses(pool *pgxpool.Pool, hub *Hub, checkOrigin func(*http.Request) bool) http.HandlerFunc {
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

		Serve(hub, checkOrigin, w, r, formID, userID)
	}
}
