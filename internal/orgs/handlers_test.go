package orgs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aliuyar1234/formforge/internal/apperrors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorDetail {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func withOrgID(req *http.Request, orgID uuid.UUID) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("org_id", orgID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// The name check runs before any database access, so a nil pool is never
// touched on these paths.
func TestHandleCreate_WhitespaceNameRejected(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orgs", strings.NewReader(`{"name":"   "}`))
	HandleCreate(nil, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "name is required", decodeError(t, rec).Message)
}

func TestHandleUpdate_WhitespaceNameRejected(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/orgs/x", strings.NewReader(`{"name":" \t "}`))
	HandleUpdate(nil, nil).ServeHTTP(rec, withOrgID(req, uuid.New()))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	detail := decodeError(t, rec)
	require.Equal(t, apperrors.CodeBadRequest, detail.Code)
	require.Equal(t, "name is required", detail.Message)
}

func TestMemberErrors(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{ErrNotMember, http.StatusForbidden, NotMemberMessage},
		{ErrInsufficientPermissions, http.StatusForbidden, "You need at least ADMIN role to perform this action"},
		{ErrMemberNotFound, http.StatusNotFound, "Member not found"},
		{ErrCannotRemoveLastOwner, http.StatusConflict, "Cannot remove the last owner"},
		{ErrInvalidOrgRole, http.StatusBadRequest, "Invalid role"},
		{errors.New("boom"), http.StatusInternalServerError, "Failed to remove member"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeMemberError(rec, httptest.NewRequest(http.MethodDelete, "/", nil), tc.err, "remove member")

		require.Equal(t, tc.status, rec.Code, tc.err.Error())
		require.Equal(t, tc.message, decodeError(t, rec).Message)
	}
}
