package orgs

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aliuyar1234/formforge/internal/apperrors"
	"github.com/stretchr/testify/require"
)

func TestOrgRole_AtLeast(t *testing.T) {
	cases := []struct {
		have     OrgRole
		required OrgRole
		want     bool
	}{
		{RoleViewer, RoleViewer, true},
		{RoleViewer, RoleEditor, false},
		{RoleEditor, RoleEditor, true},
		{RoleEditor, RoleAdmin, false},
		{RoleAdmin, RoleEditor, true},
		{RoleAdmin, RoleOwner, false},
		{RoleOwner, RoleAdmin, true},
		{RoleOwner, RoleViewer, true},
		{OrgRole("MEMBER"), RoleViewer, false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, tc.have.AtLeast(tc.required), "%s >= %s", tc.have, tc.required)
	}
}

func TestOrgRole_IsValid(t *testing.T) {
	require.True(t, RoleEditor.IsValid())
	require.False(t, OrgRole("editor").IsValid())
	require.False(t, OrgRole("").IsValid())
}

func TestAdminManageable(t *testing.T) {
	require.True(t, adminManageable(RoleViewer))
	require.True(t, adminManageable(RoleEditor))
	require.False(t, adminManageable(RoleAdmin))
	require.False(t, adminManageable(RoleOwner))
}

func TestInsufficientRoleMessage(t *testing.T) {
	require.Equal(t, "You need at least EDITOR role to perform this action", InsufficientRoleMessage(RoleEditor))
}

func TestWriteAccessError(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{ErrNotMember, http.StatusForbidden, NotMemberMessage},
		{ErrInsufficientPermissions, http.StatusForbidden, "You need at least ADMIN role to perform this action"},
		{errors.New("db down"), http.StatusInternalServerError, "Failed to check permissions"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteAccessError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err, RoleAdmin)

		var body apperrors.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, tc.status, rec.Code)
		require.Equal(t, tc.message, body.Error.Message)
	}
}
