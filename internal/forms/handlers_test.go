package forms

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aliuyar1234/formforge/internal/apperrors"
	"github.com/aliuyar1234/formforge/internal/orgs"
	"github.com/aliuyar1234/formforge/internal/validation"
	"github.com/stretchr/testify/require"
)

func TestWriteLookupError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{fmt.Errorf("failed to load form: %w", ErrFormNotFound), http.StatusNotFound, "Form not found"},
		{orgs.ErrNotMember, http.StatusForbidden, orgs.NotMemberMessage},
		{orgs.ErrInsufficientPermissions, http.StatusForbidden, "You need at least EDITOR role to perform this action"},
		{errors.New("db down"), http.StatusInternalServerError, "Failed to check permissions"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteLookupError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err, orgs.RoleEditor)

		var body apperrors.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, tc.status, rec.Code)
		require.Equal(t, tc.msg, body.Error.Message)
	}
}

func TestWriteSlugError(t *testing.T) {
	for _, err := range []error{ErrSlugConflict, validation.ErrSlugExhausted} {
		rec := httptest.NewRecorder()
		writeSlugError(rec, httptest.NewRequest(http.MethodPost, "/", nil), err, "create form")
		require.Equal(t, http.StatusConflict, rec.Code)
	}

	rec := httptest.NewRecorder()
	writeSlugError(rec, httptest.NewRequest(http.MethodPost, "/", nil), errors.New("boom"), "create form")

	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Failed to create form", body.Error.Message)
}
