package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestWriteError_Envelope(t *testing.T) {
	var body ErrorResponse
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteForbidden(w, r, "You need at least EDITOR role to perform this action")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "forbidden", body.Error.Code)
	require.Equal(t, "You need at least EDITOR role to perform this action", body.Error.Message)
	require.Equal(t, rec.Header().Get(RequestIDHeader), body.Error.RequestID)
}

func TestWriteSuccess_Envelope(t *testing.T) {
	var body struct {
		RequestID string            `json:"request_id"`
		Data      map[string]string `json:"data"`
	}
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteSuccess(w, r, http.StatusCreated, map[string]string{"status": "ok"})
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Data["status"])
	_, err := uuid.Parse(body.RequestID)
	require.NoError(t, err)
}

func TestRequestIDMiddleware_ReusesValidHeader(t *testing.T) {
	incoming := uuid.NewString()
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, incoming, seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.NotEqual(t, "not-a-uuid", seen)
}

var (
	errGone     = errors.New("gone")
	errTaken    = errors.New("taken")
	errUnmapped = errors.New("connection reset")
)

func TestTable_Write(t *testing.T) {
	table := Table{
		{Err: errGone, Status: http.StatusNotFound, Message: "Thing not found"},
		{Err: errTaken, Status: http.StatusForbidden, Code: CodeQuotaExceeded, Message: "Out of credits"},
		{Err: errGone, Status: http.StatusGone, Message: "shadowed"},
	}

	cases := []struct {
		name   string
		err    error
		status int
		code   string
		msg    string
	}{
		{"default code", errGone, http.StatusNotFound, CodeNotFound, "Thing not found"},
		{"wrapped", fmt.Errorf("failed to load: %w", errGone), http.StatusNotFound, CodeNotFound, "Thing not found"},
		{"explicit code", errTaken, http.StatusForbidden, CodeQuotaExceeded, "Out of credits"},
		{"unmapped", errUnmapped, http.StatusInternalServerError, CodeInternal, "Failed to load thing"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			table.Write(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err, "Failed to load thing")

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, tc.code, body.Error.Code)
			require.Equal(t, tc.msg, body.Error.Message)
		})
	}
}

func TestTable_ComposesWithAppend(t *testing.T) {
	base := Table{{Err: errGone, Status: http.StatusNotFound, Message: "base"}}
	extended := append(Table{{Err: errGone, Status: http.StatusGone, Message: "override"}}, base...)

	rule, ok := extended.Match(errGone)
	require.True(t, ok)
	require.Equal(t, http.StatusGone, rule.Status)
	require.Equal(t, "override", rule.Message)
	require.Equal(t, CodeInternal, rule.Code)

	_, ok = base.Match(errTaken)
	require.False(t, ok)
}

func TestCodeFor(t *testing.T) {
	require.Equal(t, CodeConflict, CodeFor(http.StatusConflict))
	require.Equal(t, CodeInternal, CodeFor(http.StatusTeapot))
}
