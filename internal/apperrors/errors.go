package apperrors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

// ErrorResponse is the envelope for every failed API call.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine code, the user-facing message and the
// request ID that ties the response to the server log.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// SuccessResponse is the envelope for every successful API call.
type SuccessResponse struct {
	RequestID string `json:"request_id"`
	Data      any    `json:"data"`
}

// Codes used in ErrorDetail.Code.
const (
	CodeBadRequest    = "bad_request"
	CodeUnauthorized  = "unauthorized"
	CodeForbidden     = "forbidden"
	CodeQuotaExceeded = "quota_exceeded"
	CodeNotFound      = "not_found"
	CodeConflict      = "conflict"
	CodeTooLarge      = "payload_too_large"
	CodeRateLimited   = "rate_limited"
	CodeInternal      = "internal_error"
	CodeUpstream      = "upstream_error"
	CodeUnavailable   = "service_unavailable"
)

var defaultCodes = map[int]string{
	http.StatusBadRequest:            CodeBadRequest,
	http.StatusUnauthorized:          CodeUnauthorized,
	http.StatusForbidden:             CodeForbidden,
	http.StatusNotFound:              CodeNotFound,
	http.StatusConflict:              CodeConflict,
	http.StatusRequestEntityTooLarge: CodeTooLarge,
	http.StatusTooManyRequests:       CodeRateLimited,
	http.StatusInternalServerError:   CodeInternal,
	http.StatusServiceUnavailable:    CodeUnavailable,
}

// CodeFor returns the default error code for an HTTP status.
func CodeFor(status int) string {
	if code, ok := defaultCodes[status]; ok {
		return code
	}
	return CodeInternal
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already out; an encode failure has nowhere to go.
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError writes an error envelope with an explicit code.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{
		Code:      code,
		Message:   message,
		RequestID: GetRequestID(r.Context()),
	}})
}

// WriteSuccess writes data inside the success envelope.
func WriteSuccess(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, status, SuccessResponse{RequestID: GetRequestID(r.Context()), Data: data})
}

// Rule maps a sentinel error to the response a handler should send for it.
// An empty Code falls back to CodeFor(Status).
type Rule struct {
	Err     error
	Status  int
	Code    string
	Message string
}

// Table is an ordered list of rules; the first rule whose Err matches wins.
// Domain packages declare their own tables and compose them with append.
type Table []Rule

// Match returns the first rule matching err.
func (t Table) Match(err error) (Rule, bool) {
	for _, rule := range t {
		if errors.Is(err, rule.Err) {
			if rule.Code == "" {
				rule.Code = CodeFor(rule.Status)
			}
			return rule, true
		}
	}
	return Rule{}, false
}

// Write sends the response for the matching rule. Unmatched errors are
// logged and answered with a 500 carrying fallback.
func (t Table) Write(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if rule, ok := t.Match(err); ok {
		WriteError(w, r, rule.Status, rule.Code, rule.Message)
		return
	}
	log.Error().Err(err).Str("request_id", GetRequestID(r.Context())).Msg(fallback)
	WriteInternalError(w, r, fallback)
}

func WriteServiceUnavailable(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusServiceUnavailable, CodeUnavailable, message)
}

func WriteInternalError(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusInternalServerError, CodeInternal, message)
}

// WriteUpstreamError is a 500 caused by a third-party API.
func WriteUpstreamError(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusInternalServerError, CodeUpstream, message)
}

func WriteBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusBadRequest, CodeBadRequest, message)
}

func WriteUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusUnauthorized, CodeUnauthorized, message)
}

func WriteForbidden(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusForbidden, CodeForbidden, message)
}

// WriteQuotaExceeded is a 403 caused by plan limits rather than role.
func WriteQuotaExceeded(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusForbidden, CodeQuotaExceeded, message)
}

func WriteNotFound(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusNotFound, CodeNotFound, message)
}

func WriteConflict(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusConflict, CodeConflict, message)
}

func WriteTooManyRequests(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusTooManyRequests, CodeRateLimited, message)
}

func WritePayloadTooLarge(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusRequestEntityTooLarge, CodeTooLarge, message)
}
