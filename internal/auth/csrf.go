package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
)

const (
	// CSRFCookieName is the name of the CSRF cookie
	CSRFCookieName = "ff_csrf"

	// CSRFHeaderName carries the echoed token on mutating requests
	CSRFHeaderName = "X-CSRF-Token"

	// CSRFTokenBytes is the number of random bytes for CSRF tokens
	CSRFTokenBytes = 32
)

var (
	ErrMissingCSRFCookie = errors.New("missing CSRF cookie")
	ErrMissingCSRFToken  = errors.New("missing CSRF token in request")
	ErrCSRFMismatch      = errors.New("CSRF token mismatch")
)

// GenerateCSRFToken returns a base64url-encoded 32-byte random token.
func GenerateCSRFToken() (string, error) {
	b := make([]byte, CSRFTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SetCSRFCookie stores the token in a cookie readable by the browser client
// (double-submit pattern).
func SetCSRFCookie(w http.ResponseWriter, token string, isProduction bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// ValidateCSRF compares the X-CSRF-Token header with the CSRF cookie.
func ValidateCSRF(r *http.Request) error {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return ErrMissingCSRFCookie
	}

	header := r.Header.Get(CSRFHeaderName)
	if header == "" {
		return ErrMissingCSRFToken
	}

	if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
		return ErrCSRFMismatch
	}

	return nil
}

// IsMutating reports whether the method changes server state.
func IsMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
