package apikey

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aliuyar1234/formforge/internal/apikeys"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrMissingAPIKey is returned when no bearer token is provided
	ErrMissingAPIKey = errors.New("missing API key in Authorization header")

	// ErrMalformedHeader is returned when the Authorization header is not "Bearer <token>"
	ErrMalformedHeader = errors.New("invalid Authorization header format, expected 'Bearer <token>'")

	// ErrInvalidAPIKey is returned when the token is unknown or malformed
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrRevokedAPIKey is returned when the token has been revoked
	ErrRevokedAPIKey = errors.New("API key has been revoked")
)

// ExtractAPIKey extracts the token from "Authorization: Bearer <token>".
func ExtractAPIKey(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingAPIKey
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", ErrMalformedHeader
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingAPIKey
	}
	return token, nil
}

// ValidateAPIKey resolves a plaintext token to its stored record.
func ValidateAPIKey(ctx context.Context, pool *pgxpool.Pool, token string) (*apikeys.Token, error) {
	if !apikeys.ValidateTokenFormat(token) {
		return nil, ErrInvalidAPIKey
	}

	stored, err := apikeys.NewService(pool).GetByTokenHash(ctx, apikeys.HashToken(token))
	if err != nil {
		if errors.Is(err, apikeys.ErrTokenNotFound) {
			return nil, ErrInvalidAPIKey
		}
		return nil, fmt.Errorf("failed to validate API key: %w", err)
	}

	if stored.IsRevoked() {
		return nil, ErrRevokedAPIKey
	}

	return stored, nil
}
