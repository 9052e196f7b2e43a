package apikeys

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrTokenNotFound is returned when a token is not found
	ErrTokenNotFound = errors.New("API token not found")
)

// Service provides API token operations
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new API token service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

const tokenColumns = `id, user_id, name, token_hash, last_used_at, revoked_at, created_at`

func scanToken(row pgx.Row) (*Token, error) {
	var t Token
	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.TokenHash, &t.LastUsedAt, &t.RevokedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create issues a new token for userID and returns it with the plaintext value.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, name string) (*Token, string, error) {
	plaintext, hash, err := GenerateToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	token, err := scanToken(s.pool.QueryRow(ctx, `
		INSERT INTO api_tokens (user_id, name, token_hash)
		VALUES ($1, $2, $3)
		RETURNING `+tokenColumns, userID, name, hash))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create API token: %w", err)
	}

	return token, plaintext, nil
}

// ListByUser returns a user's tokens, newest first.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]Token, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+tokenColumns+`
		FROM api_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list API tokens: %w", err)
	}
	defer rows.Close()

	tokens := []Token{}
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan API token: %w", err)
		}
		tokens = append(tokens, *token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating API token rows: %w", err)
	}

	return tokens, nil
}

// Revoke marks one of userID's tokens as revoked.
func (s *Service) Revoke(ctx context.Context, userID, tokenID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE api_tokens
		SET revoked_at = NOW()
		WHERE id = $1 AND user_id = $2 AND revoked_at IS NULL
	`, tokenID, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke API token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// GetByTokenHash looks a token up for authentication.
func (s *Service) GetByTokenHash(ctx context.Context, hash []byte) (*Token, error) {
	token, err := scanToken(s.pool.QueryRow(ctx, `
		SELECT `+tokenColumns+`
		FROM api_tokens
		WHERE token_hash = $1
	`, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get API token by hash: %w", err)
	}
	return token, nil
}

// UpdateLastUsed stamps last_used_at.
func (s *Service) UpdateLastUsed(ctx context.Context, tokenID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `UPDATE api_tokens SET last_used_at = NOW() WHERE id = $1`, tokenID); err != nil {
		return fmt.Errorf("failed to update last used: %w", err)
	}
	return nil
}
