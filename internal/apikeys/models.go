package apikeys

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Token is a personal API token that authenticates as its owner.
type Token struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Name       string
	TokenHash  []byte
	LastUsedAt sql.NullTime
	RevokedAt  sql.NullTime
	CreatedAt  time.Time
}

// IsRevoked returns true if the token has been revoked
func (t *Token) IsRevoked() bool {
	return t.RevokedAt.Valid
}

type TokenCreatedResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

type TokenListItemResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

func (t *Token) ToCreatedResponse(plaintext string) TokenCreatedResponse {
	return TokenCreatedResponse{
		ID:        t.ID,
		Name:      t.Name,
		Token:     plaintext,
		CreatedAt: t.CreatedAt,
	}
}

func (t *Token) ToListItemResponse() TokenListItemResponse {
	resp := TokenListItemResponse{
		ID:        t.ID,
		Name:      t.Name,
		CreatedAt: t.CreatedAt,
	}
	if t.RevokedAt.Valid {
		resp.RevokedAt = &t.RevokedAt.Time
	}
	if t.LastUsedAt.Valid {
		resp.LastUsedAt = &t.LastUsedAt.Time
	}
	return resp
}
