package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aliuyar1234/formforge/internal/db"
	"github.com/aliuyar1234/formforge/internal/usage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrEmailTaken is returned when signing up with a registered email
	ErrEmailTaken = errors.New("email address already registered")

	// ErrInvalidCredentials is returned for an unknown email or a wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is returned when a user lookup finds nothing
	ErrUserNotFound = errors.New("user not found")
)

// User is an account.
type User struct {
	ID                 uuid.UUID
	Email              string
	PasswordHash       string
	SubscriptionPlan   string
	SubscriptionStatus *string
	AIUsageCount       int
	Credits            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Plan returns the plan the user is currently billed on.
func (u *User) Plan() usage.Plan {
	return usage.EffectivePlan(u.SubscriptionPlan, u.SubscriptionStatus)
}

// UserResponse is the public representation of a user.
type UserResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Email              string     `json:"email"`
	SubscriptionPlan   string     `json:"subscription_plan"`
	SubscriptionStatus *string    `json:"subscription_status"`
	EffectivePlan      usage.Plan `json:"effective_plan"`
	AIUsageCount       int        `json:"ai_usage_count"`
	AIUsageLimit       int        `json:"ai_usage_limit"`
	Credits            int        `json:"credits"`
	CreatedAt          time.Time  `json:"created_at"`
}

// ToResponse converts a user to its API representation.
func (u *User) ToResponse() UserResponse {
	plan := u.Plan()
	return UserResponse{
		ID:                 u.ID,
		Email:              u.Email,
		SubscriptionPlan:   u.SubscriptionPlan,
		SubscriptionStatus: u.SubscriptionStatus,
		EffectivePlan:      plan,
		AIUsageCount:       u.AIUsageCount,
		AIUsageLimit:       plan.Limit(),
		Credits:            u.Credits,
		CreatedAt:          u.CreatedAt,
	}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Service provides user account operations
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new user service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

const userColumns = `id, email, password_hash, subscription_plan, subscription_status,
	ai_usage_count, credits, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.SubscriptionPlan,
		&u.SubscriptionStatus,
		&u.AIUsageCount,
		&u.Credits,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser registers a new account on the free plan.
func (s *Service) CreateUser(ctx context.Context, email, password string) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING `+userColumns, NormalizeEmail(email), hash))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate returns the user when email and password match.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetByID loads a user by id.
func (s *Service) GetByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByEmail loads a user by email (case-insensitive).
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = $1`, NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// SetPassword replaces the password of the user with the given email.
func (s *Service) SetPassword(ctx context.Context, email, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE LOWER(email) = $1
	`, NormalizeEmail(email), hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
