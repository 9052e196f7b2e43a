package usage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	// ErrLimitReached is returned when a user has used up the AI requests of their plan
	ErrLimitReached = errors.New("AI usage limit reached")

	// ErrUserNotFound is returned when the user does not exist
	ErrUserNotFound = errors.New("user not found")
)

// Kind identifies what an AI request was used for.
type Kind string

const (
	KindGenerate Kind = "generate"
	KindModify   Kind = "modify"
)

// Status is a snapshot of a user's AI quota.
type Status struct {
	Plan  Plan `json:"plan"`
	Used  int  `json:"used"`
	Limit int  `json:"limit"`
}

// Remaining returns how many requests are left, never negative.
func (s Status) Remaining() int {
	if s.Used >= s.Limit {
		return 0
	}
	return s.Limit - s.Used
}

// LimitMessage is the user-facing explanation for ErrLimitReached.
func (s Status) LimitMessage() string {
	if s.Plan == PlanFree {
		return fmt.Sprintf("AI features are disabled for free tier after %d uses. Please upgrade to unlock more AI requests.", s.Limit)
	}
	return fmt.Sprintf("You have used all %d AI requests included in the %s plan this month.", s.Limit, s.Plan)
}

// Gate checks and charges AI request quotas.
type Gate struct {
	pool *pgxpool.Pool
}

// NewGate creates a new usage gate
func NewGate(pool *pgxpool.Pool) *Gate {
	return &Gate{pool: pool}
}

// Check returns the user's quota status, or ErrLimitReached (with the status)
// when no requests remain. Check never changes the counter.
func (g *Gate) Check(ctx context.Context, userID uuid.UUID) (*Status, error) {
	var plan string
	var status *string
	var used int

	err := g.pool.QueryRow(ctx, `
		SELECT subscription_plan, subscription_status, ai_usage_count
		FROM users
		WHERE id = $1
	`, userID).Scan(&plan, &status, &used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load usage: %w", err)
	}

	effective := EffectivePlan(plan, status)
	st := &Status{Plan: effective, Used: used, Limit: effective.Limit()}
	if used >= st.Limit {
		log.Debug().
			Str("user_id", userID.String()).
			Str("plan", string(effective)).
			Int("used", used).
			Msg("AI usage limit reached")
		return st, ErrLimitReached
	}

	return st, nil
}

// Charge consumes one AI request. The increment only applies while the user
// is under their limit, so concurrent requests cannot overshoot it; the
// losing request gets ErrLimitReached. A ledger row is written in the same
// transaction.
func (g *Gate) Charge(ctx context.Context, userID uuid.UUID, kind Kind) (*Status, error) {
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var plan string
	var status *string
	err = tx.QueryRow(ctx, `
		SELECT subscription_plan, subscription_status
		FROM users
		WHERE id = $1
	`, userID).Scan(&plan, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	effective := EffectivePlan(plan, status)
	limit := effective.Limit()

	var used int
	err = tx.QueryRow(ctx, `
		UPDATE users
		SET ai_usage_count = ai_usage_count + 1, updated_at = NOW()
		WHERE id = $1 AND ai_usage_count < $2
		RETURNING ai_usage_count
	`, userID, limit).Scan(&used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Status{Plan: effective, Used: limit, Limit: limit}, ErrLimitReached
		}
		return nil, fmt.Errorf("failed to increment usage: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO ai_usage_ledger (user_id, kind)
		VALUES ($1, $2)
	`, userID, string(kind)); err != nil {
		return nil, fmt.Errorf("failed to write usage ledger: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("kind", string(kind)).
		Int("used", used).
		Int("limit", limit).
		Msg("AI request charged")

	return &Status{Plan: effective, Used: used, Limit: limit}, nil
}

// ResetMonthly zeroes the counters of users on an active paid plan.
// Free usage is lifetime and is left untouched.
func (g *Gate) ResetMonthly(ctx context.Context) (int64, error) {
	tag, err := g.pool.Exec(ctx, `
		UPDATE users
		SET ai_usage_count = 0, updated_at = NOW()
		WHERE subscription_plan IN ('hobby', 'pro')
		  AND subscription_status = $1
		  AND ai_usage_count > 0
	`, StatusActive)
	if err != nil {
		return 0, fmt.Errorf("failed to reset monthly usage: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SetPlan changes a user's subscription by email. An empty status clears it.
func (g *Gate) SetPlan(ctx context.Context, email string, plan Plan, status string) error {
	var statusArg *string
	if status != "" {
		statusArg = &status
	}

	tag, err := g.pool.Exec(ctx, `
		UPDATE users
		SET subscription_plan = $2, subscription_status = $3, updated_at = NOW()
		WHERE LOWER(email) = LOWER($1)
	`, strings.TrimSpace(email), string(plan), statusArg)
	if err != nil {
		return fmt.Errorf("failed to set plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
