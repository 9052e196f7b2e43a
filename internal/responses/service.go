package responses

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Service provides response and analytics operations
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new response service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Submit stores a response and bumps the form's submission counter in one
// transaction. The caller has already checked the form is published.
func (s *Service) Submit(ctx context.Context, formID uuid.UUID, answers, metadata map[string]any) (*Response, *Analytics, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var resp Response
	err = tx.QueryRow(ctx, `
		INSERT INTO form_responses (form_id, response_json, metadata)
		VALUES ($1, $2, $3)
		RETURNING id, form_id, response_json, metadata, created_at
	`, formID, answers, metadata).Scan(&resp.ID, &resp.FormID, &resp.ResponseJSON, &resp.Metadata, &resp.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert response: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO form_analytics (form_id) VALUES ($1)
		ON CONFLICT (form_id) DO NOTHING
	`, formID); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure analytics row: %w", err)
	}

	var stats Analytics
	if err := tx.QueryRow(ctx, `
		SELECT views, submissions FROM form_analytics WHERE form_id = $1 FOR UPDATE
	`, formID).Scan(&stats.Views, &stats.Submissions); err != nil {
		return nil, nil, fmt.Errorf("failed to lock analytics row: %w", err)
	}

	stats.Submissions++
	stats.CompletionRate = CompletionRate(stats.Submissions, stats.Views)

	if _, err := tx.Exec(ctx, `
		UPDATE form_analytics
		SET submissions = $2, completion_rate = $3, updated_at = NOW()
		WHERE form_id = $1
	`, formID, stats.Submissions, stats.CompletionRate); err != nil {
		return nil, nil, fmt.Errorf("failed to update analytics: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &resp, &stats, nil
}

// TrackView increments the view counter of a published form. It reports
// false, with no error, for missing or draft forms.
func (s *Service) TrackView(ctx context.Context, formID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO form_analytics (form_id, views)
		SELECT id, 1 FROM forms WHERE id = $1 AND status = 'PUBLISHED'
		ON CONFLICT (form_id) DO UPDATE
		SET views = form_analytics.views + 1, updated_at = NOW()
	`, formID)
	if err != nil {
		return false, fmt.Errorf("failed to track view: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ClampLimit bounds a requested page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// List returns a page of a form's responses, newest first.
func (s *Service) List(ctx context.Context, formID uuid.UUID, limit, offset int) ([]Response, error) {
	if offset < 0 {
		offset = 0
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, form_id, response_json, metadata, created_at
		FROM form_responses
		WHERE form_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, formID, ClampLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	list := []Response{}
	for rows.Next() {
		var resp Response
		if err := rows.Scan(&resp.ID, &resp.FormID, &resp.ResponseJSON, &resp.Metadata, &resp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		list = append(list, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating response rows: %w", err)
	}

	return list, nil
}

// GetAnalytics returns the counters for a form, zeros when none exist.
func (s *Service) GetAnalytics(ctx context.Context, formID uuid.UUID) (*Analytics, error) {
	var stats Analytics
	err := s.pool.QueryRow(ctx, `
		SELECT views, submissions, completion_rate
		FROM form_analytics
		WHERE form_id = $1
	`, formID).Scan(&stats.Views, &stats.Submissions, &stats.CompletionRate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Analytics{}, nil
		}
		return nil, fmt.Errorf("failed to get analytics: %w", err)
	}
	return &stats, nil
}
