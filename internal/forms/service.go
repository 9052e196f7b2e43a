package forms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aliuyar1234/formforge/internal/db"
	"github.com/aliuyar1234/formforge/internal/orgs"
	"github.com/aliuyar1234/formforge/internal/validation"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrFormNotFound is returned when a form is not found
	ErrFormNotFound = errors.New("form not found")

	// ErrSlugConflict is returned when a concurrent writer claimed the slug first
	ErrSlugConflict = errors.New("form slug already exists")
)

// Service provides form operations
type Service struct {
	pool *pgxpool.Pool
	orgs *orgs.Service
	now  func() time.Time
}

// NewService creates a new form service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool, orgs: orgs.NewService(pool), now: time.Now}
}

const formColumns = `f.id, f.workspace_id, w.org_id, f.name, f.slug, f.schema_json, f.status, f.published_at, f.created_at, f.updated_at`

// formSelect reads from a relation named f joined to its workspace.
const formSelect = `SELECT ` + formColumns + ` FROM f JOIN workspaces w ON w.id = f.workspace_id`

func scanForm(row pgx.Row) (*Form, error) {
	var form Form
	err := row.Scan(
		&form.ID,
		&form.WorkspaceID,
		&form.OrgID,
		&form.Name,
		&form.Slug,
		&form.Schema,
		&form.Status,
		&form.PublishedAt,
		&form.CreatedAt,
		&form.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if form.Schema.Fields == nil {
		form.Schema.Fields = []Field{}
	}
	return &form, nil
}

func (s *Service) getOne(ctx context.Context, where string, arg any) (*Form, error) {
	form, err := scanForm(s.pool.QueryRow(ctx, `
		SELECT `+formColumns+`
		FROM forms f
		JOIN workspaces w ON w.id = f.workspace_id
		WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	return form, nil
}

// GetByID retrieves a form by ID
func (s *Service) GetByID(ctx context.Context, formID uuid.UUID) (*Form, error) {
	return s.getOne(ctx, `f.id = $1`, formID)
}

// GetBySlug retrieves a form by its globally unique slug
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Form, error) {
	return s.getOne(ctx, `f.slug = $1`, slug)
}

// CheckAccess loads a form and verifies the user holds at least required
// in the owning organization. A missing form is reported before membership.
func (s *Service) CheckAccess(ctx context.Context, userID, formID uuid.UUID, required orgs.OrgRole) (*Form, error) {
	form, err := s.GetByID(ctx, formID)
	if err != nil {
		return nil, err
	}
	if _, err := s.orgs.CheckOrgRole(ctx, userID, form.OrgID, required); err != nil {
		return nil, err
	}
	return form, nil
}

// VisibleTo reports whether userID may see form through the public
// endpoints: everyone sees published forms, members of the owning
// organization also see drafts. userID is uuid.Nil for anonymous callers.
func (s *Service) VisibleTo(ctx context.Context, form *Form, userID uuid.UUID) (bool, error) {
	if form.IsPublished() {
		return true, nil
	}
	if userID == uuid.Nil {
		return false, nil
	}

	_, err := s.orgs.CheckOrgRole(ctx, userID, form.OrgID, orgs.RoleViewer)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, orgs.ErrNotMember) {
		return false, nil
	}
	return false, err
}

// assignSlug derives a slug from name that is unique across all forms
// other than excludeID. If the workspace still holds it, a base36
// millisecond suffix is appended.
func (s *Service) assignSlug(ctx context.Context, workspaceID uuid.UUID, name string, excludeID uuid.UUID) (string, error) {
	taken := func(ctx context.Context, slug string) (bool, error) {
		var exists bool
		err := s.pool.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM forms WHERE slug = $1 AND id <> $2)
		`, slug, excludeID).Scan(&exists)
		if err != nil {
			return false, fmt.Errorf("failed to check form slug: %w", err)
		}
		return exists, nil
	}

	slug, err := validation.UniqueSlug(ctx, validation.GenerateSlug(name, DefaultSlug), taken)
	if err != nil {
		return "", err
	}

	var clash bool
	err = s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM forms WHERE workspace_id = $1 AND slug = $2 AND id <> $3)
	`, workspaceID, slug, excludeID).Scan(&clash)
	if err != nil {
		return "", fmt.Errorf("failed to check workspace form slug: %w", err)
	}
	if clash {
		slug += timestampSuffix(s.now())
	}

	return slug, nil
}

// Create inserts a DRAFT form into a workspace.
func (s *Service) Create(ctx context.Context, workspaceID uuid.UUID, name string, schema Schema) (*Form, error) {
	slug, err := s.assignSlug(ctx, workspaceID, name, uuid.Nil)
	if err != nil {
		return nil, err
	}

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to encode form schema: %w", err)
	}

	form, err := scanForm(s.pool.QueryRow(ctx, `
		WITH f AS (
			INSERT INTO forms (workspace_id, name, slug, schema_json, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING *
		)
		`+formSelect, workspaceID, name, slug, schemaJSON, StatusDraft))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrSlugConflict
		}
		return nil, fmt.Errorf("failed to create form: %w", err)
	}

	return form, nil
}

// ListByWorkspace returns form summaries for a workspace, most recently
// updated first.
func (s *Service) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]Summary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, slug, status, created_at, updated_at
		FROM forms
		WHERE workspace_id = $1
		ORDER BY updated_at DESC
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	defer rows.Close()

	list := []Summary{}
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.Name, &sm.Slug, &sm.Status, &sm.CreatedAt, &sm.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan form: %w", err)
		}
		list = append(list, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating form rows: %w", err)
	}

	return list, nil
}

// ListForUser returns every form in every organization the user belongs
// to. A non-empty search keeps forms whose name or workspace name contains
// it, case-insensitively.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, search string) ([]Summary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT f.id, f.name, f.slug, f.status, f.created_at, f.updated_at, w.id, w.name
		FROM forms f
		JOIN workspaces w ON w.id = f.workspace_id
		JOIN org_members m ON m.org_id = w.org_id
		WHERE m.user_id = $1
		  AND ($2 = '' OR strpos(LOWER(f.name), LOWER($2)) > 0 OR strpos(LOWER(w.name), LOWER($2)) > 0)
		ORDER BY f.updated_at DESC
	`, userID, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	defer rows.Close()

	list := []Summary{}
	for rows.Next() {
		var sm Summary
		var ws WorkspaceRef
		if err := rows.Scan(&sm.ID, &sm.Name, &sm.Slug, &sm.Status, &sm.CreatedAt, &sm.UpdatedAt, &ws.ID, &ws.Name); err != nil {
			return nil, fmt.Errorf("failed to scan form: %w", err)
		}
		sm.Workspace = &ws
		list = append(list, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating form rows: %w", err)
	}

	return list, nil
}

// Update applies a rename and/or a schema replacement. A rename to a new
// name re-slugs the form; nil arguments leave the column unchanged.
func (s *Service) Update(ctx context.Context, form *Form, name *string, schema *Schema) (*Form, error) {
	var newName, newSlug *string
	if name != nil && *name != "" && *name != form.Name {
		slug, err := s.assignSlug(ctx, form.WorkspaceID, *name, form.ID)
		if err != nil {
			return nil, err
		}
		newName, newSlug = name, &slug
	}

	var schemaJSON []byte
	if schema != nil {
		var err error
		schemaJSON, err = json.Marshal(schema)
		if err != nil {
			return nil, fmt.Errorf("failed to encode form schema: %w", err)
		}
	}

	updated, err := scanForm(s.pool.QueryRow(ctx, `
		WITH f AS (
			UPDATE forms
			SET name = COALESCE($2, name),
			    slug = COALESCE($3, slug),
			    schema_json = COALESCE($4::jsonb, schema_json),
			    updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)
		`+formSelect, form.ID, newName, newSlug, schemaJSON))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFormNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, ErrSlugConflict
		}
		return nil, fmt.Errorf("failed to update form: %w", err)
	}

	return updated, nil
}

// SetStatus moves a form between DRAFT and PUBLISHED. Publishing stamps
// published_at; returning to DRAFT clears it.
func (s *Service) SetStatus(ctx context.Context, formID uuid.UUID, status Status) (*Form, error) {
	var publishedAt *time.Time
	if status == StatusPublished {
		now := s.now().UTC()
		publishedAt = &now
	}

	form, err := scanForm(s.pool.QueryRow(ctx, `
		WITH f AS (
			UPDATE forms
			SET status = $2, published_at = $3, updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)
		`+formSelect, formID, status, publishedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to update form status: %w", err)
	}

	return form, nil
}

// Delete removes a form with its responses and analytics.
func (s *Service) Delete(ctx context.Context, formID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM forms WHERE id = $1`, formID)
	if err != nil {
		return fmt.Errorf("failed to delete form: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFormNotFound
	}
	return nil
}
