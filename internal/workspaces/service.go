package workspaces

import (
	"context"
	"errors"
	"fmt"

	"github.com/aliuyar1234/formforge/internal/db"
	"github.com/aliuyar1234/formforge/internal/orgs"
	"github.com/aliuyar1234/formforge/internal/validation"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	// ErrWorkspaceNotFound is returned when a workspace is not found
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrSlugConflict is returned when another workspace in the organization uses the slug
	ErrSlugConflict = errors.New("workspace slug already exists in organization")
)

// Service provides workspace operations
type Service struct {
	pool *pgxpool.Pool
	orgs *orgs.Service
}

// NewService creates a new workspace service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool, orgs: orgs.NewService(pool)}
}

const workspaceColumns = `id, org_id, name, slug, created_at, updated_at`

func scanWorkspace(row pgx.Row) (*Workspace, error) {
	var ws Workspace
	if err := row.Scan(&ws.ID, &ws.OrgID, &ws.Name, &ws.Slug, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
		return nil, err
	}
	return &ws, nil
}

// GetByID retrieves a workspace by ID
func (s *Service) GetByID(ctx context.Context, workspaceID uuid.UUID) (*Workspace, error) {
	ws, err := scanWorkspace(s.pool.QueryRow(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, workspaceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	return ws, nil
}

// CheckAccess loads a workspace and verifies the user holds at least
// required in its organization. A missing workspace is ErrWorkspaceNotFound;
// role failures are the orgs sentinels.
func (s *Service) CheckAccess(ctx context.Context, userID, workspaceID uuid.UUID, required orgs.OrgRole) (*Workspace, orgs.OrgRole, error) {
	ws, err := s.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, "", err
	}

	role, err := s.orgs.CheckOrgRole(ctx, userID, ws.OrgID, required)
	if err != nil {
		return nil, role, err
	}
	return ws, role, nil
}

// ListByOrg returns an organization's workspaces ordered by creation.
func (s *Service) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]Workspace, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+workspaceColumns+`
		FROM workspaces
		WHERE org_id = $1
		ORDER BY created_at ASC
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	defer rows.Close()

	list := []Workspace{}
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workspace: %w", err)
		}
		list = append(list, *ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workspace rows: %w", err)
	}

	return list, nil
}

// ListWithDefault returns the organization's workspaces, creating the
// DefaultName workspace at the front of the list when it does not exist.
func (s *Service) ListWithDefault(ctx context.Context, orgID uuid.UUID) ([]Workspace, error) {
	list, err := s.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if hasDefault(list) {
		return list, nil
	}

	ws, err := scanWorkspace(s.pool.QueryRow(ctx, `
		INSERT INTO workspaces (org_id, name, slug)
		VALUES ($1, $2, $3)
		ON CONFLICT (org_id, slug) DO NOTHING
		RETURNING `+workspaceColumns, orgID, DefaultName, validation.GenerateSlug(DefaultName, DefaultSlug)))
	if err != nil {
		// Another workspace already holds the default slug.
		if errors.Is(err, pgx.ErrNoRows) {
			return list, nil
		}
		return nil, fmt.Errorf("failed to create default workspace: %w", err)
	}

	log.Info().
		Str("org_id", orgID.String()).
		Str("workspace_id", ws.ID.String()).
		Msg("Created default workspace")

	return append([]Workspace{*ws}, list...), nil
}

// Create creates a workspace. A slug already used in the organization
// returns ErrSlugConflict.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, name string) (*Workspace, error) {
	slug := validation.GenerateSlug(name, DefaultSlug)

	ws, err := scanWorkspace(s.pool.QueryRow(ctx, `
		INSERT INTO workspaces (org_id, name, slug)
		VALUES ($1, $2, $3)
		RETURNING `+workspaceColumns, orgID, name, slug))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrSlugConflict
		}
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return ws, nil
}

// Rename updates the name and slug of ws. An unchanged name is a no-op.
func (s *Service) Rename(ctx context.Context, ws *Workspace, name string) (*Workspace, error) {
	if name == "" || name == ws.Name {
		return ws, nil
	}

	updated, err := scanWorkspace(s.pool.QueryRow(ctx, `
		UPDATE workspaces
		SET name = $2, slug = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+workspaceColumns, ws.ID, name, validation.GenerateSlug(name, DefaultSlug)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkspaceNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, ErrSlugConflict
		}
		return nil, fmt.Errorf("failed to update workspace: %w", err)
	}
	return updated, nil
}

// Delete removes a workspace. Its forms are removed by cascade.
func (s *Service) Delete(ctx context.Context, workspaceID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkspaceNotFound
	}
	return nil
}
