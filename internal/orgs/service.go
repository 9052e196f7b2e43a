package orgs

import (
	"context"
	"errors"
	"fmt"

	"github.com/aliuyar1234/formforge/internal/db"
	"github.com/aliuyar1234/formforge/internal/validation"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	// ErrOrgNotFound is returned when an organization is not found
	ErrOrgNotFound = errors.New("organization not found")

	// ErrSlugConflict is returned when another organization already uses the slug
	ErrSlugConflict = errors.New("organization slug already exists")

	// ErrNotMember is returned when a user is not a member of an organization
	ErrNotMember = errors.New("user is not a member of this organization")

	// ErrInsufficientPermissions is returned when a user lacks required permissions
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)

// DefaultSlug is used when an organization name yields an empty slug.
const DefaultSlug = "organization"

// Service provides organization-related operations
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new organization service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

const orgColumns = `id, name, slug, created_by_user_id, created_at, updated_at`

func scanOrg(row pgx.Row) (*Org, error) {
	var org Org
	if err := row.Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedByUserID, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return nil, err
	}
	return &org, nil
}

// GetByID retrieves an organization by ID
func (s *Service) GetByID(ctx context.Context, orgID uuid.UUID) (*Org, error) {
	org, err := scanOrg(s.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM orgs WHERE id = $1`, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrgNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

// ListUserOrgs returns the user's organizations in the order they joined.
func (s *Service) ListUserOrgs(ctx context.Context, userID uuid.UUID) ([]OrgWithRole, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT o.id, o.name, o.slug, o.created_by_user_id, o.created_at, o.updated_at, m.role
		FROM orgs o
		INNER JOIN org_members m ON o.id = m.org_id
		WHERE m.user_id = $1
		ORDER BY m.created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user orgs: %w", err)
	}
	defer rows.Close()

	orgs := []OrgWithRole{}
	for rows.Next() {
		var org OrgWithRole
		err := rows.Scan(
			&org.ID,
			&org.Name,
			&org.Slug,
			&org.CreatedByUserID,
			&org.CreatedAt,
			&org.UpdatedAt,
			&org.Role,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan org: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating org rows: %w", err)
	}

	return orgs, nil
}

// EnsureUserOrg returns the user's organizations, first creating a personal
// one named after their email when they belong to none.
func (s *Service) EnsureUserOrg(ctx context.Context, userID uuid.UUID, email string) ([]OrgWithRole, bool, error) {
	orgs, err := s.ListUserOrgs(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if len(orgs) > 0 {
		return orgs, false, nil
	}

	org, err := s.CreateWithOwner(ctx, email, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create personal organization: %w", err)
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("org_id", org.ID.String()).
		Msg("Created personal organization")

	return []OrgWithRole{{Org: *org, Role: RoleOwner}}, true, nil
}

func (s *Service) slugTaken(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orgs WHERE slug = $1)`, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check organization slug: %w", err)
	}
	return exists, nil
}

// CreateWithOwner creates an organization with a deduplicated slug derived
// from name and makes userID its OWNER in the same transaction.
func (s *Service) CreateWithOwner(ctx context.Context, name string, userID uuid.UUID) (*Org, error) {
	slug, err := validation.UniqueSlug(ctx, validation.GenerateSlug(name, DefaultSlug), s.slugTaken)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	org, err := scanOrg(tx.QueryRow(ctx, `
		INSERT INTO orgs (name, slug, created_by_user_id)
		VALUES ($1, $2, $3)
		RETURNING `+orgColumns, name, slug, userID))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrSlugConflict
		}
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO org_members (org_id, user_id, role)
		VALUES ($1, $2, $3)
	`, org.ID, userID, RoleOwner); err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return org, nil
}

// Rename changes the name and slug of an organization. A slug held by a
// different organization returns ErrSlugConflict.
func (s *Service) Rename(ctx context.Context, orgID uuid.UUID, name string) (*Org, error) {
	slug := validation.GenerateSlug(name, DefaultSlug)

	var holder uuid.UUID
	err := s.pool.QueryRow(ctx, `SELECT id FROM orgs WHERE slug = $1`, slug).Scan(&holder)
	if err == nil && holder != orgID {
		return nil, ErrSlugConflict
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check organization slug: %w", err)
	}

	org, err := scanOrg(s.pool.QueryRow(ctx, `
		UPDATE orgs
		SET name = $2, slug = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+orgColumns, orgID, name, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrgNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, ErrSlugConflict
		}
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	return org, nil
}

// ListMembers retrieves all members of an organization
func (s *Service) ListMembers(ctx context.Context, orgID uuid.UUID) ([]MemberInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.user_id, u.email, m.role, m.created_at
		FROM org_members m
		INNER JOIN users u ON m.user_id = u.id
		WHERE m.org_id = $1
		ORDER BY m.created_at ASC
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := []MemberInfo{}
	for rows.Next() {
		var member MemberInfo
		if err := rows.Scan(&member.UserID, &member.Email, &member.Role, &member.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}

	return members, nil
}

// CheckOrgRole verifies that a user has at least requiredRole in an
// organization and returns their actual role. It returns ErrNotMember when
// there is no membership and ErrInsufficientPermissions when the role ranks
// too low. There is no caching and no inheritance beyond direct membership.
func (s *Service) CheckOrgRole(ctx context.Context, userID, orgID uuid.UUID, requiredRole OrgRole) (OrgRole, error) {
	var role OrgRole
	err := s.pool.QueryRow(ctx, `
		SELECT role FROM org_members
		WHERE org_id = $1 AND user_id = $2
	`, orgID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug().
				Str("user_id", userID.String()).
				Str("org_id", orgID.String()).
				Msg("RBAC: User is not a member of organization")
			return "", ErrNotMember
		}
		return "", fmt.Errorf("failed to check org membership: %w", err)
	}

	if !role.AtLeast(requiredRole) {
		log.Warn().
			Str("user_id", userID.String()).
			Str("org_id", orgID.String()).
			Str("user_role", string(role)).
			Str("required_role", string(requiredRole)).
			Msg("RBAC: Insufficient permissions")
		return role, ErrInsufficientPermissions
	}

	return role, nil
}
