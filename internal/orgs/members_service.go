package orgs

import (
	"context"
	"errors"
	"fmt"

	"github.com/aliuyar1234/formforge/internal/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// adminManageable reports whether an ADMIN may assign or modify role.
// Only owners can hand out or touch ADMIN and OWNER.
func adminManageable(role OrgRole) bool {
	return role == RoleViewer || role == RoleEditor
}

// AddMember adds an existing user to the organization with role. The actor
// must be ADMIN or OWNER; admins can only add viewers and editors.
func (s *Service) AddMember(ctx context.Context, orgID, actorUserID, targetUserID uuid.UUID, role OrgRole) error {
	if !role.IsValid() {
		return ErrInvalidOrgRole
	}

	actorRole, err := s.CheckOrgRole(ctx, actorUserID, orgID, RoleAdmin)
	if err != nil {
		return err
	}
	if actorRole == RoleAdmin && !adminManageable(role) {
		return ErrInsufficientPermissions
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO org_members (org_id, user_id, role)
		VALUES ($1, $2, $3)
	`, orgID, targetUserID, role)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrAlreadyMember
		}
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

func lockActorAndTarget(ctx context.Context, tx pgx.Tx, orgID, actorUserID, targetUserID uuid.UUID) (actorRole, targetRole OrgRole, err error) {
	if err := tx.QueryRow(ctx, `
		SELECT role
		FROM org_members
		WHERE org_id = $1 AND user_id = $2
	`, orgID, actorUserID).Scan(&actorRole); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", ErrNotMember
		}
		return "", "", fmt.Errorf("failed to load actor role: %w", err)
	}
	if !actorRole.CanManageMembers() {
		return actorRole, "", ErrInsufficientPermissions
	}

	if err := tx.QueryRow(ctx, `
		SELECT role
		FROM org_members
		WHERE org_id = $1 AND user_id = $2
		FOR UPDATE
	`, orgID, targetUserID).Scan(&targetRole); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return actorRole, "", ErrMemberNotFound
		}
		return actorRole, "", fmt.Errorf("failed to load member role: %w", err)
	}

	return actorRole, targetRole, nil
}

func countOwnersForUpdate(ctx context.Context, tx pgx.Tx, orgID uuid.UUID) (int, error) {
	rows, err := tx.Query(ctx, `
		SELECT user_id
		FROM org_members
		WHERE org_id = $1 AND role = $2
		FOR UPDATE
	`, orgID, RoleOwner)
	if err != nil {
		return 0, fmt.Errorf("failed to lock owners: %w", err)
	}
	defer rows.Close()

	owners := 0
	for rows.Next() {
		owners++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to lock owners: %w", err)
	}
	return owners, nil
}

// UpdateMemberRole changes a member's role and returns the previous one.
func (s *Service) UpdateMemberRole(ctx context.Context, orgID, actorUserID, targetUserID uuid.UUID, newRole OrgRole) (previousRole OrgRole, err error) {
	if !newRole.IsValid() {
		return "", ErrInvalidOrgRole
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	actorRole, currentRole, err := lockActorAndTarget(ctx, tx, orgID, actorUserID, targetUserID)
	if err != nil {
		return "", err
	}

	if actorRole == RoleAdmin {
		if !adminManageable(newRole) {
			return "", ErrInsufficientPermissions
		}
		if targetUserID != actorUserID && !adminManageable(currentRole) {
			return "", ErrInsufficientPermissions
		}
	}

	if currentRole == RoleOwner && newRole != RoleOwner {
		owners, err := countOwnersForUpdate(ctx, tx, orgID)
		if err != nil {
			return "", err
		}
		if owners <= 1 {
			return "", ErrCannotDemoteLastOwner
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE org_members
		SET role = $3, updated_at = NOW()
		WHERE org_id = $1 AND user_id = $2
	`, orgID, targetUserID, newRole); err != nil {
		return "", fmt.Errorf("failed to update member role: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return currentRole, nil
}

// RemoveMember deletes a membership and returns the removed role.
func (s *Service) RemoveMember(ctx context.Context, orgID, actorUserID, targetUserID uuid.UUID) (removedRole OrgRole, err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	actorRole, targetRole, err := lockActorAndTarget(ctx, tx, orgID, actorUserID, targetUserID)
	if err != nil {
		return "", err
	}

	if actorRole == RoleAdmin && targetUserID != actorUserID && !adminManageable(targetRole) {
		return "", ErrInsufficientPermissions
	}

	if targetRole == RoleOwner {
		owners, err := countOwnersForUpdate(ctx, tx, orgID)
		if err != nil {
			return "", err
		}
		if owners <= 1 {
			return "", ErrCannotRemoveLastOwner
		}
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM org_members
		WHERE org_id = $1 AND user_id = $2
	`, orgID, targetUserID)
	if err != nil {
		return "", fmt.Errorf("failed to remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", ErrMemberNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return targetRole, nil
}
