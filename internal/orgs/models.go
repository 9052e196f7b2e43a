package orgs

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrgRole represents a user's role within an organization
type OrgRole string

const (
	RoleViewer OrgRole = "VIEWER"
	RoleEditor OrgRole = "EDITOR"
	RoleAdmin  OrgRole = "ADMIN"
	RoleOwner  OrgRole = "OWNER"
)

var roleRank = map[OrgRole]int{
	RoleViewer: 0,
	RoleEditor: 1,
	RoleAdmin:  2,
	RoleOwner:  3,
}

// IsValid reports whether r is one of the four known roles.
func (r OrgRole) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks at or above required.
func (r OrgRole) AtLeast(required OrgRole) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	return have >= roleRank[required]
}

// CanManageMembers returns true for OWNER and ADMIN.
func (r OrgRole) CanManageMembers() bool {
	return r.AtLeast(RoleAdmin)
}

// InsufficientRoleMessage is the 403 message for a failed role check.
func InsufficientRoleMessage(required OrgRole) string {
	return fmt.Sprintf("You need at least %s role to perform this action", required)
}

// Org represents an organization in the system
type Org struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	CreatedByUserID uuid.UUID `json:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// OrgWithRole combines org information with the user's role
type OrgWithRole struct {
	Org
	Role OrgRole `json:"role"`
}

// MemberInfo represents a member of an organization with their details
type MemberInfo struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Role      OrgRole   `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
