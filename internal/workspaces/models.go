package workspaces

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultName is the workspace every organization is guaranteed to have.
	DefaultName = "My Workspace"

	// DefaultSlug is used when a workspace name yields an empty slug.
	DefaultSlug = "workspace"
)

// Workspace groups forms inside an organization
type Workspace struct {
	ID        uuid.UUID `json:"id"`
	OrgID     uuid.UUID `json:"org_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// hasDefault reports whether list contains a workspace named DefaultName.
func hasDefault(list []Workspace) bool {
	for _, ws := range list {
		if ws.Name == DefaultName {
			return true
		}
	}
	return false
}
