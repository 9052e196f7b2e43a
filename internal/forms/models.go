package forms

import (
	"time"

	"github.com/google/uuid"
)

// Status is the publish state of a form
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
)

// IsValid reports whether s is DRAFT or PUBLISHED.
func (s Status) IsValid() bool {
	return s == StatusDraft || s == StatusPublished
}

// DefaultSlug is used when a form name yields an empty slug.
const DefaultSlug = "form"

// Form is a stored form together with the organization that owns its workspace.
type Form struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	OrgID       uuid.UUID  `json:"org_id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Schema      Schema     `json:"schema_json"`
	Status      Status     `json:"status"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsPublished reports whether the form accepts public traffic.
func (f *Form) IsPublished() bool {
	return f.Status == StatusPublished
}

// WorkspaceRef is the workspace part of a cross-workspace listing.
type WorkspaceRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Summary is a form without its schema, used in listings.
type Summary struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Slug      string        `json:"slug"`
	Status    Status        `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Workspace *WorkspaceRef `json:"workspace,omitempty"`
}

// PublicForm is what anonymous visitors receive.
type PublicForm struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Slug   string    `json:"slug"`
	Schema Schema    `json:"schema_json"`
	Status Status    `json:"status"`
}

// ToPublic strips internal fields from f.
func (f *Form) ToPublic() PublicForm {
	return PublicForm{ID: f.ID, Name: f.Name, Slug: f.Slug, Schema: f.Schema, Status: f.Status}
}
