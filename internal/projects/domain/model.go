package domain

import "time"

// Status is the workflow state of a project. It is orthogonal to the deletion flag.
type Status string

const (
	StatusActive    Status = "active"
	StatusArchived  Status = "archived"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusArchived, StatusCompleted:
		return true
	}
	return false
}

// Project is a collaboration space owned by exactly one user.
// It is storage-agnostic and used across repository, service and HTTP layers.
// OwnerID always matches the single membership holding RoleOwner.
type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	OwnerID     string     `json:"owner_id"`
	Status      Status     `json:"status"`
	IsDeleted   bool       `json:"is_deleted"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Membership binds a user to a project with a role.
type Membership struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}

// CreateProjectInput carries the fields accepted by Create.
type CreateProjectInput struct {
	Name        string
	Description *string
}

// ProjectPatch is a partial update. Nil fields are left untouched.
type ProjectPatch struct {
	Name        *string
	Description *string
	Status      *Status
}

func (p ProjectPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Status == nil
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListQuery selects a window of the actor's visible projects.
type ListQuery struct {
	Search string
	Limit  int
	Offset int
}

// Normalize clamps the pagination window to sane bounds.
func (q ListQuery) Normalize() ListQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// ProjectPage is one window of a project listing. Total ignores the window.
type ProjectPage struct {
	Items  []Project `json:"items"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}
