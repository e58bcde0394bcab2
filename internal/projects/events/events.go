// Package events publishes project lifecycle events after their transaction
// commits and keeps a short per-project activity feed.
package events

import (
	"context"
	"time"

	"github.com/kanban-collab/kanban-backend/internal/projects/domain"
)

type Type string

const (
	ProjectCreated       Type = "project.created"
	ProjectUpdated       Type = "project.updated"
	ProjectDeleted       Type = "project.deleted"
	ProjectRestored      Type = "project.restored"
	ProjectArchived      Type = "project.archived"
	OwnershipTransferred Type = "project.ownership_transferred"
	MemberAdded          Type = "member.added"
	MemberRemoved        Type = "member.removed"
	MemberRoleChanged    Type = "member.role_changed"
)

// Event describes one committed lifecycle mutation.
type Event struct {
	Type         Type        `json:"type"`
	ProjectID    string      `json:"project_id"`
	ActorID      string      `json:"actor_id"`
	TargetUserID string      `json:"target_user_id,omitempty"`
	Role         domain.Role `json:"role,omitempty"`
	OccurredAt   time.Time   `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Feed reads back the latest events of a project, newest first.
type Feed interface {
	Recent(ctx context.Context, projectID string, limit int) ([]Event, error)
}

// Nop discards events and serves an empty feed. Used when Redis is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

func (Nop) Recent(context.Context, string, int) ([]Event, error) { return []Event{}, nil }

// Sink is a Publisher whose events can be read back.
type Sink interface {
	Publisher
	Feed
}

// Stream delivers a project's events live until ctx ends.
type Stream interface {
	Subscribe(ctx context.Context, projectID string) (<-chan Event, error)
}
