package repository

import (
	"context"

	"github.com/kanban-collab/kanban-backend/internal/projects/domain"
)

// TxFunc is the unit of work executed inside a store transaction.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is the transactional boundary shared by the Project Store and the
// Membership Store. Every lifecycle operation runs inside exactly one call.
type Store interface {
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn TxFunc) error
	// Update runs fn in a read-write transaction. Any error returned by fn
	// rolls back every write made through tx.
	Update(ctx context.Context, fn TxFunc) error
}

// Tx exposes both stores bound to one transaction.
type Tx interface {
	Projects() ProjectRepository
	Memberships() MembershipRepository
}

// ProjectRepository is the Project Store.
//
// Get and GetIncludingDeleted are the two lookup views: the default view
// hides soft-deleted projects, the other is reserved for restore. Inside
// Update both lock the returned row until commit.
type ProjectRepository interface {
	Create(ctx context.Context, p *domain.Project) error
	Get(ctx context.Context, id string) (*domain.Project, error)
	GetIncludingDeleted(ctx context.Context, id string) (*domain.Project, error)
	Save(ctx context.Context, p *domain.Project) error
	ListForMember(ctx context.Context, userID string, q domain.ListQuery) ([]domain.Project, int, error)
}

// MembershipRepository is the Membership Store. (project_id, user_id) is unique.
type MembershipRepository interface {
	Create(ctx context.Context, m *domain.Membership) error
	// Get locks the membership row inside Update.
	Get(ctx context.Context, projectID, userID string) (*domain.Membership, error)
	List(ctx context.Context, projectID string) ([]domain.Membership, error)
	SetRole(ctx context.Context, id string, role domain.Role) error
	Delete(ctx context.Context, id string) error
}
