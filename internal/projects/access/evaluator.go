// Package access decides whether an actor may act on a project, based solely
// on the actor's membership in that project.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/kanban-collab/kanban-backend/internal/projects/domain"
	"github.com/kanban-collab/kanban-backend/internal/projects/repository"
)

// MembershipReader is the slice of the Membership Store the evaluator needs.
type MembershipReader interface {
	Get(ctx context.Context, projectID, userID string) (*domain.Membership, error)
}

// Authorize returns the actor's membership when its role is in required.
// It has no side effects; inside a read-write transaction the membership row
// stays locked until commit.
func Authorize(ctx context.Context, members MembershipReader, projectID, actorID string, required domain.RoleSet) (*domain.Membership, error) {
	m, err := members.Get(ctx, projectID, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotAMember
		}
		return nil, err
	}
	if !required.Contains(m.Role) {
		return nil, fmt.Errorf("%w: role %q may not perform this action", domain.ErrInsufficientRole, m.Role)
	}
	return m, nil
}

// Evaluator runs Authorize in its own read-only transaction, for callers
// outside the lifecycle manager (tasks, activity feed).
type Evaluator struct {
	store repository.Store
}

func NewEvaluator(store repository.Store) *Evaluator {
	return &Evaluator{store: store}
}

func (e *Evaluator) Authorize(ctx context.Context, projectID, actorID string, required domain.RoleSet) (*domain.Membership, error) {
	var out *domain.Membership
	err := e.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		m, err := Authorize(ctx, tx.Memberships(), projectID, actorID, required)
		if err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, domain.Storage(err)
	}
	return out, nil
}

// AuthorizeActive additionally requires the project to be visible in the
// default (non-deleted) view, and returns it.
func (e *Evaluator) AuthorizeActive(ctx context.Context, projectID, actorID string, required domain.RoleSet) (*domain.Project, *domain.Membership, error) {
	var (
		project    *domain.Project
		membership *domain.Membership
	)
	err := e.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		p, err := tx.Projects().Get(ctx, projectID)
		if err != nil {
			return err
		}
		m, err := Authorize(ctx, tx.Memberships(), projectID, actorID, required)
		if err != nil {
			return err
		}
		project, membership = p, m
		return nil
	})
	if err != nil {
		return nil, nil, domain.Storage(err)
	}
	return project, membership, nil
}
