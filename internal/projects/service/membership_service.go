package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kanban-collab/kanban-backend/internal/projects/access"
	"github.com/kanban-collab/kanban-backend/internal/projects/domain"
	"github.com/kanban-collab/kanban-backend/internal/projects/events"
	"github.com/kanban-collab/kanban-backend/internal/projects/repository"
)

// TransferOwnership hands the project to newOwnerID. The previous owner is
// demoted to admin and the new owner's membership is created or promoted.
// All three writes commit together. Owner only.
func (s *ProjectService) TransferOwnership(ctx context.Context, actorID, projectID, newOwnerID string) (*domain.Project, error) {
	newOwnerID = strings.TrimSpace(newOwnerID)
	if newOwnerID == "" {
		return nil, domain.Validationf("new owner id is required")
	}

	var out *domain.Project
	err := s.update(ctx, func(ctx context.Context, tx repository.Tx) error {
		p, err := tx.Projects().Get(ctx, projectID)
		if err != nil {
			return err
		}
		if err := requireOwner(p, actorID, "transfer"); err != nil {
			return err
		}
		if newOwnerID == actorID {
			return fmt.Errorf("%w: user already owns this project", domain.ErrInvalidOperation)
		}

		members := tx.Memberships()
		previous, err := members.Get(ctx, projectID, actorID)
		if errors.Is(err, domain.ErrNotFound) {
			// owner_id without an owner row is a broken invariant, not a caller error
			return fmt.Errorf("owner membership missing for project %s", projectID)
		}
		if err != nil {
			return err
		}
		target, err := members.Get(ctx, projectID, newOwnerID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		// Demote first so there is never more than one owner row.
		if err := members.SetRole(ctx, previous.ID, domain.RoleAdmin); err != nil {
			return err
		}
		now := s.timestamp()
		if target == nil {
			err = members.Create(ctx, &domain.Membership{
				ID:        s.newID(),
				ProjectID: projectID,
				UserID:    newOwnerID,
				Role:      domain.RoleOwner,
				JoinedAt:  now,
			})
		} else {
			err = members.SetRole(ctx, target.ID, domain.RoleOwner)
		}
		if err != nil {
			return err
		}

		p.OwnerID = newOwnerID
		p.UpdatedAt = now
		out = p
		return tx.Projects().Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.Event{
		Type:         events.OwnershipTransferred,
		ProjectID:    projectID,
		ActorID:      actorID,
		TargetUserID: newOwnerID,
		Role:         domain.RoleOwner,
		OccurredAt:   out.UpdatedAt,
	})
	return out, nil
}

// AddMember grants targetID a non-owner role. Owners and admins only.
func (s *ProjectService) AddMember(ctx context.Context, actorID, projectID, targetID string, role domain.Role) (*domain.Membership, error) {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return nil, domain.Validationf("user id is required")
	}
	if role == "" {
		role = domain.RoleMember
	}
	if !role.Valid() {
		return nil, domain.Validationf("unknown role %q", role)
	}
	if role == domain.RoleOwner {
		return nil, fmt.Errorf("%w: ownership can only be granted by transfer", domain.ErrInvalidOperation)
	}

	var out *domain.Membership
	err := s.update(ctx, func(ctx context.Context, tx repository.Tx) error {
		// The project row lock serializes concurrent adds to the same project.
		if _, err := tx.Projects().Get(ctx, projectID); err != nil {
			return err
		}
		members := tx.Memberships()
		if _, err := access.Authorize(ctx, members, projectID, actorID, domain.ManagementRoles); err != nil {
			return err
		}

		_, err := members.Get(ctx, projectID, targetID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: user is already a member of this project", domain.ErrConflict)
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		m := &domain.Membership{
			ID:        s.newID(),
			ProjectID: projectID,
			UserID:    targetID,
			Role:      role,
			JoinedAt:  s.timestamp(),
		}
		if err := members.Create(ctx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.Event{
		Type:         events.MemberAdded,
		ProjectID:    projectID,
		ActorID:      actorID,
		TargetUserID: targetID,
		Role:         role,
		OccurredAt:   out.JoinedAt,
	})
	return out, nil
}

// RemoveMember deletes targetID's membership. The owner can never be removed;
// ownership has to be transferred first. Owners and admins only.
func (s *ProjectService) RemoveMember(ctx context.Context, actorID, projectID, targetID string) error {
	err := s.update(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.Projects().Get(ctx, projectID); err != nil {
			return err
		}
		members := tx.Memberships()
		if _, err := access.Authorize(ctx, members, projectID, actorID, domain.ManagementRoles); err != nil {
			return err
		}
		target, err := members.Get(ctx, projectID, targetID)
		if err != nil {
			return err
		}
		if target.Role == domain.RoleOwner {
			return fmt.Errorf("%w: the project owner cannot be removed; transfer ownership first", domain.ErrForbidden)
		}
		return members.Delete(ctx, target.ID)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, events.Event{
		Type:         events.MemberRemoved,
		ProjectID:    projectID,
		ActorID:      actorID,
		TargetUserID: targetID,
		OccurredAt:   s.timestamp(),
	})
	return nil
}

// ChangeMemberRole sets a non-owner member's role to another non-owner role.
// Owners and admins only, and never on themselves.
func (s *ProjectService) ChangeMemberRole(ctx context.Context, actorID, projectID, targetID string, role domain.Role) (*domain.Membership, error) {
	if !role.Valid() {
		return nil, domain.Validationf("unknown role %q", role)
	}

	var (
		out     *domain.Membership
		changed bool
	)
	err := s.update(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.Projects().Get(ctx, projectID); err != nil {
			return err
		}
		members := tx.Memberships()
		actor, err := access.Authorize(ctx, members, projectID, actorID, domain.ManagementRoles)
		if err != nil {
			return err
		}
		target, err := members.Get(ctx, projectID, targetID)
		if err != nil {
			return err
		}

		switch {
		case target.Role == domain.RoleOwner:
			return fmt.Errorf("%w: the owner's role can only change through ownership transfer", domain.ErrInvalidOperation)
		case role == domain.RoleOwner:
			return fmt.Errorf("%w: use ownership transfer to make a user owner", domain.ErrInvalidOperation)
		case actor.UserID == target.UserID:
			return fmt.Errorf("%w: members cannot change their own role", domain.ErrInvalidOperation)
		}

		out = target
		if target.Role == role {
			return nil
		}
		out.Role = role
		changed = true
		return members.SetRole(ctx, target.ID, role)
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return out, nil
	}

	s.emit(ctx, events.Event{
		Type:         events.MemberRoleChanged,
		ProjectID:    projectID,
		ActorID:      actorID,
		TargetUserID: targetID,
		Role:         role,
		OccurredAt:   s.timestamp(),
	})
	return out, nil
}

// ListMembers returns every membership of a project. Any member may list.
func (s *ProjectService) ListMembers(ctx context.Context, actorID, projectID string) ([]domain.Membership, error) {
	var out []domain.Membership
	err := s.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.Projects().Get(ctx, projectID); err != nil {
			return err
		}
		if _, err := access.Authorize(ctx, tx.Memberships(), projectID, actorID, domain.AnyRole); err != nil {
			return err
		}
		items, err := tx.Memberships().List(ctx, projectID)
		out = items
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Activity returns the latest committed lifecycle events of a project.
func (s *ProjectService) Activity(ctx context.Context, actorID, projectID string, limit int) ([]events.Event, error) {
	if _, err := s.Get(ctx, actorID, projectID); err != nil {
		return nil, err
	}
	items, err := s.events.Recent(ctx, projectID, limit)
	if err != nil {
		return nil, domain.Storage(err)
	}
	return items, nil
}

// Watch streams a project's live events to any member until ctx ends.
// When the event backend cannot stream, the channel just closes with ctx.
func (s *ProjectService) Watch(ctx context.Context, actorID, projectID string) (<-chan events.Event, error) {
	if _, err := s.Get(ctx, actorID, projectID); err != nil {
		return nil, err
	}

	stream, ok := s.events.(events.Stream)
	if !ok {
		out := make(chan events.Event)
		go func() {
			<-ctx.Done()
			close(out)
		}()
		return out, nil
	}

	ch, err := stream.Subscribe(ctx, projectID)
	if err != nil {
		return nil, domain.Storage(err)
	}
	return ch, nil
}
