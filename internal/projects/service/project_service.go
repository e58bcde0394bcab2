package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kanban-collab/kanban-backend/internal/logging"
	"github.com/kanban-collab/kanban-backend/internal/projects/access"
	"github.com/kanban-collab/kanban-backend/internal/projects/domain"
	"github.com/kanban-collab/kanban-backend/internal/projects/events"
	"github.com/kanban-collab/kanban-backend/internal/projects/repository"
)

// ProjectService is the project lifecycle manager. Every operation runs in a
// single store transaction: authorization failures and validation errors
// abort before any write, and a failing write rolls back the whole operation.
type ProjectService struct {
	store  repository.Store
	events events.Sink
	log    *zap.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*ProjectService)

// WithEvents sets where committed lifecycle events are published.
func WithEvents(sink events.Sink) Option {
	return func(s *ProjectService) { s.events = sink }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *ProjectService) { s.log = log }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *ProjectService) { s.now = now }
}

// NewProjectService creates a new project service
func NewProjectService(store repository.Store, opts ...Option) *ProjectService {
	s := &ProjectService{
		store:  store,
		events: events.Nop{},
		log:    zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorize checks that actorID holds one of the required roles in projectID.
func (s *ProjectService) Authorize(ctx context.Context, projectID, actorID string, required domain.RoleSet) (*domain.Membership, error) {
	var out *domain.Membership
	err := s.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		m, err := access.Authorize(ctx, tx.Memberships(), projectID, actorID, required)
		out = m
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create makes a new active project owned by actorID, together with the
// owner membership.
func (s *ProjectService) Create(ctx context.Context, actorID string, in domain.CreateProjectInput) (*domain.Project, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validationf("project name is required")
	}

	now := s.timestamp()
	p := &domain.Project{
		ID:          s.newID(),
		Name:        name,
		Description: normalizeDescription(in.Description),
		OwnerID:     actorID,
		Status:      domain.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	owner := &domain.Membership{
		ID:        s.newID(),
		ProjectID: p.ID,
		UserID:    actorID,
		Role:      domain.RoleOwner,
		JoinedAt:  now,
	}

	err := s.update(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Projects().Create(ctx, p); err != nil {
			return err
		}
		return tx.Memberships().Create(ctx, owner)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.Event{Type: events.ProjectCreated, ProjectID: p.ID, ActorID: actorID, OccurredAt: now})
	return p, nil
}

// Get returns a non-deleted project the actor is a member of.
func (s *ProjectService) Get(ctx context.Context, actorID, projectID string) (*domain.Project, error) {
	var out *domain.Project
	err := s.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		p, err := tx.Projects().Get(ctx, projectID)
		if err != nil {
			return err
		}
		if _, err := access.Authorize(ctx, tx.Memberships(), projectID, actorID, domain.AnyRole); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies the fields present in patch. Owners and admins only.
func (s *ProjectService) Update(ctx context.Context, actorID, projectID string, patch domain.ProjectPatch) (*domain.Project, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domain.Validationf("project name must not be empty")
		}
		patch.Name = &name
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, domain.Validationf("unknown status %q", *patch.Status)
	}

	var out *domain.Project
	err := s.update(ctx, func(ctx context.Context, tx repository.Tx) error {
		p, err := tx.Projects().Get(ctx, projectID)
		if err != nil {
			return err
		}
		if _, err := access.Authorize(ctx, tx.Memberships(), projectID, actorID, domain.ManagementRoles); err != nil {
			return err
		}
		out = p
		if patch.Empty() {
			return nil
		}

		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Description != nil {
			p.Description = normalizeDescription(patch.Description)
		}
		if patch.Status != nil {
			p.Status = *patch.Status
		}
		p.UpdatedAt = s.timestamp()
		return tx.Projects().Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	if !patch.Empty() {
		s.emit(ctx, events.Event{Type: events.ProjectUpdated, ProjectID: projectID, ActorID: actorID, OccurredAt: out.UpdatedAt})
	}
	return out, nil
}

// SoftDelete hides a project from every default lookup. Owner only.
// A project that is already deleted is reported as not found.
func (s *ProjectService) SoftDelete(ctx context.Context, actorID, projectID string) error {
	now := s.timestamp()
	err := s.update(ctx, func(ctx context.Context, tx repository.Tx) error {
		p, err := tx.Projects().Get(ctx, projectID)
		if err != nil {
			return err
		}
		if err := requireOwner(p, actorID, "delete"); err != nil {
			return err
		}
		p.IsDeleted = true
		p.DeletedAt = &now
		p.UpdatedAt = now
		return tx.Projects().Save(ctx, p)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, events.Event{Type: events.ProjectDeleted, ProjectID: projectID, ActorID: actorID, OccurredAt: now})
	return nil
}

// Restore reverses SoftDelete. It is the only operation that looks past the
// deletion filter. Owner only.
func (s *ProjectService) Restore(ctx context.Context, actorID, projectID string) (*domain.Project, error) {
	var out *domain.Project
	err := s.update(ctx, func(ctx context.Context, tx repository.Tx) error {
		p, err := tx.Projects().GetIncludingDeleted(ctx, projectID)
		if err != nil {
			return err
		}
		if err := requireOwner(p, actorID, "restore"); err != nil {
			return err
		}
		if !p.IsDeleted {
			return fmt.Errorf("%w: project is not deleted", domain.ErrInvalidState)
		}
		p.IsDeleted = false
		p.DeletedAt = nil
		p.UpdatedAt = s.timestamp()
		out = p
		return tx.Projects().Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.Event{Type: events.ProjectRestored, ProjectID: projectID, ActorID: actorID, OccurredAt: out.UpdatedAt})
	return out, nil
}

// Archive sets the project status to archived. Owners and admins only.
func (s *ProjectService) Archive(ctx context.Context, actorID, projectID string) (*domain.Project, error) {
	var out *domain.Project
	err := s.update(ctx, func(ctx context.Context, tx repository.Tx) error {
		p, err := tx.Projects().Get(ctx, projectID)
		if err != nil {
			return err
		}
		if _, err := access.Authorize(ctx, tx.Memberships(), projectID, actorID, domain.ManagementRoles); err != nil {
			return err
		}
		p.Status = domain.StatusArchived
		p.UpdatedAt = s.timestamp()
		out = p
		return tx.Projects().Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.Event{Type: events.ProjectArchived, ProjectID: projectID, ActorID: actorID, OccurredAt: out.UpdatedAt})
	return out, nil
}

// List returns the actor's non-deleted projects, newest first.
func (s *ProjectService) List(ctx context.Context, actorID string, q domain.ListQuery) (*domain.ProjectPage, error) {
	q = q.Normalize()
	page := &domain.ProjectPage{Limit: q.Limit, Offset: q.Offset}
	err := s.view(ctx, func(ctx context.Context, tx repository.Tx) error {
		items, total, err := tx.Projects().ListForMember(ctx, actorID, q)
		if err != nil {
			return err
		}
		page.Items = items
		page.Total = total
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (s *ProjectService) update(ctx context.Context, fn repository.TxFunc) error {
	return s.run(ctx, s.store.Update, fn)
}

func (s *ProjectService) view(ctx context.Context, fn repository.TxFunc) error {
	return s.run(ctx, s.store.View, fn)
}

func (s *ProjectService) run(ctx context.Context, tx func(context.Context, repository.TxFunc) error, fn repository.TxFunc) error {
	err := tx(ctx, fn)
	if err == nil {
		return nil
	}
	err = domain.Storage(err)
	if errors.Is(err, domain.ErrStorage) {
		logging.FromContext(ctx, s.log).Error("project store failure", zap.Error(err))
	}
	return err
}

// emit publishes after commit. The mutation has already happened, so a
// publishing failure is logged and otherwise ignored.
func (s *ProjectService) emit(ctx context.Context, e events.Event) {
	log := logging.FromContext(ctx, s.log)
	log.Info("project mutation committed",
		zap.String("event", string(e.Type)),
		zap.String("project_id", e.ProjectID),
		zap.String("actor_id", e.ActorID),
	)
	if err := s.events.Publish(ctx, e); err != nil {
		log.Warn("failed to publish project event",
			zap.String("event", string(e.Type)),
			zap.String("project_id", e.ProjectID),
			zap.Error(err),
		)
	}
}

func (s *ProjectService) timestamp() time.Time {
	return s.now().UTC()
}

func requireActor(actorID string) error {
	if strings.TrimSpace(actorID) == "" {
		return domain.Validationf("actor id is required")
	}
	return nil
}

func requireOwner(p *domain.Project, actorID, action string) error {
	if p.OwnerID != actorID {
		return fmt.Errorf("%w: only the project owner may %s it", domain.ErrForbidden, action)
	}
	return nil
}

func normalizeDescription(d *string) *string {
	if d == nil {
		return nil
	}
	v := strings.TrimSpace(*d)
	if v == "" {
		return nil
	}
	return &v
}
