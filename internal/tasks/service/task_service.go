package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	pdomain "github.com/kanban-collab/kanban-backend/internal/projects/domain"
	"github.com/kanban-collab/kanban-backend/internal/tasks/domain"
	"github.com/kanban-collab/kanban-backend/internal/tasks/repository"
)

// ProjectAccess is the access control evaluator as seen by tasks.
type ProjectAccess interface {
	Authorize(ctx context.Context, projectID, actorID string, required pdomain.RoleSet) (*pdomain.Membership, error)
	AuthorizeActive(ctx context.Context, projectID, actorID string, required pdomain.RoleSet) (*pdomain.Project, *pdomain.Membership, error)
}

// TaskService handles task business logic. Every call is authorized against
// the task's project.
type TaskService struct {
	repo   repository.Repository
	access ProjectAccess
	now    func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(repo repository.Repository, access ProjectAccess) *TaskService {
	return &TaskService{
		repo:   repo,
		access: access,
		now:    time.Now,
	}
}

// Create adds a task to an active project. Viewers may not create tasks and
// the assignee, when given, must belong to the project.
func (s *TaskService) Create(ctx context.Context, actorID, projectID string, in domain.CreateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, pdomain.Validationf("task title is required")
	}

	project, _, err := s.access.AuthorizeActive(ctx, projectID, actorID, pdomain.ContributorRoles)
	if err != nil {
		return nil, err
	}
	if project.Status != pdomain.StatusActive {
		return nil, fmt.Errorf("%w: project is %s", pdomain.ErrInvalidState, project.Status)
	}

	var assignee *string
	if in.AssigneeID != nil && strings.TrimSpace(*in.AssigneeID) != "" {
		id := strings.TrimSpace(*in.AssigneeID)
		if _, err := s.access.Authorize(ctx, projectID, id, pdomain.AnyRole); err != nil {
			if errors.Is(err, pdomain.ErrNotAMember) {
				return nil, pdomain.Validationf("assignee is not a member of this project")
			}
			return nil, err
		}
		assignee = &id
	}

	var description *string
	if in.Description != nil {
		if d := strings.TrimSpace(*in.Description); d != "" {
			description = &d
		}
	}

	now := s.now().UTC()
	t := &domain.Task{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Title:       title,
		Description: description,
		AssigneeID:  assignee,
		Status:      domain.StatusBacklog,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, pdomain.Storage(err)
	}
	return t, nil
}

// UpdateStatus assigns a new board status to a task.
func (s *TaskService) UpdateStatus(ctx context.Context, actorID, taskID string, status domain.Status) (*domain.Task, error) {
	if !status.Valid() {
		return nil, pdomain.Validationf("unknown task status %q", status)
	}

	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, pdomain.Storage(err)
	}
	if _, _, err := s.access.AuthorizeActive(ctx, t.ProjectID, actorID, pdomain.ContributorRoles); err != nil {
		// outsiders cannot tell an existing task from a missing one
		if errors.Is(err, pdomain.ErrNotAMember) {
			return nil, fmt.Errorf("%w: task", pdomain.ErrNotFound)
		}
		return nil, err
	}

	now := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, taskID, status, now); err != nil {
		return nil, pdomain.Storage(err)
	}
	t.Status = status
	t.UpdatedAt = now
	return t, nil
}

// List returns a project's tasks. Any member may list.
func (s *TaskService) List(ctx context.Context, actorID, projectID string, status *domain.Status) ([]domain.Task, error) {
	if status != nil && !status.Valid() {
		return nil, pdomain.Validationf("unknown task status %q", *status)
	}
	if _, _, err := s.access.AuthorizeActive(ctx, projectID, actorID, pdomain.AnyRole); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByProject(ctx, projectID, status)
	if err != nil {
		return nil, pdomain.Storage(err)
	}
	return items, nil
}
