package repository

import (
	"context"
	"time"

	"github.com/kanban-collab/kanban-backend/internal/tasks/domain"
)

type Repository interface {
	Create(ctx context.Context, t *domain.Task) error
	Get(ctx context.Context, id string) (*domain.Task, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status, updatedAt time.Time) error
	// ListByProject returns tasks oldest first, optionally filtered by status.
	ListByProject(ctx context.Context, projectID string, status *domain.Status) ([]domain.Task, error)
}
