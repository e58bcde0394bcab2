package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	pdomain "github.com/kanban-collab/kanban-backend/internal/projects/domain"
	"github.com/kanban-collab/kanban-backend/internal/tasks/domain"
)

// MemoryRepository keeps tasks in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tasks: make(map[string]domain.Task)}
}

func (r *MemoryRepository) Create(_ context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; ok {
		return fmt.Errorf("%w: task already exists", pdomain.ErrConflict)
	}
	r.tasks[t.ID] = *t
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: task", pdomain.ErrNotFound)
	}
	return &t, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id string, status domain.Status, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return fmt.Errorf("%w: task", pdomain.ErrNotFound)
	}
	t.Status = status
	t.UpdatedAt = updatedAt
	r.tasks[id] = t
	return nil
}

func (r *MemoryRepository) ListByProject(_ context.Context, projectID string, status *domain.Status) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Task, 0, 16)
	for _, t := range r.tasks {
		if t.ProjectID != projectID {
			continue
		}
		if status != nil && t.Status != *status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
