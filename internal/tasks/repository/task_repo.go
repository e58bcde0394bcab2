package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	pdomain "github.com/kanban-collab/kanban-backend/internal/projects/domain"
	"github.com/kanban-collab/kanban-backend/internal/tasks/domain"
)

// TaskRepository provides persistence operations for tasks
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	const q = `
INSERT INTO tasks (id, project_id, title, description, assignee_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`
	_, err := r.db.ExecContext(ctx, q,
		t.ID, t.ProjectID, t.Title, t.Description, t.AssigneeID, string(t.Status), t.CreatedAt, t.UpdatedAt)
	return classify(err)
}

func (r *TaskRepository) Get(ctx context.Context, id string) (*domain.Task, error) {
	const q = `
SELECT id, project_id, title, description, assignee_id, status, created_at, updated_at
FROM tasks
WHERE id = $1;
`
	t, err := scanTask(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, classify(err)
	}
	return t, nil
}

func (r *TaskRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, updatedAt time.Time) error {
	const q = `
UPDATE tasks
SET status = $2, updated_at = $3
WHERE id = $1;
`
	result, err := r.db.ExecContext(ctx, q, id, string(status), updatedAt)
	if err != nil {
		return classify(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: task", pdomain.ErrNotFound)
	}
	return nil
}

func (r *TaskRepository) ListByProject(ctx context.Context, projectID string, status *domain.Status) ([]domain.Task, error) {
	const q = `
SELECT id, project_id, title, description, assignee_id, status, created_at, updated_at
FROM tasks
WHERE project_id = $1 AND ($2 = '' OR status = $2)
ORDER BY created_at, id;
`
	filter := ""
	if status != nil {
		filter = string(*status)
	}

	rows, err := r.db.QueryContext(ctx, q, projectID, filter)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := make([]domain.Task, 0, 16)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t           domain.Task
		status      string
		description sql.NullString
		assignee    sql.NullString
	)
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &description, &assignee, &status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = domain.Status(status)
	if description.Valid {
		t.Description = &description.String
	}
	if assignee.Valid {
		t.AssigneeID = &assignee.String
	}
	return &t, nil
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: task", pdomain.ErrNotFound)
	}
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return fmt.Errorf("%w: referenced project or assignee does not exist", pdomain.ErrNotFound)
		case "22P02":
			return fmt.Errorf("%w: task", pdomain.ErrNotFound)
		}
	}
	return err
}
