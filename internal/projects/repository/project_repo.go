package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kanban-collab/kanban-backend/internal/projects/domain"
)

type pgProjects struct {
	tx   *sql.Tx
	lock bool
}

const projectColumns = `id, name, description, owner_id, status, is_deleted, created_at, updated_at, deleted_at`

// Create inserts a new project row.
func (r *pgProjects) Create(ctx context.Context, p *domain.Project) error {
	const q = `
INSERT INTO projects (id, name, description, owner_id, status, is_deleted, created_at, updated_at, deleted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	_, err := r.tx.ExecContext(ctx, q,
		p.ID, p.Name, p.Description, p.OwnerID, string(p.Status), p.IsDeleted, p.CreatedAt, p.UpdatedAt, p.DeletedAt)
	return classify(err, "project")
}

// Get returns a project from the default view, which excludes soft-deleted rows.
func (r *pgProjects) Get(ctx context.Context, id string) (*domain.Project, error) {
	q := `
SELECT ` + projectColumns + `
FROM projects
WHERE id = $1 AND is_deleted = false` + lockClause(r.lock) + `;`
	return r.getOne(ctx, q, id)
}

// GetIncludingDeleted returns a project regardless of its deletion flag.
func (r *pgProjects) GetIncludingDeleted(ctx context.Context, id string) (*domain.Project, error) {
	q := `
SELECT ` + projectColumns + `
FROM projects
WHERE id = $1` + lockClause(r.lock) + `;`
	return r.getOne(ctx, q, id)
}

func (r *pgProjects) getOne(ctx context.Context, q, id string) (*domain.Project, error) {
	p, err := scanProject(r.tx.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, classify(err, "project")
	}
	return p, nil
}

// Save writes every mutable column of p.
func (r *pgProjects) Save(ctx context.Context, p *domain.Project) error {
	const q = `
UPDATE projects
SET name = $2, description = $3, owner_id = $4, status = $5, is_deleted = $6, updated_at = $7, deleted_at = $8
WHERE id = $1;
`
	result, err := r.tx.ExecContext(ctx, q,
		p.ID, p.Name, p.Description, p.OwnerID, string(p.Status), p.IsDeleted, p.UpdatedAt, p.DeletedAt)
	if err != nil {
		return classify(err, "project")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: project", domain.ErrNotFound)
	}
	return nil
}

// ListForMember returns the non-deleted projects userID belongs to, newest first,
// along with the total number of matches independent of the window.
func (r *pgProjects) ListForMember(ctx context.Context, userID string, q domain.ListQuery) ([]domain.Project, int, error) {
	q = q.Normalize()
	pattern := "%" + escapeLike(strings.TrimSpace(q.Search)) + "%"

	const countQ = `
SELECT count(*)
FROM projects p
JOIN project_members m ON m.project_id = p.id
WHERE m.user_id = $1 AND p.is_deleted = false AND p.name ILIKE $2 ESCAPE '\';
`
	var total int
	if err := r.tx.QueryRowContext(ctx, countQ, userID, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQ = `
SELECT p.id, p.name, p.description, p.owner_id, p.status, p.is_deleted, p.created_at, p.updated_at, p.deleted_at
FROM projects p
JOIN project_members m ON m.project_id = p.id
WHERE m.user_id = $1 AND p.is_deleted = false AND p.name ILIKE $2 ESCAPE '\'
ORDER BY p.created_at DESC, p.id
LIMIT $3 OFFSET $4;
`
	rows, err := r.tx.QueryContext(ctx, listQ, userID, pattern, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0, q.Limit)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var (
		p           domain.Project
		status      string
		description sql.NullString
		deletedAt   sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Name, &description, &p.OwnerID, &status, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	p.Status = domain.Status(status)
	if description.Valid {
		p.Description = &description.String
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		p.DeletedAt = &t
	}
	return &p, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
