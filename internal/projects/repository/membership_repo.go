package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kanban-collab/kanban-backend/internal/projects/domain"
)

type pgMemberships struct {
	tx   *sql.Tx
	lock bool
}

const membershipColumns = `id, project_id, user_id, role, joined_at`

// Create inserts a membership. A duplicate (project_id, user_id) pair is a conflict.
func (r *pgMemberships) Create(ctx context.Context, m *domain.Membership) error {
	const q = `
INSERT INTO project_members (id, project_id, user_id, role, joined_at)
VALUES ($1, $2, $3, $4, $5);
`
	_, err := r.tx.ExecContext(ctx, q, m.ID, m.ProjectID, m.UserID, string(m.Role), m.JoinedAt)
	return classify(err, "membership")
}

func (r *pgMemberships) Get(ctx context.Context, projectID, userID string) (*domain.Membership, error) {
	q := `
SELECT ` + membershipColumns + `
FROM project_members
WHERE project_id = $1 AND user_id = $2` + lockClause(r.lock) + `;`

	m, err := scanMembership(r.tx.QueryRowContext(ctx, q, projectID, userID))
	if err != nil {
		return nil, classify(err, "membership")
	}
	return m, nil
}

// List returns the project's memberships in join order.
func (r *pgMemberships) List(ctx context.Context, projectID string) ([]domain.Membership, error) {
	const q = `
SELECT ` + membershipColumns + `
FROM project_members
WHERE project_id = $1
ORDER BY joined_at, id;
`
	rows, err := r.tx.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, classify(err, "project")
	}
	defer rows.Close()

	out := make([]domain.Membership, 0, 8)
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pgMemberships) SetRole(ctx context.Context, id string, role domain.Role) error {
	const q = `
UPDATE project_members
SET role = $2
WHERE id = $1;
`
	return r.execOne(ctx, q, id, string(role))
}

func (r *pgMemberships) Delete(ctx context.Context, id string) error {
	const q = `
DELETE FROM project_members
WHERE id = $1;
`
	return r.execOne(ctx, q, id)
}

func (r *pgMemberships) execOne(ctx context.Context, q string, args ...any) error {
	result, err := r.tx.ExecContext(ctx, q, args...)
	if err != nil {
		return classify(err, "membership")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: membership", domain.ErrNotFound)
	}
	return nil
}

func scanMembership(row rowScanner) (*domain.Membership, error) {
	var (
		m    domain.Membership
		role string
	)
	if err := row.Scan(&m.ID, &m.ProjectID, &m.UserID, &role, &m.JoinedAt); err != nil {
		return nil, err
	}
	m.Role = domain.Role(role)
	return &m, nil
}
