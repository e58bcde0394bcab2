package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/kanban-collab/kanban-backend/internal/projects/domain"
)

// PostgresStore implements Store on database/sql with the lib/pq driver.
// Read-write transactions take row locks (SELECT ... FOR UPDATE) on every
// project and membership they read, which serializes concurrent mutations of
// the same project.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres-backed store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) View(ctx context.Context, fn TxFunc) error {
	return s.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (s *PostgresStore) Update(ctx context.Context, fn TxFunc) error {
	return s.run(ctx, nil, fn)
}

func (s *PostgresStore) run(ctx context.Context, opts *sql.TxOptions, fn TxFunc) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		_ = tx.Rollback()
	}()

	ptx := &pgTx{tx: tx, lock: opts == nil || !opts.ReadOnly}
	if err := fn(ctx, ptx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

type pgTx struct {
	tx   *sql.Tx
	lock bool
}

func (t *pgTx) Projects() ProjectRepository {
	return &pgProjects{tx: t.tx, lock: t.lock}
}

func (t *pgTx) Memberships() MembershipRepository {
	return &pgMemberships{tx: t.tx, lock: t.lock}
}

func lockClause(lock bool) string {
	if lock {
		return "\nFOR UPDATE"
	}
	return ""
}

// classify maps driver errors onto the domain taxonomy. Anything it does not
// recognise is returned unchanged and surfaces as a storage error.
func classify(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}

	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s already exists", domain.ErrConflict, what)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: referenced user or project does not exist", domain.ErrNotFound)
		case "22P02": // invalid_text_representation, e.g. malformed uuid
			return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
		}
	}
	return err
}
