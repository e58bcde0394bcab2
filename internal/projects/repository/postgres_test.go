package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanban-collab/kanban-backend/internal/projects/domain"
)

var projectCols = []string{"id", "name", "description", "owner_id", "status", "is_deleted", "created_at", "updated_at", "deleted_at"}

func setupPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return NewPostgresStore(db), mock, db
}

func TestPostgresStore_CreateCommits(t *testing.T) {
	store, mock, db := setupPostgresStore(t)
	defer db.Close()

	now := time.Now().UTC()
	p := &domain.Project{ID: "p1", Name: "Roadmap", OwnerID: "u1", Status: domain.StatusActive, CreatedAt: now, UpdatedAt: now}
	m := &domain.Membership{ID: "m1", ProjectID: "p1", UserID: "u1", Role: domain.RoleOwner, JoinedAt: now}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO projects`).
		WithArgs("p1", "Roadmap", sqlmock.AnyArg(), "u1", "active", false, now, now, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO project_members`).
		WithArgs("m1", "p1", "u1", "owner", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Update(context.Background(), func(ctx context.Context, tx Tx) error {
		if err := tx.Projects().Create(ctx, p); err != nil {
			return err
		}
		return tx.Memberships().Create(ctx, m)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RollsBackOnError(t *testing.T) {
	store, mock, db := setupPostgresStore(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE project_members`).
		WithArgs("m1", "admin").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO project_members`).
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	err := store.Update(context.Background(), func(ctx context.Context, tx Tx) error {
		if err := tx.Memberships().SetRole(ctx, "m1", domain.RoleAdmin); err != nil {
			return err
		}
		return tx.Memberships().Create(ctx, &domain.Membership{ID: "m2", ProjectID: "p1", UserID: "u2", Role: domain.RoleOwner})
	})
	require.Error(t, err)
	assert.False(t, domain.IsDomainError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RollsBackOnPanic(t *testing.T) {
	store, mock, db := setupPostgresStore(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = store.Update(context.Background(), func(context.Context, Tx) error {
			panic("boom")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CommitFailure(t *testing.T) {
	store, mock, db := setupPostgresStore(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	err := store.Update(context.Background(), func(context.Context, Tx) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit tx")
}

func TestPostgresStore_BeginFailure(t *testing.T) {
	store, mock, db := setupPostgresStore(t)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	called := false
	err := store.View(context.Background(), func(context.Context, Tx) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
}

func TestPostgresStore_LocksRowsInUpdate(t *testing.T) {
	store, mock, db := setupPostgresStore(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM projects\s+WHERE id = \$1 AND is_deleted = false\s+FOR UPDATE;`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(projectCols).
			AddRow("p1", "Roadmap", "desc", "u1", "active", false, now, now, nil))
	mock.ExpectQuery(`FROM project_members\s+WHERE project_id = \$1 AND user_id = \$2\s+FOR UPDATE;`).
		WithArgs("p1", "u2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "user_id", "role", "joined_at"}))
	mock.ExpectRollback()

	err := store.Update(context.Background(), func(ctx context.Context, tx Tx) error {
		p, err := tx.Projects().Get(ctx, "p1")
		if err != nil {
			return err
		}
		require.NotNil(t, p.Description)
		assert.Equal(t, "desc", *p.Description)
		assert.Nil(t, p.DeletedAt)

		_, err = tx.Memberships().Get(ctx, "p1", "u2")
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ViewDoesNotLock(t *testing.T) {
	store, mock, db := setupPostgresStore(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM projects\s+WHERE id = \$1;`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(projectCols).
			AddRow("p1", "Roadmap", nil, "u1", "active", true, now, now, now))
	mock.ExpectCommit()

	err := store.View(context.Background(), func(ctx context.Context, tx Tx) error {
		p, err := tx.Projects().GetIncludingDeleted(ctx, "p1")
		if err != nil {
			return err
		}
		assert.True(t, p.IsDeleted)
		assert.Nil(t, p.Description)
		require.NotNil(t, p.DeletedAt)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ClassifiesDriverErrors(t *testing.T) {
	tests := []struct {
		name    string
		code    pq.ErrorCode
		wantErr error
	}{
		{"unique violation", "23505", domain.ErrConflict},
		{"foreign key violation", "23503", domain.ErrNotFound},
		{"malformed uuid", "22P02", domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock, db := setupPostgresStore(t)
			defer db.Close()

			mock.ExpectBegin()
			mock.ExpectExec(`INSERT INTO project_members`).
				WillReturnError(&pq.Error{Code: tt.code})
			mock.ExpectRollback()

			err := store.Update(context.Background(), func(ctx context.Context, tx Tx) error {
				return tx.Memberships().Create(ctx, &domain.Membership{ID: "m1", ProjectID: "p1", UserID: "u1", Role: domain.RoleMember})
			})
			assert.ErrorIs(t, err, tt.wantErr)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_SaveMissingRow(t *testing.T) {
	store, mock, db := setupPostgresStore(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE projects`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.Update(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.Projects().Save(ctx, &domain.Project{ID: "p1", Name: "x", OwnerID: "u1", Status: domain.StatusActive})
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListForMember(t *testing.T) {
	store, mock, db := setupPostgresStore(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\)`).
		WithArgs("u1", `%50\% off%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`ORDER BY p.created_at DESC, p.id\s+LIMIT \$3 OFFSET \$4`).
		WithArgs("u1", `%50\% off%`, 2, 1).
		WillReturnRows(sqlmock.NewRows(projectCols).
			AddRow("p2", "50% off sale", nil, "u1", "active", false, now, now, nil).
			AddRow("p1", "50% off promo", nil, "u9", "archived", false, now.Add(-time.Hour), now, nil))
	mock.ExpectCommit()

	err := store.View(context.Background(), func(ctx context.Context, tx Tx) error {
		items, total, err := tx.Projects().ListForMember(ctx, "u1", domain.ListQuery{Search: " 50% off ", Limit: 2, Offset: 1})
		if err != nil {
			return err
		}
		assert.Equal(t, 3, total)
		require.Len(t, items, 2)
		assert.Equal(t, "p2", items[0].ID)
		assert.Equal(t, domain.StatusArchived, items[1].Status)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListMembers(t *testing.T) {
	store, mock, db := setupPostgresStore(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(`ORDER BY joined_at, id`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "user_id", "role", "joined_at"}).
			AddRow("m1", "p1", "u1", "owner", now).
			AddRow("m2", "p1", "u2", "viewer", now.Add(time.Minute)))
	mock.ExpectCommit()

	err := store.View(context.Background(), func(ctx context.Context, tx Tx) error {
		items, err := tx.Memberships().List(ctx, "p1")
		if err != nil {
			return err
		}
		require.Len(t, items, 2)
		assert.Equal(t, domain.RoleOwner, items[0].Role)
		assert.Equal(t, domain.RoleViewer, items[1].Role)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%\_a\\b`, escapeLike(`100%_a\b`))
	assert.Equal(t, "plain", escapeLike("plain"))
}
