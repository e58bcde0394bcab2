package access_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanban-collab/kanban-backend/internal/projects/access"
	"github.com/kanban-collab/kanban-backend/internal/projects/domain"
	"github.com/kanban-collab/kanban-backend/internal/projects/repository"
)

type stubMembers map[string]domain.Role

func (s stubMembers) Get(_ context.Context, projectID, userID string) (*domain.Membership, error) {
	role, ok := s[userID]
	if !ok {
		return nil, fmt.Errorf("%w: membership", domain.ErrNotFound)
	}
	return &domain.Membership{ProjectID: projectID, UserID: userID, Role: role}, nil
}

type brokenMembers struct{}

func (brokenMembers) Get(context.Context, string, string) (*domain.Membership, error) {
	return nil, errors.New("connection reset")
}

func TestAuthorize(t *testing.T) {
	members := stubMembers{
		"owner":  domain.RoleOwner,
		"admin":  domain.RoleAdmin,
		"member": domain.RoleMember,
		"viewer": domain.RoleViewer,
	}

	tests := []struct {
		name     string
		actor    string
		required domain.RoleSet
		wantErr  error
	}{
		{"owner passes owner-only", "owner", domain.OwnerOnly, nil},
		{"admin fails owner-only", "admin", domain.OwnerOnly, domain.ErrInsufficientRole},
		{"admin passes management", "admin", domain.ManagementRoles, nil},
		{"member fails management", "member", domain.ManagementRoles, domain.ErrInsufficientRole},
		{"member passes contributor", "member", domain.ContributorRoles, nil},
		{"viewer fails contributor", "viewer", domain.ContributorRoles, domain.ErrInsufficientRole},
		{"viewer passes any", "viewer", domain.AnyRole, nil},
		{"stranger is not a member", "stranger", domain.AnyRole, domain.ErrNotAMember},
		{"empty set admits nobody", "owner", domain.RoleSet{}, domain.ErrInsufficientRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := access.Authorize(context.Background(), members, "p1", tt.actor, tt.required)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, domain.ErrForbidden)
				assert.Nil(t, m)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.actor, m.UserID)
		})
	}
}

func TestAuthorize_StoreFailurePassesThrough(t *testing.T) {
	_, err := access.Authorize(context.Background(), brokenMembers{}, "p1", "u1", domain.AnyRole)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrForbidden))
}

func seedStore(t *testing.T) *repository.MemoryStore {
	t.Helper()
	store := repository.NewMemoryStore()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	err := store.Update(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		for _, id := range []string{"live", "gone"} {
			p := &domain.Project{ID: id, Name: id, OwnerID: "u1", Status: domain.StatusActive, CreatedAt: now, UpdatedAt: now}
			if id == "gone" {
				p.IsDeleted = true
				p.DeletedAt = &now
			}
			if err := tx.Projects().Create(ctx, p); err != nil {
				return err
			}
			if err := tx.Memberships().Create(ctx, &domain.Membership{ID: "m-" + id, ProjectID: id, UserID: "u1", Role: domain.RoleOwner, JoinedAt: now}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return store
}

func TestEvaluator(t *testing.T) {
	ctx := context.Background()
	ev := access.NewEvaluator(seedStore(t))

	t.Run("authorize", func(t *testing.T) {
		m, err := ev.Authorize(ctx, "live", "u1", domain.OwnerOnly)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleOwner, m.Role)

		_, err = ev.Authorize(ctx, "live", "u2", domain.AnyRole)
		assert.ErrorIs(t, err, domain.ErrNotAMember)
	})

	t.Run("authorize active returns project", func(t *testing.T) {
		p, m, err := ev.AuthorizeActive(ctx, "live", "u1", domain.AnyRole)
		require.NoError(t, err)
		assert.Equal(t, "live", p.ID)
		assert.Equal(t, "u1", m.UserID)
	})

	t.Run("authorize active hides deleted projects", func(t *testing.T) {
		_, _, err := ev.AuthorizeActive(ctx, "gone", "u1", domain.AnyRole)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
