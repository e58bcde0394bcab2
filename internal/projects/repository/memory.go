package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kanban-collab/kanban-backend/internal/projects/domain"
)

var errReadOnly = errors.New("write attempted in read-only transaction")

type memoryState struct {
	projects    map[string]domain.Project
	memberships map[string]domain.Membership
}

func newMemoryState() memoryState {
	return memoryState{
		projects:    make(map[string]domain.Project),
		memberships: make(map[string]domain.Membership),
	}
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		projects:    make(map[string]domain.Project, len(s.projects)),
		memberships: make(map[string]domain.Membership, len(s.memberships)),
	}
	for id, p := range s.projects {
		out.projects[id] = cloneProject(p)
	}
	for id, m := range s.memberships {
		out.memberships[id] = m
	}
	return out
}

func cloneProject(p domain.Project) domain.Project {
	if p.Description != nil {
		d := *p.Description
		p.Description = &d
	}
	if p.DeletedAt != nil {
		t := *p.DeletedAt
		p.DeletedAt = &t
	}
	return p
}

// MemoryStore is an in-process Store. Update transactions are serialized by a
// single lock and applied copy-on-write, so a failing unit of work leaves no
// trace. It backs the "memory" store driver and the service tests.
type MemoryStore struct {
	mu    sync.RWMutex
	state memoryState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

func (s *MemoryStore) View(ctx context.Context, fn TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, &memTx{state: &s.state, readOnly: true})
}

func (s *MemoryStore) Update(ctx context.Context, fn TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	if err := fn(ctx, &memTx{state: &working}); err != nil {
		return err
	}
	s.state = working
	return nil
}

type memTx struct {
	state    *memoryState
	readOnly bool
}

func (t *memTx) Projects() ProjectRepository       { return (*memProjects)(t) }
func (t *memTx) Memberships() MembershipRepository { return (*memMemberships)(t) }

type memProjects memTx

func (r *memProjects) Create(_ context.Context, p *domain.Project) error {
	if r.readOnly {
		return errReadOnly
	}
	if _, ok := r.state.projects[p.ID]; ok {
		return fmt.Errorf("%w: project already exists", domain.ErrConflict)
	}
	r.state.projects[p.ID] = cloneProject(*p)
	return nil
}

func (r *memProjects) Get(ctx context.Context, id string) (*domain.Project, error) {
	p, err := r.GetIncludingDeleted(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsDeleted {
		return nil, fmt.Errorf("%w: project", domain.ErrNotFound)
	}
	return p, nil
}

func (r *memProjects) GetIncludingDeleted(_ context.Context, id string) (*domain.Project, error) {
	p, ok := r.state.projects[id]
	if !ok {
		return nil, fmt.Errorf("%w: project", domain.ErrNotFound)
	}
	out := cloneProject(p)
	return &out, nil
}

func (r *memProjects) Save(_ context.Context, p *domain.Project) error {
	if r.readOnly {
		return errReadOnly
	}
	if _, ok := r.state.projects[p.ID]; !ok {
		return fmt.Errorf("%w: project", domain.ErrNotFound)
	}
	r.state.projects[p.ID] = cloneProject(*p)
	return nil
}

func (r *memProjects) ListForMember(_ context.Context, userID string, q domain.ListQuery) ([]domain.Project, int, error) {
	q = q.Normalize()
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	matched := make([]domain.Project, 0, 16)
	for _, m := range r.state.memberships {
		if m.UserID != userID {
			continue
		}
		p, ok := r.state.projects[m.ProjectID]
		if !ok || p.IsDeleted {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		matched = append(matched, cloneProject(p))
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	if q.Offset >= total {
		return []domain.Project{}, total, nil
	}
	end := q.Offset + q.Limit
	if end > total {
		end = total
	}
	return matched[q.Offset:end], total, nil
}

type memMemberships memTx

func (r *memMemberships) Create(_ context.Context, m *domain.Membership) error {
	if r.readOnly {
		return errReadOnly
	}
	if _, ok := r.state.projects[m.ProjectID]; !ok {
		return fmt.Errorf("%w: referenced user or project does not exist", domain.ErrNotFound)
	}
	for _, existing := range r.state.memberships {
		if existing.ProjectID == m.ProjectID && existing.UserID == m.UserID {
			return fmt.Errorf("%w: membership already exists", domain.ErrConflict)
		}
	}
	r.state.memberships[m.ID] = *m
	return nil
}

func (r *memMemberships) Get(_ context.Context, projectID, userID string) (*domain.Membership, error) {
	for _, m := range r.state.memberships {
		if m.ProjectID == projectID && m.UserID == userID {
			out := m
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: membership", domain.ErrNotFound)
}

func (r *memMemberships) List(_ context.Context, projectID string) ([]domain.Membership, error) {
	out := make([]domain.Membership, 0, 8)
	for _, m := range r.state.memberships {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memMemberships) SetRole(_ context.Context, id string, role domain.Role) error {
	if r.readOnly {
		return errReadOnly
	}
	m, ok := r.state.memberships[id]
	if !ok {
		return fmt.Errorf("%w: membership", domain.ErrNotFound)
	}
	m.Role = role
	r.state.memberships[id] = m
	return nil
}

func (r *memMemberships) Delete(_ context.Context, id string) error {
	if r.readOnly {
		return errReadOnly
	}
	if _, ok := r.state.memberships[id]; !ok {
		return fmt.Errorf("%w: membership", domain.ErrNotFound)
	}
	delete(r.state.memberships, id)
	return nil
}
