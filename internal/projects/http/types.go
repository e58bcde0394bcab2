package http

import (
	"github.com/kanban-collab/kanban-backend/internal/projects/domain"
	"github.com/kanban-collab/kanban-backend/internal/projects/service"
)

// Handler bundles the dependencies for projects HTTP endpoints.
type Handler struct {
	svc *service.ProjectService
}

func New(svc *service.ProjectService) *Handler {
	return &Handler{svc: svc}
}

type createReq struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// updateReq keeps pointers so an absent field is distinguishable from an empty one.
type updateReq struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Status      *domain.Status `json:"status"`
}

type transferReq struct {
	NewOwnerID string `json:"new_owner_id"`
}

type addMemberReq struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type changeRoleReq struct {
	Role string `json:"role"`
}
