package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kanban-collab/kanban-backend/internal/auth"
	projecthttp "github.com/kanban-collab/kanban-backend/internal/projects/http"
	"github.com/kanban-collab/kanban-backend/internal/tasks/domain"
	"github.com/kanban-collab/kanban-backend/internal/tasks/service"
)

type Handler struct {
	svc *service.TaskService
}

func New(svc *service.TaskService) *Handler {
	return &Handler{svc: svc}
}

type createReq struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	AssigneeID  *string `json:"assignee_id"`
}

type statusReq struct {
	Status domain.Status `json:"status"`
}

// RegisterProjectRoutes attaches /projects/:id/tasks routes.
func (h *Handler) RegisterProjectRoutes(projects *gin.RouterGroup) {
	projects.GET("/:id/tasks", h.list)
	projects.POST("/:id/tasks", h.create)
}

// Register attaches /tasks routes.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.PATCH("/:task_id/status", h.updateStatus)
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body", "code": "VALIDATION_ERROR"})
		return
	}

	t, err := h.svc.Create(c.Request.Context(), auth.UserID(c), c.Param("id"), domain.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		projecthttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "task": t})
}

func (h *Handler) list(c *gin.Context) {
	var status *domain.Status
	if v := c.Query("status"); v != "" {
		s := domain.Status(v)
		status = &s
	}

	items, err := h.svc.List(c.Request.Context(), auth.UserID(c), c.Param("id"), status)
	if err != nil {
		projecthttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "tasks": items})
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body", "code": "VALIDATION_ERROR"})
		return
	}

	t, err := h.svc.UpdateStatus(c.Request.Context(), auth.UserID(c), c.Param("task_id"), req.Status)
	if err != nil {
		projecthttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "task": t})
}
