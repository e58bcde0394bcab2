package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kanban-collab/kanban-backend/internal/auth"
	"github.com/kanban-collab/kanban-backend/internal/projects/domain"
)

func (h *Handler) listMembers(c *gin.Context) {
	items, err := h.svc.ListMembers(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "members": items})
}

func (h *Handler) addMember(c *gin.Context) {
	var req addMemberReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		WriteError(c, err)
		return
	}

	m, err := h.svc.AddMember(c.Request.Context(), auth.UserID(c), c.Param("id"), req.UserID, role)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "member": m})
}

func (h *Handler) changeMemberRole(c *gin.Context) {
	var req changeRoleReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Role == "" {
		badRequest(c, "invalid body")
		return
	}

	m, err := h.svc.ChangeMemberRole(c.Request.Context(), auth.UserID(c), c.Param("id"), c.Param("user_id"), domain.Role(req.Role))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "member": m})
}

func (h *Handler) removeMember(c *gin.Context) {
	if err := h.svc.RemoveMember(c.Request.Context(), auth.UserID(c), c.Param("id"), c.Param("user_id")); err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
