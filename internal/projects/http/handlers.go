package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kanban-collab/kanban-backend/internal/auth"
	"github.com/kanban-collab/kanban-backend/internal/projects/domain"
)

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	p, err := h.svc.Create(c.Request.Context(), auth.UserID(c), domain.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	limit, err := queryInt(c, "limit", domain.DefaultPageSize)
	if err != nil {
		badRequest(c, "invalid limit")
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		badRequest(c, "invalid offset")
		return
	}

	page, err := h.svc.List(c.Request.Context(), auth.UserID(c), domain.ListQuery{
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": page.Items, "total": page.Total, "limit": page.Limit, "offset": page.Offset})
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) update(c *gin.Context) {
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	p, err := h.svc.Update(c.Request.Context(), auth.UserID(c), c.Param("id"), domain.ProjectPatch{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.SoftDelete(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) restore(c *gin.Context) {
	p, err := h.svc.Restore(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) archive(c *gin.Context) {
	p, err := h.svc.Archive(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) transfer(c *gin.Context) {
	var req transferReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	p, err := h.svc.TransferOwnership(c.Request.Context(), auth.UserID(c), c.Param("id"), req.NewOwnerID)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) activity(c *gin.Context) {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		badRequest(c, "invalid limit")
		return
	}

	items, err := h.svc.Activity(c.Request.Context(), auth.UserID(c), c.Param("id"), limit)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "events": items})
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
