package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kanban-collab/kanban-backend/internal/auth"
)

// Me returns the identity the request was authenticated as.
func (h *Handler) Me(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": MeResponse{
		UserID:      userID,
		FirebaseUID: auth.UserFirebaseUID(c),
		Email:       c.GetString(auth.CtxEmail),
	}})
}
