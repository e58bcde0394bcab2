package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kanban-collab/kanban-backend/internal/auth"
	"github.com/kanban-collab/kanban-backend/internal/users"
)

// UserResolver maps an external identity onto the stable user id.
type UserResolver interface {
	EnsureUser(ctx context.Context, u users.UpsertUser) (string, error)
}

// Authenticate verifies the caller's credential and stores the resolved
// identity in the Gin context. Requests without a valid credential are
// rejected with 401.
func Authenticate(verifier auth.TokenVerifier, resolver UserResolver) gin.HandlerFunc {
	_, headerMode := verifier.(auth.HeaderVerifier)

	return func(c *gin.Context) {
		credential := extractToken(c)
		if headerMode {
			credential = c.GetHeader("X-User-Id")
		}

		identity, err := verifier.Verify(c.Request.Context(), credential)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": err.Error(), "code": "UNAUTHORIZED"})
			c.Abort()
			return
		}

		if headerMode && identity.Email == "" {
			identity.Email = c.GetHeader("X-User-Email")
		}

		userID, err := resolver.EnsureUser(c.Request.Context(), users.UpsertUser{
			FirebaseUID: identity.UID,
			Email:       identity.Email,
			DisplayName: identity.DisplayName,
			PhotoURL:    identity.PhotoURL,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "ensure user: " + err.Error(), "code": "DATABASE_ERROR"})
			c.Abort()
			return
		}

		c.Set(auth.CtxFirebaseUID, identity.UID)
		c.Set(auth.CtxUserID, userID)
		if identity.Email != "" {
			c.Set(auth.CtxEmail, identity.Email)
		}

		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}
