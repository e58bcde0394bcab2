package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kanban-collab/kanban-backend/internal/projects/domain"
)

// ErrorStatus maps a domain error onto an HTTP status and a stable error code.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrNotAMember):
		return http.StatusForbidden, "NOT_A_MEMBER"
	case errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden, "INSUFFICIENT_ROLE"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, "INVALID_STATE"
	case errors.Is(err, domain.ErrInvalidOperation):
		return http.StatusUnprocessableEntity, "INVALID_OPERATION"
	default:
		return http.StatusInternalServerError, "DATABASE_ERROR"
	}
}

// WriteError renders err as the standard error envelope. Storage failures
// never leak driver messages to the client.
func WriteError(c *gin.Context, err error) {
	status, code := ErrorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal storage error"
	}
	c.JSON(status, gin.H{"ok": false, "error": msg, "code": code})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": msg, "code": "VALIDATION_ERROR"})
}
