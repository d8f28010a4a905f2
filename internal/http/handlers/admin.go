package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ailahq/safecheck/internal/domain/user"
	"github.com/ailahq/safecheck/internal/http/middlewares"
	"github.com/ailahq/safecheck/internal/identity"
)

type UserAdmin interface {
	ListUsers(ctx context.Context, actorID string) ([]user.User, error)
	DeleteUser(ctx context.Context, actorID, userID string) error
}

type AdminHandler struct {
	users UserAdmin
}

func NewAdminHandler(users UserAdmin) *AdminHandler {
	return &AdminHandler{users: users}
}

func (h *AdminHandler) ListUsers(ctx *gin.Context) {
	actorID, _ := middlewares.UserIDFromContext(ctx)

	items, err := h.users.ListUsers(ctx.Request.Context(), actorID)
	if err != nil {
		if errors.Is(err, identity.ErrForbidden) {
			RespondForbidden(ctx, "Admin role required")
			return
		}
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// DeleteUser removes a user and cascades to their contacts. The
// service re-verifies the actor's admin flag; routing-level RBAC alone
// is not trusted.
func (h *AdminHandler) DeleteUser(ctx *gin.Context) {
	actorID, _ := middlewares.UserIDFromContext(ctx)
	userID := ctx.Param("id")

	if err := h.users.DeleteUser(ctx.Request.Context(), actorID, userID); err != nil {
		switch {
		case errors.Is(err, identity.ErrForbidden):
			RespondForbidden(ctx, "Admin role required")
		case errors.Is(err, identity.ErrUserNotFound):
			RespondNotFound(ctx, "User not found")
		default:
			RespondInternal(ctx, "Could not delete user")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
