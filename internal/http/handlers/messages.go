package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ailahq/safecheck/internal/domain/message"
	"github.com/ailahq/safecheck/internal/http/middlewares"
	"github.com/ailahq/safecheck/internal/messages"
)

type MessageBox interface {
	Add(ctx context.Context, name, email, body string) (message.Message, error)
	List(ctx context.Context, actorID string) ([]message.Message, error)
}

type MessagesHandler struct {
	box MessageBox
}

func NewMessagesHandler(box MessageBox) *MessagesHandler {
	return &MessagesHandler{box: box}
}

type MessageRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required,max=2000"`
}

// Create is the public contact-form endpoint.
func (h *MessagesHandler) Create(ctx *gin.Context) {
	var req MessageRequest
	if !BindJSON(ctx, &req) {
		return
	}

	m, err := h.box.Add(ctx.Request.Context(), req.Name, req.Email, req.Message)
	if err != nil {
		RespondInternal(ctx, "Could not save message")
		return
	}

	ctx.JSON(http.StatusCreated, m)
}

// List serves the admin inbox. The service re-verifies the actor's
// admin flag; routing-level RBAC alone is not trusted.
func (h *MessagesHandler) List(ctx *gin.Context) {
	actorID, _ := middlewares.UserIDFromContext(ctx)

	items, err := h.box.List(ctx.Request.Context(), actorID)
	if err != nil {
		if errors.Is(err, messages.ErrForbidden) {
			RespondForbidden(ctx, "Admin role required")
			return
		}
		RespondInternal(ctx, "Could not list messages")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}
