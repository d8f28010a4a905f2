package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ailahq/safecheck/internal/contacts"
	"github.com/ailahq/safecheck/internal/domain/contact"
	"github.com/ailahq/safecheck/internal/http/middlewares"
)

type ContactBook interface {
	ListFor(ctx context.Context, ownerID string) ([]contact.Contact, error)
	Add(ctx context.Context, ownerID, name, email, phone string) (contact.Contact, error)
	Update(ctx context.Context, ownerID, contactID, name, email, phone string) (contact.Contact, error)
	Remove(ctx context.Context, ownerID, contactID string) error
}

type ContactsHandler struct {
	book ContactBook
}

func NewContactsHandler(book ContactBook) *ContactsHandler {
	return &ContactsHandler{book: book}
}

type ContactRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"required"`
}

func (h *ContactsHandler) List(ctx *gin.Context) {
	ownerID, _ := middlewares.UserIDFromContext(ctx)

	items, err := h.book.ListFor(ctx.Request.Context(), ownerID)
	if err != nil {
		RespondInternal(ctx, "Could not list contacts")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *ContactsHandler) Create(ctx *gin.Context) {
	ownerID, _ := middlewares.UserIDFromContext(ctx)

	var req ContactRequest
	if !BindJSON(ctx, &req) {
		return
	}

	c, err := h.book.Add(ctx.Request.Context(), ownerID, req.Name, req.Email, req.Phone)
	if err != nil {
		RespondInternal(ctx, "Could not add contact")
		return
	}

	ctx.JSON(http.StatusCreated, c)
}

func (h *ContactsHandler) Update(ctx *gin.Context) {
	ownerID, _ := middlewares.UserIDFromContext(ctx)
	contactID := ctx.Param("id")

	var req ContactRequest
	if !BindJSON(ctx, &req) {
		return
	}

	c, err := h.book.Update(ctx.Request.Context(), ownerID, contactID, req.Name, req.Email, req.Phone)
	if err != nil {
		if errors.Is(err, contacts.ErrContactNotFound) {
			RespondNotFound(ctx, "Contact not found")
			return
		}
		RespondInternal(ctx, "Could not update contact")
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *ContactsHandler) Delete(ctx *gin.Context) {
	ownerID, _ := middlewares.UserIDFromContext(ctx)
	contactID := ctx.Param("id")

	if err := h.book.Remove(ctx.Request.Context(), ownerID, contactID); err != nil {
		if errors.Is(err, contacts.ErrContactNotFound) {
			RespondNotFound(ctx, "Contact not found")
			return
		}
		RespondInternal(ctx, "Could not remove contact")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "removed"})
}
