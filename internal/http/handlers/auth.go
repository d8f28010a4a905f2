package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ailahq/safecheck/internal/domain/user"
	"github.com/ailahq/safecheck/internal/identity"
)

// IdentityService is the slice of the identity service the auth
// endpoints need.
type IdentityService interface {
	Register(ctx context.Context, email, password, name string) (user.User, error)
	Login(ctx context.Context, email, password string) (user.User, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (user.User, error)
}

type AuthHandler struct {
	identity IdentityService
}

func NewAuthHandler(identity IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	u, err := h.identity.Register(ctx.Request.Context(), req.Email, req.Password, req.Name)

	if err != nil {
		if errors.Is(err, identity.ErrDuplicateEmail) {
			RespondConflict(ctx, "email_taken", "Email is already registered.")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	u, err := h.identity.Login(ctx.Request.Context(), req.Email, req.Password)

	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
			return
		}

		RespondInternal(ctx, "Could not sign in")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	if err := h.identity.Logout(ctx.Request.Context()); err != nil {
		RespondInternal(ctx, "Could not sign out")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "signed_out"})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	u, err := h.identity.Current(ctx.Request.Context())

	if err != nil {
		RespondUnAuthorized(ctx, "unauthorized", "Sign in first")
		return
	}

	ctx.JSON(http.StatusOK, u)
}
