package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ailahq/safecheck/internal/checkin"
	"github.com/ailahq/safecheck/internal/http/middlewares"
)

type CheckinEngine interface {
	Start(ctx context.Context, userID string, contactIDs []string, destination string, minutes int) error
	Cancel(userID string) error
	Dismiss(userID string) error
	Snapshot(userID string) checkin.Snapshot
}

type CheckinHandler struct {
	engine CheckinEngine
}

func NewCheckinHandler(engine CheckinEngine) *CheckinHandler {
	return &CheckinHandler{engine: engine}
}

type StartCheckinRequest struct {
	ContactIDs      []string `json:"contactIds" binding:"required,min=1"`
	Destination     string   `json:"destination" binding:"required"`
	DurationMinutes int      `json:"durationMinutes" binding:"required"`
}

func (h *CheckinHandler) Get(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)
	ctx.JSON(http.StatusOK, h.engine.Snapshot(userID))
}

func (h *CheckinHandler) Durations(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"minutes": checkin.DurationPresets,
		"default": checkin.DefaultDurationMinutes,
	})
}

func (h *CheckinHandler) Start(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	var req StartCheckinRequest
	if !BindJSON(ctx, &req) {
		return
	}

	err := h.engine.Start(ctx.Request.Context(), userID, req.ContactIDs, req.Destination, req.DurationMinutes)
	if err != nil {
		switch {
		case errors.Is(err, checkin.ErrNoContactsSelected):
			RespondBadRequest(ctx, "Select at least one emergency contact.", nil)
		case errors.Is(err, checkin.ErrNoDestination):
			RespondBadRequest(ctx, "Enter where you are going.", nil)
		case errors.Is(err, checkin.ErrBadDuration):
			RespondBadRequest(ctx, "Duration must be one of the presets.", nil)
		case errors.Is(err, checkin.ErrInvalidState):
			RespondConflict(ctx, "invalid_state", "A check-in is already running; cancel or dismiss it first.")
		default:
			RespondInternal(ctx, "Could not start check-in")
		}
		return
	}

	ctx.JSON(http.StatusCreated, h.engine.Snapshot(userID))
}

func (h *CheckinHandler) Cancel(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	if err := h.engine.Cancel(userID); err != nil {
		if errors.Is(err, checkin.ErrInvalidState) {
			RespondConflict(ctx, "invalid_state", "No armed check-in to cancel.")
			return
		}
		RespondInternal(ctx, "Could not cancel check-in")
		return
	}

	ctx.JSON(http.StatusOK, h.engine.Snapshot(userID))
}

func (h *CheckinHandler) Dismiss(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	if err := h.engine.Dismiss(userID); err != nil {
		if errors.Is(err, checkin.ErrInvalidState) {
			RespondConflict(ctx, "invalid_state", "No triggered check-in to dismiss.")
			return
		}
		RespondInternal(ctx, "Could not dismiss check-in")
		return
	}

	ctx.JSON(http.StatusOK, h.engine.Snapshot(userID))
}
