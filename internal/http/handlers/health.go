package handlers

import "github.com/gin-gonic/gin"

type HealthHandler struct {
	ping func() error
}

// NewHealthHandler takes a ping probe for the readiness check; nil
// means nothing external to probe (file-backed store).
func NewHealthHandler(ping func() error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(200, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.ping != nil {
		if err := h.ping(); err != nil {
			ctx.JSON(503, gin.H{"status": "degraded", "reason": err.Error()})
			return
		}
	}
	ctx.JSON(200, gin.H{"status": "ready"})
}
