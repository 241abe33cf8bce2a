package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	. "todostore/internal/adapter/http/helper"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		SendError(c, http.StatusServiceUnavailable, err.Error())
		return
	}

	SendSuccess(c, http.StatusOK, gin.H{"status": "ok"})
}
