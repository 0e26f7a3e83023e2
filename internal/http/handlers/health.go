package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/dislu/ai-study-circle-sub003/internal/http/response"
	"github.com/dislu/ai-study-circle-sub003/internal/jobs"
)

type HealthHandler struct {
	registry *jobs.Registry
}

func NewHealthHandler(registry *jobs.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// GET /healthcheck
func (h *HealthHandler) Check(c *gin.Context) {
	stats := h.registry.Stats()
	response.RespondOK(c, gin.H{
		"status": "ok",
		"jobs":   stats.Total,
	})
}
