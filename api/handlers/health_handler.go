package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sateviss/youtube-archive/internal/domain"
)

// Version is reported by the health endpoint
var Version = "dev"

// HealthHandler handles health check requests
type HealthHandler struct {
	repo domain.StateRepository
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(repo domain.StateRepository) *HealthHandler {
	return &HealthHandler{repo: repo}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// Ready handles GET /ready; the state repository must be readable
func (h *HealthHandler) Ready(c *gin.Context) {
	if _, err := h.repo.Load(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
