package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"carworkshop/internal/infrastructure/storage/postgres"
)

// Database is the part of the pool the readiness probe needs.
type Database interface {
	Ping(ctx context.Context) error
	Stats() postgres.PoolStats
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	db      Database
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db Database, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}

// Ready handles readiness probe (can the database be reached?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"database": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"database": "healthy",
		},
		"pool": h.db.Stats(),
	})
}
