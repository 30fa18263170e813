package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandler reports service liveness and database reachability.
type HealthHandler struct {
	db      *gorm.DB
	started time.Time
	env     string
}

func NewHealthHandler(db *gorm.DB, env string) *HealthHandler {
	return &HealthHandler{db: db, started: time.Now(), env: env}
}

func (h *HealthHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/health", h.Health)
}

func (h *HealthHandler) Health(c *gin.Context) {
	dbStatus := "up"
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "down"
	}

	status := http.StatusOK
	overall := "ok"
	if dbStatus != "up" {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status":   overall,
		"env":      h.env,
		"database": dbStatus,
		"uptime_s": int(time.Since(h.started).Seconds()),
		"time":     time.Now().Format(time.RFC3339),
	})
}
