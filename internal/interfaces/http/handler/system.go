package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports backing-store health
type Pinger interface {
	Ping() error
}

// SystemHandler exposes liveness and readiness probes
type SystemHandler struct {
	BaseHandler
	appName string
	db      Pinger
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(appName string, db Pinger) *SystemHandler {
	return &SystemHandler{appName: appName, db: db}
}

// Health reports process liveness
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"app":    h.appName,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready reports whether the backing stores are reachable
func (h *SystemHandler) Ready(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "database unreachable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
