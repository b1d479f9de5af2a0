// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"
	"time"

	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/project"
	"github.com/gin-gonic/gin"
)

// HealthHandlers reports process liveness and basic operational stats
type HealthHandlers struct {
	projectManager *project.Manager
	perfTracker    *performance.Tracker
	startedAt      time.Time
}

// NewHealthHandlers creates health handlers with injected dependencies
func NewHealthHandlers(projectManager *project.Manager, perfTracker *performance.Tracker) *HealthHandlers {
	return &HealthHandlers{
		projectManager: projectManager,
		perfTracker:    perfTracker,
		startedAt:      time.Now().UTC(),
	}
}

// GetHealth handles GET /api/v1/health
func (h *HealthHandlers) GetHealth(c *gin.Context) {
	activeProjects, err := h.projectManager.GetActiveProjectCount()
	if err != nil {
		activeProjects = -1
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime":         time.Since(h.startedAt).String(),
		"activeProjects": activeProjects,
		"dbPools":        project.GetPoolStats(),
		"performance":    h.perfTracker.GetStats(),
	})
}
