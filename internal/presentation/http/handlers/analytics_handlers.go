// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/AtRiskMedia/journeytrack-go/internal/application/services"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/journeytrack-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// AnalyticsHandlers contains the dashboard analytics HTTP handlers
type AnalyticsHandlers struct {
	dashboardService *services.DashboardAnalyticsService
	logger           *logging.ChanneledLogger
	perfTracker      *performance.Tracker
}

// NewAnalyticsHandlers creates analytics handlers with injected dependencies
func NewAnalyticsHandlers(dashboardService *services.DashboardAnalyticsService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		dashboardService: dashboardService,
		logger:           logger,
		perfTracker:      perfTracker,
	}
}

// HandleDashboard handles GET /api/v1/analytics/dashboard
func (h *AnalyticsHandlers) HandleDashboard(c *gin.Context) {
	projectCtx, exists := middleware.GetProjectContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "project context not found"})
		return
	}

	start := time.Now()
	snapshot, err := h.dashboardService.GetDashboard(projectCtx, c.Query("range"))
	if err != nil {
		h.logger.Analytics().Error("Dashboard request failed", "projectId", projectCtx.ProjectID, "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.Analytics().Debug("Dashboard request handled", "projectId", projectCtx.ProjectID, "duration", time.Since(start))
	c.JSON(http.StatusOK, snapshot)
}

// HandleTopEvents handles GET /api/v1/analytics/events
func (h *AnalyticsHandlers) HandleTopEvents(c *gin.Context) {
	projectCtx, exists := middleware.GetProjectContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "project context not found"})
		return
	}

	counts, err := h.dashboardService.GetTopEventTypes(projectCtx, c.Query("range"), queryInt(c, "limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"eventTypes": counts})
}

// HandleSessions handles GET /api/v1/analytics/sessions
func (h *AnalyticsHandlers) HandleSessions(c *gin.Context) {
	projectCtx, exists := middleware.GetProjectContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "project context not found"})
		return
	}

	sessions, err := h.dashboardService.GetRecentSessions(projectCtx, queryInt(c, "limit"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// HandleLeads handles GET /api/v1/analytics/leads
func (h *AnalyticsHandlers) HandleLeads(c *gin.Context) {
	projectCtx, exists := middleware.GetProjectContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "project context not found"})
		return
	}

	leads, err := h.dashboardService.GetLeads(projectCtx, queryInt(c, "limit"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"leads": leads})
}

func queryInt(c *gin.Context, name string) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return value
}
